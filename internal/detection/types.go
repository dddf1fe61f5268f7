package detection

import "image"

// Box is an axis-aligned pixel rectangle.
//
// (X1, Y1) is the inclusive top-left corner and (X2, Y2) the exclusive
// bottom-right corner, so a box clipped to a W x H image satisfies
// 0 <= X1 < X2 <= W and 0 <= Y1 < Y2 <= H.
type Box struct {
	X1 int `json:"x1" yaml:"x1"`
	Y1 int `json:"y1" yaml:"y1"`
	X2 int `json:"x2" yaml:"x2"`
	Y2 int `json:"y2" yaml:"y2"`
}

// Width returns X2 - X1.
func (b Box) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Box) Height() int { return b.Y2 - b.Y1 }

// Empty reports whether the box contains no pixels.
func (b Box) Empty() bool { return b.X1 >= b.X2 || b.Y1 >= b.Y2 }

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle { return image.Rect(b.X1, b.Y1, b.X2, b.Y2) }

// Clip returns a copy of b restricted to a width x height image.
func (b Box) Clip(width, height int) Box {
	return Box{
		X1: clampInt(b.X1, 0, width),
		Y1: clampInt(b.Y1, 0, height),
		X2: clampInt(b.X2, 0, width),
		Y2: clampInt(b.Y2, 0, height),
	}
}

// Pad returns a copy of b grown by p pixels on every side. The result is not
// clipped; combine with Clip.
func (b Box) Pad(p int) Box {
	return Box{X1: b.X1 - p, Y1: b.Y1 - p, X2: b.X2 + p, Y2: b.Y2 + p}
}

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Circle is a circle candidate produced by the Hough transform.
type Circle struct {
	X      int `json:"x" yaml:"x"`           // Center column
	Y      int `json:"y" yaml:"y"`           // Center row
	Radius int `json:"radius" yaml:"radius"` // Radius in pixels
	Votes  int `json:"votes" yaml:"votes"`   // Accumulator votes for the center
}

// Box returns the circle's bounding square, unclipped.
func (c Circle) Box() Box {
	return Box{X1: c.X - c.Radius, Y1: c.Y - c.Radius, X2: c.X + c.Radius, Y2: c.Y + c.Radius}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

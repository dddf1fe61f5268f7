package detection

import (
	"image"
	"math"
)

// RetrievalMode selects which boundaries FindContours returns.
type RetrievalMode int

const (
	// External returns only the outer boundary of components that are not
	// enclosed by another component.
	External RetrievalMode = iota

	// AllContours returns the outer boundary of every component plus the
	// boundary of every hole.
	AllContours
)

// Contour is an ordered, closed sequence of boundary pixels.
type Contour struct {
	Points []Point `json:"points"`
}

// Moments holds the raw spatial moments of the polygon spanned by a contour.
type Moments struct {
	M00 float64 `json:"m00"` // Signed area
	M10 float64 `json:"m10"` // First moment about the y axis
	M01 float64 `json:"m01"` // First moment about the x axis
}

// Moments computes the polygon moments with Green's theorem. The sign of M00
// depends on the traversal direction; M10/M00 and M01/M00 do not.
func (c Contour) Moments() Moments {
	var m Moments
	n := len(c.Points)
	if n < 3 {
		return m
	}
	for i := 0; i < n; i++ {
		p := c.Points[i]
		q := c.Points[(i+1)%n]
		cross := float64(p.X*q.Y - q.X*p.Y)
		m.M00 += cross
		m.M10 += float64(p.X+q.X) * cross
		m.M01 += float64(p.Y+q.Y) * cross
	}
	m.M00 /= 2
	m.M10 /= 6
	m.M01 /= 6
	return m
}

// Area returns the absolute polygon area enclosed by the contour.
func (c Contour) Area() float64 {
	return math.Abs(c.Moments().M00)
}

// Centroid returns the integer-truncated centroid. ok is false for degenerate
// contours whose area is zero.
func (c Contour) Centroid() (p Point, ok bool) {
	m := c.Moments()
	if m.M00 == 0 {
		return Point{}, false
	}
	return Point{X: int(m.M10 / m.M00), Y: int(m.M01 / m.M00)}, true
}

// BoundingBox returns the smallest box containing every contour pixel.
func (c Contour) BoundingBox() Box {
	if len(c.Points) == 0 {
		return Box{}
	}
	minX, minY := c.Points[0].X, c.Points[0].Y
	maxX, maxY := minX, minY
	for _, p := range c.Points[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return Box{X1: minX, Y1: minY, X2: maxX + 1, Y2: maxY + 1}
}

// ImagePoints converts the contour for drawing.
func (c Contour) ImagePoints() []image.Point {
	pts := make([]image.Point, len(c.Points))
	for i, p := range c.Points {
		pts[i] = image.Pt(p.X, p.Y)
	}
	return pts
}

// FindContours extracts component boundaries from a binary image in which any
// non-zero pixel is foreground.
//
// # Algorithm
//
//  1. Labelling: 8-connected foreground components via iterative flood fill
//  2. Outside region: background pixels 4-connected to the image border
//  3. Tracing: Moore-neighbour boundary tracing from each component's first
//     pixel in raster order, stopping when the start pixel is re-entered the
//     same way it was first left
//
// A component is external when it touches the image border or the outside
// region. Holes (4-connected background regions not connected to the outside)
// are traced only in AllContours mode.
func FindContours(bin *image.Gray, mode RetrievalMode) []Contour {
	b := bin.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	fg := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fg[y*width+x] = bin.Pix[y*bin.Stride+x] != 0
		}
	}

	labels, starts, sizes := labelComponents(width, height, func(i int) bool { return fg[i] }, neighbors8)
	outside := outsideBackground(width, height, fg)

	contours := make([]Contour, 0, len(starts))
	for id, start := range starts {
		label := id + 1
		if mode == External && !touchesOutside(width, height, labels, label, start, sizes[id], outside) {
			continue
		}
		inside := func(x, y int) bool {
			return x >= 0 && y >= 0 && x < width && y < height && labels[y*width+x] == label
		}
		contours = append(contours, Contour{Points: traceBoundary(start, inside, 4*sizes[id]+16)})
	}

	if mode == AllContours {
		holeBg := func(i int) bool { return !fg[i] && !outside[i] }
		holeLabels, holeStarts, holeSizes := labelComponents(width, height, holeBg, neighbors4)
		for id, start := range holeStarts {
			label := id + 1
			inside := func(x, y int) bool {
				return x >= 0 && y >= 0 && x < width && y < height && holeLabels[y*width+x] == label
			}
			contours = append(contours, Contour{Points: traceBoundary(start, inside, 4*holeSizes[id]+16)})
		}
	}

	return contours
}

var (
	neighbors4 = []Point{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}}
	neighbors8 = []Point{
		{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
		{X: -1, Y: 0}, {X: 1, Y: 0},
		{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
	}
)

// labelComponents assigns labels 1..n to connected components of the pixels
// selected by member. starts[i] is the raster-first pixel of component i+1.
// Uses a stack-based fill to avoid deep recursion on large regions.
func labelComponents(width, height int, member func(i int) bool, nbrs []Point) (labels []int, starts []Point, sizes []int) {
	labels = make([]int, width*height)
	stack := make([]Point, 0, 64)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if labels[i] != 0 || !member(i) {
				continue
			}
			label := len(starts) + 1
			starts = append(starts, Point{X: x, Y: y})
			size := 0

			labels[i] = label
			stack = append(stack[:0], Point{X: x, Y: y})
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				size++
				for _, d := range nbrs {
					nx, ny := p.X+d.X, p.Y+d.Y
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					j := ny*width + nx
					if labels[j] == 0 && member(j) {
						labels[j] = label
						stack = append(stack, Point{X: nx, Y: ny})
					}
				}
			}
			sizes = append(sizes, size)
		}
	}
	return labels, starts, sizes
}

// outsideBackground marks background pixels 4-connected to the image border.
func outsideBackground(width, height int, fg []bool) []bool {
	outside := make([]bool, width*height)
	stack := make([]Point, 0, 2*(width+height))
	seed := func(x, y int) {
		i := y*width + x
		if !fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, Point{X: x, Y: y})
		}
	}
	for x := 0; x < width; x++ {
		seed(x, 0)
		seed(x, height-1)
	}
	for y := 0; y < height; y++ {
		seed(0, y)
		seed(width-1, y)
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range neighbors4 {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				continue
			}
			seed(nx, ny)
		}
	}
	return outside
}

// touchesOutside reports whether component label reaches the image border or
// is 4-adjacent to the outside region. The scan starts from the component's
// first pixel row, since no pixel of the component lies above it.
func touchesOutside(width, height int, labels []int, label int, start Point, size int, outside []bool) bool {
	seen := 0
	for y := start.Y; y < height && seen < size; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if labels[i] != label {
				continue
			}
			seen++
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				return true
			}
			if outside[i-1] || outside[i+1] || outside[i-width] || outside[i+width] {
				return true
			}
		}
	}
	return false
}

// moore lists the 8 neighbours clockwise (with y pointing down), starting west.
var moore = [8]Point{
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
}

func mooreIndex(d Point) int {
	for i, m := range moore {
		if m == d {
			return i
		}
	}
	return 0
}

// traceBoundary follows the outer boundary of the region selected by inside,
// starting at its raster-first pixel (whose west neighbour is outside the
// region). limit caps the number of steps.
func traceBoundary(start Point, inside func(x, y int) bool, limit int) []Point {
	pts := []Point{start}
	cur := start
	back := 0 // direction from cur to the last visited outside pixel
	var first Point
	moved := false

	for step := 0; step < limit; step++ {
		nextDir := -1
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			if inside(cur.X+moore[d].X, cur.Y+moore[d].Y) {
				nextDir = d
				break
			}
		}
		if nextDir < 0 {
			break // isolated pixel
		}
		next := Point{X: cur.X + moore[nextDir].X, Y: cur.Y + moore[nextDir].Y}
		if moved && cur == start && next == first {
			break
		}
		if !moved {
			first = next
			moved = true
		}

		prev := moore[(nextDir+7)%8]
		outsidePx := Point{X: cur.X + prev.X, Y: cur.Y + prev.Y}
		cur = next
		back = mooreIndex(Point{X: outsidePx.X - cur.X, Y: outsidePx.Y - cur.Y})
		pts = append(pts, cur)
	}

	if len(pts) > 1 && pts[len(pts)-1] == start {
		pts = pts[:len(pts)-1]
	}
	return pts
}

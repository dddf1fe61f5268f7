package detection

import (
	"image"
	"image/color"
)

// createCircleImage draws a filled disc of value fg on a bg background.
func createCircleImage(width, height, cx, cy, r int, fg, bg uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := bg
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				v = fg
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// createRectImage draws a filled rectangle r of value fg on a bg background.
func createRectImage(width, height int, r image.Rectangle, fg, bg uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := bg
			if (image.Point{X: x, Y: y}).In(r) {
				v = fg
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// binaryImage returns a w x h mask with the given rectangles set to 255 and
// the holes cleared again, in order.
func binaryImage(w, h int, fill []image.Rectangle, clear []image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	set := func(r image.Rectangle, v uint8) {
		r = r.Intersect(img.Bounds())
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.Pix[y*img.Stride+x] = v
			}
		}
	}
	for _, r := range fill {
		set(r, 255)
	}
	for _, r := range clear {
		set(r, 0)
	}
	return img
}

// rectContour is the closed corner polygon of an axis-aligned rectangle.
func rectContour(x1, y1, x2, y2 int) Contour {
	return Contour{Points: []Point{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func boxNear(got, want Box, tol int) bool {
	return absInt(got.X1-want.X1) <= tol && absInt(got.Y1-want.Y1) <= tol &&
		absInt(got.X2-want.X2) <= tol && absInt(got.Y2-want.Y2) <= tol
}

package imaging

import (
	"image"
	"math"
)

// EdgeMap is the output of Canny edge detection.
//
// Edges flags thinned edge pixels; GradX and GradY keep the Sobel gradients of
// the input so that gradient-voting algorithms (the Hough circle transform) can
// reuse them without recomputing. All slices are row-major, Width*Height long.
type EdgeMap struct {
	Width  int
	Height int
	Edges  []bool
	GradX  []float64
	GradY  []float64
}

// IsEdge reports whether (x, y) is an edge pixel. Out-of-range coordinates are
// never edges.
func (e *EdgeMap) IsEdge(x, y int) bool {
	if x < 0 || y < 0 || x >= e.Width || y >= e.Height {
		return false
	}
	return e.Edges[y*e.Width+x]
}

// Gradient returns the Sobel gradient at (x, y).
func (e *EdgeMap) Gradient(x, y int) (gx, gy float64) {
	i := y*e.Width + x
	return e.GradX[i], e.GradY[i]
}

// Count returns the number of edge pixels.
func (e *EdgeMap) Count() int {
	n := 0
	for _, v := range e.Edges {
		if v {
			n++
		}
	}
	return n
}

// Image renders the edge map as a binary image (edges white).
func (e *EdgeMap) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, e.Width, e.Height))
	for i, v := range e.Edges {
		if v {
			img.Pix[(i/e.Width)*img.Stride+i%e.Width] = 0xFF
		}
	}
	return img
}

// Canny performs Canny edge detection on an already smoothed grayscale image.
//
// Parameters:
//   - gray: Source image, typically the output of GaussianBlur.
//   - low: Hysteresis low threshold on the Sobel gradient magnitude (0-255 scale).
//   - high: Hysteresis high threshold. Pixels above it seed edges.
//
// # Algorithm
//
//  1. Gradient computation: Sobel operators for X and Y gradients,
//     magnitude = sqrt(Gx² + Gy²)
//  2. Non-maximum suppression: keep only local maxima along the gradient
//     direction, thinning edges to one pixel
//  3. Hysteresis: pixels >= high are strong edges; pixels >= low are kept
//     only when 8-connected (directly or through other weak pixels) to a
//     strong edge
//
// Border pixels use clamped (replicated) values for the Sobel stencil and are
// never reported as edges.
func Canny(gray *image.Gray, low, high float64) *EdgeMap {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	n := width * height

	em := &EdgeMap{
		Width:  width,
		Height: height,
		Edges:  make([]bool, n),
		GradX:  make([]float64, n),
		GradY:  make([]float64, n),
	}
	if width < 3 || height < 3 {
		return em
	}

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude := make([]float64, n)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := float64(GrayAt(gray, x+kx, y+ky))
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			i := y*width + x
			em.GradX[i] = gx
			em.GradY[i] = gy
			magnitude[i] = math.Sqrt(gx*gx + gy*gy)
		}
	}

	// Non-maximum suppression
	suppressed := make([]float64, n)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag < low {
				continue
			}

			angle := math.Atan2(em.GradY[i], em.GradX[i])
			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			} else {
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			}

			// Ties broken toward the lower/right neighbour so plateaus keep one pixel.
			if mag > n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis: grow strong edges through weak pixels.
	stack := make([]int, 0, 256)
	for i, v := range suppressed {
		if v > 0 && v >= high && !em.Edges[i] {
			em.Edges[i] = true
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					q := ny*width + nx
					if !em.Edges[q] && suppressed[q] > 0 && suppressed[q] >= low {
						em.Edges[q] = true
						stack = append(stack, q)
					}
				}
			}
		}
	}

	return em
}

package detection

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/helmet-locator/internal/imaging"
)

// HoughParams tunes the gradient Hough circle transform.
type HoughParams struct {
	// DP is the inverse ratio of accumulator resolution to image resolution.
	// 1 means the accumulator has the image resolution; 1.2 makes each cell
	// 1.2 pixels wide. Values below 1 are treated as 1.
	DP float64

	// MinDist is the minimum distance between detected circle centers.
	MinDist float64

	// CannyHigh is the high hysteresis threshold of the internal edge
	// detector. The low threshold is half of it.
	CannyHigh float64

	// AccThreshold is the minimum number of votes for a center and the minimum
	// edge support for its radius.
	AccThreshold int

	// MinRadius and MaxRadius bound the searched radii. MaxRadius <= 0 means
	// max(width, height).
	MinRadius int
	MaxRadius int
}

// DefaultHoughParams returns the tuning used by the helmet locator.
func DefaultHoughParams() HoughParams {
	return HoughParams{
		DP:           1.2,
		MinDist:      50,
		CannyHigh:    120,
		AccThreshold: 30,
		MinRadius:    40,
		MaxRadius:    0,
	}
}

// Validate checks the parameters for values the transform cannot work with.
func (p HoughParams) Validate() error {
	if p.DP <= 0 {
		return fmt.Errorf("hough dp must be positive, got %v", p.DP)
	}
	if p.MinDist <= 0 {
		return fmt.Errorf("hough min distance must be positive, got %v", p.MinDist)
	}
	if p.CannyHigh <= 0 {
		return fmt.Errorf("hough canny threshold must be positive, got %v", p.CannyHigh)
	}
	if p.AccThreshold < 1 {
		return fmt.Errorf("hough accumulator threshold must be >= 1, got %d", p.AccThreshold)
	}
	if p.MinRadius < 0 {
		return fmt.Errorf("hough min radius must be >= 0, got %d", p.MinRadius)
	}
	if p.MaxRadius > 0 && p.MaxRadius < p.MinRadius {
		return fmt.Errorf("hough max radius %d below min radius %d", p.MaxRadius, p.MinRadius)
	}
	return nil
}

// DetectCircles finds circles in a blurred grayscale image with the gradient
// Hough transform.
//
// # Algorithm
//
//  1. Edge Detection: Canny with thresholds (CannyHigh/2, CannyHigh)
//  2. Center Voting: every edge pixel votes along its gradient line, in both
//     directions, for centers at distances MinRadius..MaxRadius. Votes land in
//     an accumulator whose cells are DP pixels wide.
//  3. Center Selection: accumulator local maxima above AccThreshold, strongest
//     first; a center closer than MinDist to an accepted circle is dropped
//  4. Radius Estimation: distances from the center to all edge pixels are
//     binned per integer radius; the radius with the highest support relative
//     to its circumference wins, provided its support reaches AccThreshold
//
// Circles are returned strongest center first. An image without edges yields
// no circles.
func DetectCircles(blurred *image.Gray, p HoughParams) []Circle {
	b := blurred.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	minR := p.MinRadius
	if minR < 0 {
		minR = 0
	}
	maxR := p.MaxRadius
	if maxR <= 0 {
		maxR = width
		if height > maxR {
			maxR = height
		}
	}
	if minR > maxR {
		return nil
	}
	dp := p.DP
	if dp < 1 {
		dp = 1
	}

	edges := imaging.Canny(blurred, p.CannyHigh/2, p.CannyHigh)

	// Accumulator with a one-cell border so the neighbour checks below never
	// leave the slice.
	aw := int(math.Ceil(float64(width)/dp)) + 2
	ah := int(math.Ceil(float64(height)/dp)) + 2
	acc := make([]int, aw*ah)

	points := make([]Point, 0, 1024)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !edges.IsEdge(x, y) {
				continue
			}
			gx, gy := edges.Gradient(x, y)
			mag := math.Hypot(gx, gy)
			if mag == 0 {
				continue
			}
			points = append(points, Point{X: x, Y: y})
			ux, uy := gx/mag, gy/mag

			for _, sign := range [2]float64{1, -1} {
				last := -1
				for r := minR; r <= maxR; r++ {
					cx := (float64(x) + sign*float64(r)*ux) / dp
					cy := (float64(y) + sign*float64(r)*uy) / dp
					ix := int(math.Floor(cx)) + 1
					iy := int(math.Floor(cy)) + 1
					if ix < 1 || iy < 1 || ix >= aw-1 || iy >= ah-1 {
						break
					}
					idx := iy*aw + ix
					if idx != last {
						acc[idx]++
						last = idx
					}
				}
			}
		}
	}

	type center struct {
		x, y  float64
		votes int
	}
	centers := make([]center, 0)
	for iy := 1; iy < ah-1; iy++ {
		for ix := 1; ix < aw-1; ix++ {
			idx := iy*aw + ix
			v := acc[idx]
			if v > p.AccThreshold &&
				v > acc[idx-1] && v >= acc[idx+1] &&
				v > acc[idx-aw] && v >= acc[idx+aw] {
				centers = append(centers, center{
					x:     (float64(ix-1) + 0.5) * dp,
					y:     (float64(iy-1) + 0.5) * dp,
					votes: v,
				})
			}
		}
	}
	sort.SliceStable(centers, func(i, j int) bool {
		return centers[i].votes > centers[j].votes
	})

	minDist2 := p.MinDist * p.MinDist
	if minDist2 < 1 {
		minDist2 = 1
	}

	circles := make([]Circle, 0)
	support := make([]int, maxR+2)
	for _, c := range centers {
		tooClose := false
		for _, accepted := range circles {
			dx := c.x - float64(accepted.X)
			dy := c.y - float64(accepted.Y)
			if dx*dx+dy*dy < minDist2 {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}

		for i := range support {
			support[i] = 0
		}
		for _, pt := range points {
			d := math.Hypot(float64(pt.X)-c.x, float64(pt.Y)-c.y)
			ri := int(math.Round(d))
			if ri >= minR && ri <= maxR {
				support[ri]++
			}
		}

		bestR := -1
		bestScore := 0.0
		for r := minR; r <= maxR; r++ {
			count := support[r] + support[r+1]
			if r > 0 {
				count += support[r-1]
			}
			if count < p.AccThreshold {
				continue
			}
			score := float64(count) / float64(max(r, 1))
			if score > bestScore {
				bestScore = score
				bestR = r
			}
		}
		if bestR < 0 {
			continue
		}

		circles = append(circles, Circle{
			X:      int(math.Round(c.x)),
			Y:      int(math.Round(c.y)),
			Radius: bestR,
			Votes:  c.votes,
		})
	}

	return circles
}

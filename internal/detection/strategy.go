package detection

// Strategy proposes at most one candidate box for a frame.
//
// The locator evaluates strategies in order and keeps the first proposal, so
// precedence between detection methods is expressed by list order alone.
type Strategy interface {
	Name() string
	Propose(f *Frame) (Box, bool)
}

// Strategy names reported in Result.Strategy.
const (
	StrategyTopCircle     = "top-circle"
	StrategyLargestCircle = "largest-circle"
	StrategyTopContour    = "top-contour"
)

// DefaultStrategies returns the helmet priority chain.
func DefaultStrategies() []Strategy {
	return []Strategy{TopCircle{}, LargestCircle{}, TopContour{}}
}

// TopCircle picks the largest-radius circle whose center lies in the top
// region.
type TopCircle struct{}

func (TopCircle) Name() string { return StrategyTopCircle }

func (TopCircle) Propose(f *Frame) (Box, bool) {
	limit := f.TopLimit()
	c, ok := largestCircle(f.Circles(), func(c Circle) bool { return c.Y < limit })
	if !ok {
		return Box{}, false
	}
	return c.Box(), true
}

// LargestCircle picks the largest-radius circle anywhere in the image.
type LargestCircle struct{}

func (LargestCircle) Name() string { return StrategyLargestCircle }

func (LargestCircle) Propose(f *Frame) (Box, bool) {
	c, ok := largestCircle(f.Circles(), func(Circle) bool { return true })
	if !ok {
		return Box{}, false
	}
	return c.Box(), true
}

// TopContour picks the largest external contour of the Otsu mask whose area
// reaches the configured floor and whose centroid lies in the top region.
type TopContour struct{}

func (TopContour) Name() string { return StrategyTopContour }

func (TopContour) Propose(f *Frame) (Box, bool) {
	limit := f.TopLimit()
	var (
		best     Box
		bestArea float64
		found    bool
	)
	for _, c := range f.Contours() {
		area := c.Area()
		if area < f.cfg.MinContourArea {
			continue
		}
		centroid, ok := c.Centroid()
		if !ok || centroid.Y >= limit {
			continue
		}
		if !found || area > bestArea {
			best, bestArea, found = c.BoundingBox(), area, true
		}
	}
	return best, found
}

// largestCircle returns the first circle with the greatest radius among those
// accepted by keep.
func largestCircle(circles []Circle, keep func(Circle) bool) (Circle, bool) {
	var (
		best  Circle
		found bool
	)
	for _, c := range circles {
		if !keep(c) {
			continue
		}
		if !found || c.Radius > best.Radius {
			best, found = c, true
		}
	}
	return best, found
}

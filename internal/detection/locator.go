package detection

import (
	"fmt"
	"image"

	"github.com/ironsheep/helmet-locator/internal/imaging"
)

// LocatorConfig holds every tunable of the helmet region locator.
//
// The thresholds are heuristics tuned on a single sample photo; they are kept
// as named values so callers can override them instead of guessing at intent.
type LocatorConfig struct {
	// BlurKernel and BlurSigma configure the Gaussian smoothing stage.
	BlurKernel int     `json:"blur_kernel" yaml:"blurkernel"`
	BlurSigma  float64 `json:"blur_sigma" yaml:"blursigma"`

	// Hough tunes the primary circle search.
	Hough HoughParams `json:"hough" yaml:"hough"`

	// TopRegionFraction is the share of the image height, measured from the
	// top, where the target is expected. A candidate is in the top region
	// when its center row is below int(height * TopRegionFraction).
	TopRegionFraction float64 `json:"top_region_fraction" yaml:"topregionfraction"`

	// MinContourArea discards fallback contours smaller than this (px²).
	MinContourArea float64 `json:"min_contour_area" yaml:"mincontourarea"`

	// MedianKernel is the speckle filter size applied to the Otsu mask.
	MedianKernel int `json:"median_kernel" yaml:"mediankernel"`
}

// DefaultLocatorConfig returns the stock helmet heuristic.
func DefaultLocatorConfig() LocatorConfig {
	return LocatorConfig{
		BlurKernel:        9,
		BlurSigma:         2,
		Hough:             DefaultHoughParams(),
		TopRegionFraction: 0.6,
		MinContourArea:    500,
		MedianKernel:      5,
	}
}

// Validate reports the first invalid setting.
func (c LocatorConfig) Validate() error {
	if c.BlurKernel < 1 {
		return fmt.Errorf("blur kernel must be >= 1, got %d", c.BlurKernel)
	}
	if c.BlurSigma < 0 {
		return fmt.Errorf("blur sigma must be >= 0, got %v", c.BlurSigma)
	}
	if c.TopRegionFraction <= 0 || c.TopRegionFraction > 1 {
		return fmt.Errorf("top region fraction must be in (0, 1], got %v", c.TopRegionFraction)
	}
	if c.MinContourArea < 0 {
		return fmt.Errorf("min contour area must be >= 0, got %v", c.MinContourArea)
	}
	if c.MedianKernel < 1 {
		return fmt.Errorf("median kernel must be >= 1, got %d", c.MedianKernel)
	}
	return c.Hough.Validate()
}

// Frame carries one image through the locator stages. Expensive stages are
// computed on first use, so a strategy chain that stops at a circle never
// pays for contour extraction.
type Frame struct {
	Width   int
	Height  int
	Gray    *image.Gray
	Blurred *image.Gray

	cfg *LocatorConfig

	circles     []Circle
	circlesDone bool

	mask     *image.Gray
	contours []Contour
	maskDone bool
}

// NewFrame runs the grayscale and blur stages for img.
func NewFrame(img image.Image, cfg *LocatorConfig) *Frame {
	gray := imaging.ToGray(img)
	return &Frame{
		Width:   gray.Bounds().Dx(),
		Height:  gray.Bounds().Dy(),
		Gray:    gray,
		Blurred: imaging.GaussianBlur(gray, cfg.BlurKernel, cfg.BlurSigma),
		cfg:     cfg,
	}
}

// TopLimit is the first row outside the top region.
func (f *Frame) TopLimit() int {
	return int(float64(f.Height) * f.cfg.TopRegionFraction)
}

// Circles returns the Hough circles of the blurred image.
func (f *Frame) Circles() []Circle {
	if !f.circlesDone {
		f.circles = DetectCircles(f.Blurred, f.cfg.Hough)
		f.circlesDone = true
	}
	return f.circles
}

// Mask returns the Otsu-binarised, median-filtered blurred image.
func (f *Frame) Mask() *image.Gray {
	f.computeMask()
	return f.mask
}

// Contours returns the external contours of Mask.
func (f *Frame) Contours() []Contour {
	f.computeMask()
	return f.contours
}

func (f *Frame) computeMask() {
	if f.maskDone {
		return
	}
	bin, _ := imaging.OtsuThreshold(f.Blurred)
	f.mask = imaging.MedianFilter(bin, f.cfg.MedianKernel)
	f.contours = FindContours(f.mask, External)
	f.maskDone = true
}

// Result is the outcome of a locator run.
type Result struct {
	// Found is false when no strategy produced a box.
	Found bool `json:"found"`

	// Box is the selected region, clipped to the image. Zero when not found.
	Box Box `json:"box"`

	// Strategy names the strategy that produced Box.
	Strategy string `json:"strategy,omitempty"`

	// Circles lists every circle candidate the Hough stage produced.
	Circles []Circle `json:"circles"`

	// Frame exposes the intermediate stage images for diagnostics.
	Frame *Frame `json:"-"`
}

// Locator finds the single region most likely to contain a helmet.
type Locator struct {
	cfg        LocatorConfig
	strategies []Strategy
}

// NewLocator validates cfg and builds a locator with the default strategy
// chain: top-circle, largest-circle, top-contour.
func NewLocator(cfg LocatorConfig) (*Locator, error) {
	return NewLocatorWithStrategies(cfg, DefaultStrategies()...)
}

// NewLocatorWithStrategies builds a locator that evaluates strategies in the
// given order.
func NewLocatorWithStrategies(cfg LocatorConfig, strategies ...Strategy) (*Locator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid locator config: %w", err)
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("locator needs at least one strategy")
	}
	return &Locator{cfg: cfg, strategies: strategies}, nil
}

// Config returns the locator configuration.
func (l *Locator) Config() LocatorConfig {
	return l.cfg
}

// Locate runs the pipeline on img. The returned result always carries the
// stage images; Found reports whether any strategy produced a box.
func (l *Locator) Locate(img image.Image) *Result {
	cfg := l.cfg
	return l.locateFrame(NewFrame(img, &cfg))
}

func (l *Locator) locateFrame(f *Frame) *Result {
	res := &Result{Frame: f}
	for _, s := range l.strategies {
		box, ok := s.Propose(f)
		if !ok {
			continue
		}
		box = box.Clip(f.Width, f.Height)
		if box.Empty() {
			continue
		}
		res.Found = true
		res.Box = box
		res.Strategy = s.Name()
		break
	}
	if f.circlesDone {
		res.Circles = f.circles
	}
	return res
}

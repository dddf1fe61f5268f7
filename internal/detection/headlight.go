package detection

import (
	"fmt"
	"image"

	"github.com/ironsheep/helmet-locator/internal/imaging"
)

// HeadlightConfig tunes the bright-spot centroid detector.
type HeadlightConfig struct {
	// BlurKernel is the Gaussian kernel size; BlurSigma <= 0 derives sigma
	// from the kernel size.
	BlurKernel int     `json:"blur_kernel" yaml:"blurkernel"`
	BlurSigma  float64 `json:"blur_sigma" yaml:"blursigma"`

	// Threshold is the fixed binarisation level; brighter pixels are kept.
	Threshold int `json:"threshold" yaml:"threshold"`

	// MaxCentroids caps the centroids listed in reports. Zero means no cap.
	MaxCentroids int `json:"max_centroids" yaml:"maxcentroids"`
}

// DefaultHeadlightConfig returns the stock headlight settings.
func DefaultHeadlightConfig() HeadlightConfig {
	return HeadlightConfig{
		BlurKernel:   15,
		BlurSigma:    0,
		Threshold:    150,
		MaxCentroids: 50,
	}
}

// Validate reports the first invalid setting.
func (c HeadlightConfig) Validate() error {
	if c.BlurKernel < 1 {
		return fmt.Errorf("headlight blur kernel must be >= 1, got %d", c.BlurKernel)
	}
	if c.Threshold < 0 || c.Threshold > 255 {
		return fmt.Errorf("headlight threshold must be in [0, 255], got %d", c.Threshold)
	}
	if c.MaxCentroids < 0 {
		return fmt.Errorf("headlight max centroids must be >= 0, got %d", c.MaxCentroids)
	}
	return nil
}

// HeadlightResult holds the contours and centroids of bright regions.
type HeadlightResult struct {
	// ContourCount is the number of contours found, holes included.
	ContourCount int `json:"num_contours" yaml:"num_contours"`

	// Centroids lists contour centroids in discovery order, capped at
	// MaxCentroids. Degenerate contours have no centroid.
	Centroids []Point `json:"centroids" yaml:"centroids"`

	// AllCentroids is the uncapped list used for drawing.
	AllCentroids []Point `json:"-" yaml:"-"`

	Contours []Contour  `json:"-" yaml:"-"`
	Gray     *image.Gray `json:"-" yaml:"-"`
	Blurred  *image.Gray `json:"-" yaml:"-"`
	Binary   *image.Gray `json:"-" yaml:"-"`
}

// DetectHeadlights finds bright blobs: grayscale, heavy blur, fixed threshold,
// then every contour (outer and hole boundaries) with its centroid.
func DetectHeadlights(img image.Image, cfg HeadlightConfig) *HeadlightResult {
	gray := imaging.ToGray(img)
	blurred := imaging.GaussianBlur(gray, cfg.BlurKernel, cfg.BlurSigma)
	binary := imaging.Threshold(blurred, uint8(clampInt(cfg.Threshold, 0, 255)))
	contours := FindContours(binary, AllContours)

	res := &HeadlightResult{
		ContourCount: len(contours),
		Centroids:    make([]Point, 0),
		Contours:     contours,
		Gray:         gray,
		Blurred:      blurred,
		Binary:       binary,
	}
	for _, c := range contours {
		if p, ok := c.Centroid(); ok {
			res.AllCentroids = append(res.AllCentroids, p)
		}
	}
	res.Centroids = append(res.Centroids, res.AllCentroids...)
	if cfg.MaxCentroids > 0 && len(res.Centroids) > cfg.MaxCentroids {
		res.Centroids = res.Centroids[:cfg.MaxCentroids]
	}
	return res
}

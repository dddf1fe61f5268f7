// Package config loads helmet-locator settings from defaults, an optional YAML
// file and HELMET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ironsheep/helmet-locator/internal/detection"
	"github.com/ironsheep/helmet-locator/internal/imaging"
)

// EnvPrefix prefixes every environment override, e.g.
// HELMET_LOCATOR_TOPREGIONFRACTION=0.5.
const EnvPrefix = "HELMET"

// Config is the complete runtime configuration. It is passed explicitly to
// every component; nothing reads settings from package state.
type Config struct {
	Debug     bool
	Output    OutputConfig
	Locator   detection.LocatorConfig
	Normalize NormalizeConfig
	Overlay   OverlayConfig
	Headlight detection.HeadlightConfig
	Batch     BatchConfig
}

// OutputConfig controls where artifacts go.
type OutputConfig struct {
	Dir         string // Root directory for artifacts
	JPEGQuality int    // Quality for .jpg artifacts
}

// NormalizeConfig controls the crop/pad/letterbox post-processing.
type NormalizeConfig struct {
	Padding    int    // Pixels added on every side of the box before cropping
	TargetSize int    // Side of the square output
	Background string // Letterbox fill color (hex)
	ResultName string // File name of the normalised crop
}

// OverlayConfig controls the diagnostic drawings.
type OverlayConfig struct {
	BoxColor      string
	NotFoundColor string
	ContourColor  string
	CentroidColor string
	Thickness     int
	LabelScale    int
}

// BatchConfig controls folder runs.
type BatchConfig struct {
	Workers    int      // Images processed concurrently
	Extensions []string // Accepted file extensions, lower case with dot
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Debug: false,
		Output: OutputConfig{
			Dir:         "outputs",
			JPEGQuality: 95,
		},
		Locator: detection.DefaultLocatorConfig(),
		Normalize: NormalizeConfig{
			Padding:    12,
			TargetSize: 512,
			Background: "#000000",
			ResultName: "motorcycle_helmet.jpg",
		},
		Overlay: OverlayConfig{
			BoxColor:      "#00FF00",
			NotFoundColor: "#FF0000",
			ContourColor:  "#00FF00",
			CentroidColor: "#FF0000",
			Thickness:     3,
			LabelScale:    2,
		},
		Headlight: detection.DefaultHeadlightConfig(),
		Batch: BatchConfig{
			Workers:    1,
			Extensions: []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff"},
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (optional; empty
// means no file) and environment variables, then validates it.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config file not found: %s", path)
			}
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides resolve during
// Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("debug", d.Debug)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.jpegquality", d.Output.JPEGQuality)

	v.SetDefault("locator.blurkernel", d.Locator.BlurKernel)
	v.SetDefault("locator.blursigma", d.Locator.BlurSigma)
	v.SetDefault("locator.topregionfraction", d.Locator.TopRegionFraction)
	v.SetDefault("locator.mincontourarea", d.Locator.MinContourArea)
	v.SetDefault("locator.mediankernel", d.Locator.MedianKernel)
	v.SetDefault("locator.hough.dp", d.Locator.Hough.DP)
	v.SetDefault("locator.hough.mindist", d.Locator.Hough.MinDist)
	v.SetDefault("locator.hough.cannyhigh", d.Locator.Hough.CannyHigh)
	v.SetDefault("locator.hough.accthreshold", d.Locator.Hough.AccThreshold)
	v.SetDefault("locator.hough.minradius", d.Locator.Hough.MinRadius)
	v.SetDefault("locator.hough.maxradius", d.Locator.Hough.MaxRadius)

	v.SetDefault("normalize.padding", d.Normalize.Padding)
	v.SetDefault("normalize.targetsize", d.Normalize.TargetSize)
	v.SetDefault("normalize.background", d.Normalize.Background)
	v.SetDefault("normalize.resultname", d.Normalize.ResultName)

	v.SetDefault("overlay.boxcolor", d.Overlay.BoxColor)
	v.SetDefault("overlay.notfoundcolor", d.Overlay.NotFoundColor)
	v.SetDefault("overlay.contourcolor", d.Overlay.ContourColor)
	v.SetDefault("overlay.centroidcolor", d.Overlay.CentroidColor)
	v.SetDefault("overlay.thickness", d.Overlay.Thickness)
	v.SetDefault("overlay.labelscale", d.Overlay.LabelScale)

	v.SetDefault("headlight.blurkernel", d.Headlight.BlurKernel)
	v.SetDefault("headlight.blursigma", d.Headlight.BlurSigma)
	v.SetDefault("headlight.threshold", d.Headlight.Threshold)
	v.SetDefault("headlight.maxcentroids", d.Headlight.MaxCentroids)

	v.SetDefault("batch.workers", d.Batch.Workers)
	v.SetDefault("batch.extensions", d.Batch.Extensions)
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("output dir must not be empty")
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be in [1, 100], got %d", c.Output.JPEGQuality)
	}
	if err := c.Locator.Validate(); err != nil {
		return err
	}
	if err := c.Headlight.Validate(); err != nil {
		return err
	}
	if c.Normalize.Padding < 0 {
		return fmt.Errorf("padding must be >= 0, got %d", c.Normalize.Padding)
	}
	if c.Normalize.TargetSize < 1 {
		return fmt.Errorf("target size must be >= 1, got %d", c.Normalize.TargetSize)
	}
	if c.Normalize.ResultName == "" {
		return fmt.Errorf("result name must not be empty")
	}
	for name, hex := range map[string]string{
		"normalize.background":  c.Normalize.Background,
		"overlay.boxcolor":      c.Overlay.BoxColor,
		"overlay.notfoundcolor": c.Overlay.NotFoundColor,
		"overlay.contourcolor":  c.Overlay.ContourColor,
		"overlay.centroidcolor": c.Overlay.CentroidColor,
	} {
		if _, err := imaging.ParseColor(hex); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Overlay.Thickness < 1 {
		return fmt.Errorf("overlay thickness must be >= 1, got %d", c.Overlay.Thickness)
	}
	if c.Overlay.LabelScale < 1 {
		return fmt.Errorf("overlay label scale must be >= 1, got %d", c.Overlay.LabelScale)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch workers must be >= 1, got %d", c.Batch.Workers)
	}
	if len(c.Batch.Extensions) == 0 {
		return fmt.Errorf("batch extensions must not be empty")
	}
	return nil
}

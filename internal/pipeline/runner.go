// Package pipeline runs the detectors against image files and writes the
// diagnostic artifacts and YAML run reports next to them.
//
// A Runner is safe for concurrent use: the image cache is locked, detectors
// are pure functions and every call writes into its own output directory.
package pipeline

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/helmet-locator/internal/config"
	"github.com/ironsheep/helmet-locator/internal/detection"
	"github.com/ironsheep/helmet-locator/internal/imaging"
)

// ReportName is the file name of the YAML manifest written by every run.
const ReportName = "report.yaml"

// ErrNoImages is returned when a folder holds no file with an accepted
// extension.
var ErrNoImages = errors.New("no images found")

// Artifact names one written file.
type Artifact struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// Runner ties configuration, image loading and the detectors together.
type Runner struct {
	cfg     config.Config
	log     *log.Logger
	cache   *imaging.ImageCache
	locator *detection.Locator
	colors  palette
}

type palette struct {
	box, notFound, contour, centroid, background color.NRGBA
}

// NewRunner validates cfg and prepares a runner. A nil logger discards output.
func NewRunner(cfg config.Config, logger *log.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	locator, err := detection.NewLocator(cfg.Locator)
	if err != nil {
		return nil, err
	}

	var p palette
	for _, c := range []struct {
		dst *color.NRGBA
		hex string
	}{
		{&p.box, cfg.Overlay.BoxColor},
		{&p.notFound, cfg.Overlay.NotFoundColor},
		{&p.contour, cfg.Overlay.ContourColor},
		{&p.centroid, cfg.Overlay.CentroidColor},
		{&p.background, cfg.Normalize.Background},
	} {
		parsed, err := imaging.ParseColor(c.hex)
		if err != nil {
			return nil, err
		}
		*c.dst = parsed
	}

	return &Runner{
		cfg:     cfg,
		log:     logger,
		cache:   imaging.NewImageCache(),
		locator: locator,
		colors:  p,
	}, nil
}

// Config returns the runner configuration.
func (r *Runner) Config() config.Config {
	return r.cfg
}

// Cache exposes the runner's image cache so callers serving several requests
// for the same file can share decoded images.
func (r *Runner) Cache() *imaging.ImageCache {
	return r.cache
}

func (r *Runner) debugf(format string, args ...interface{}) {
	if r.cfg.Debug {
		r.log.Printf("[debug] "+format, args...)
	}
}

func (r *Runner) writer(outDir string) *imaging.ArtifactWriter {
	w := imaging.NewArtifactWriter(outDir)
	w.JPEGQuality = r.cfg.Output.JPEGQuality
	return w
}

// writeReport marshals v as YAML into dir/report.yaml and returns the
// absolute path.
func writeReport(dir string, v interface{}) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, ReportName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs, nil
	}
	return path, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

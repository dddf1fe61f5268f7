package pipeline

import (
	"image"
	"path/filepath"
	"strings"

	"github.com/ironsheep/helmet-locator/internal/detection"
	"github.com/ironsheep/helmet-locator/internal/imaging"
)

// centroidRadius is the radius of the dot marking each centroid.
const centroidRadius = 3

// contourStroke is the side of the square drawn for every contour point.
const contourStroke = 2

// HeadlightReport describes one headlight detector run.
type HeadlightReport struct {
	Image        string            `yaml:"image" json:"image"`
	ContourCount int               `yaml:"num_contours" json:"num_contours"`
	Centroids    []detection.Point `yaml:"centroids" json:"centroids"`
	Artifacts    []Artifact        `yaml:"saved" json:"saved"`
}

// Headlight runs the headlight detector on path and writes <stem>_gray.png,
// <stem>_blur.png, <stem>_thresh.png, <stem>_contours.png and report.yaml
// into outDir.
func (r *Runner) Headlight(path, outDir string) (*HeadlightReport, error) {
	rep, err := r.headlight(path, outDir, fileStem(path))
	if err != nil {
		return nil, err
	}
	if _, err := writeReport(outDir, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// headlight shares outDir between images in a batch, so the per-image report
// is left to the caller.
func (r *Runner) headlight(path, outDir, stem string) (*HeadlightReport, error) {
	img, err := r.cache.Load(path)
	if err != nil {
		return nil, err
	}

	res := detection.DetectHeadlights(img, r.cfg.Headlight)
	r.debugf("%s: %d contours, %d centroids", path, res.ContourCount, len(res.AllCentroids))

	vis := imaging.Canvas(img)
	for _, c := range res.Contours {
		imaging.DrawPoints(vis, c.ImagePoints(), r.colors.contour, contourStroke)
	}
	for _, p := range res.AllCentroids {
		imaging.DrawDisc(vis, image.Pt(p.X, p.Y), centroidRadius, r.colors.centroid)
	}

	rep := &HeadlightReport{
		Image:        absPath(path),
		ContourCount: res.ContourCount,
		Centroids:    res.Centroids,
	}

	w := r.writer(outDir)
	for _, stage := range []struct {
		suffix string
		img    image.Image
	}{
		{"gray", res.Gray},
		{"blur", res.Blurred},
		{"thresh", res.Binary},
		{"contours", vis},
	} {
		p, err := w.Save(stem+"_"+stage.suffix+".png", stage.img)
		if err != nil {
			return nil, err
		}
		rep.Artifacts = append(rep.Artifacts, Artifact{Name: stage.suffix, Path: p})
	}

	r.log.Printf("%s: %d contours", path, res.ContourCount)
	return rep, nil
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

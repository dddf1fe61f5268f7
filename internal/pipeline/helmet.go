package pipeline

import (
	"fmt"
	"image"

	"github.com/ironsheep/helmet-locator/internal/detection"
	"github.com/ironsheep/helmet-locator/internal/imaging"
)

// Overlay labels.
const (
	HelmetLabel   = "HELMET (heuristic)"
	NotFoundLabel = "NO HELMET REGION FOUND"
)

// HelmetReport describes one helmet locator run.
type HelmetReport struct {
	Image     string `yaml:"image" json:"image"`
	Width     int    `yaml:"width" json:"width"`
	Height    int    `yaml:"height" json:"height"`
	Found     bool   `yaml:"found" json:"found"`
	Strategy  string `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Box is the selected region; CropBox is Box padded and clipped, the
	// region actually cut out for the normalised result.
	Box     *detection.Box `yaml:"box,omitempty" json:"box,omitempty"`
	CropBox *detection.Box `yaml:"crop_box,omitempty" json:"crop_box,omitempty"`

	Circles   []detection.Circle `yaml:"circles" json:"circles"`
	OtsuLevel int                `yaml:"otsu_level" json:"otsu_level"`

	// Result is the normalised crop, empty when nothing was found.
	Result    string     `yaml:"result,omitempty" json:"result,omitempty"`
	Artifacts []Artifact `yaml:"artifacts" json:"artifacts"`
}

// LocateImage decodes path and runs the locator without writing anything.
func (r *Runner) LocateImage(path string) (image.Image, *detection.Result, error) {
	img, err := r.cache.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return img, r.locator.Locate(img), nil
}

// NormalizedCrop locates the helmet region in path and returns the padded,
// letterboxed crop. The image is nil when no region was found.
func (r *Runner) NormalizedCrop(path string) (image.Image, *detection.Result, error) {
	img, res, err := r.LocateImage(path)
	if err != nil {
		return nil, nil, err
	}
	if !res.Found {
		return nil, res, nil
	}
	n := r.cfg.Normalize
	out, err := imaging.Normalize(img, res.Box.Rect(), n.Padding, n.TargetSize, r.colors.background)
	if err != nil {
		return nil, res, fmt.Errorf("failed to normalize region: %w", err)
	}
	return out, res, nil
}

// Helmet runs the helmet locator on path and writes into outDir:
//
//	original.png          the decoded input
//	helmet_bbox.png       input with the selected box, or
//	helmet_not_found.png  input with a not-found banner
//	gray.png, blur.png    preprocessing stages
//	thresh.png            plain Otsu binarisation of the blurred image
//	<result name>         normalised crop, only when a region was found
//	report.yaml           the HelmetReport
//
// Finding no region is not an error.
func (r *Runner) Helmet(path, outDir string) (*HelmetReport, error) {
	img, res, err := r.LocateImage(path)
	if err != nil {
		return nil, err
	}
	f := res.Frame

	rep := &HelmetReport{
		Image:     absPath(path),
		Width:     f.Width,
		Height:    f.Height,
		Found:     res.Found,
		Strategy:  res.Strategy,
		OutputDir: absPath(outDir),
		Circles:   res.Circles,
	}
	if rep.Circles == nil {
		rep.Circles = []detection.Circle{}
	}
	r.debugf("%s: %dx%d, %d circle candidates", path, f.Width, f.Height, len(res.Circles))

	w := r.writer(outDir)
	save := func(name string, img image.Image) error {
		p, err := w.Save(name, img)
		if err != nil {
			return err
		}
		rep.Artifacts = append(rep.Artifacts, Artifact{Name: name, Path: p})
		return nil
	}

	if err := save(imaging.ArtifactName("Original"), img); err != nil {
		return nil, err
	}

	ov := r.cfg.Overlay
	canvas := imaging.Canvas(img)
	if res.Found {
		box := res.Box
		rep.Box = &box
		imaging.DrawRect(canvas, box.Rect(), r.colors.box, ov.Thickness)
		labelY := box.Y1 - 10 - imaging.LabelHeight(ov.LabelScale)
		if labelY < 0 {
			labelY = 0
		}
		imaging.DrawLabel(canvas, box.X1, labelY, HelmetLabel, r.colors.box, ov.LabelScale)
		if err := save(imaging.ArtifactName("Helmet BBox"), canvas); err != nil {
			return nil, err
		}
	} else {
		imaging.DrawLabel(canvas, 20, 40, NotFoundLabel, r.colors.notFound, ov.LabelScale)
		if err := save(imaging.ArtifactName("Helmet Not Found"), canvas); err != nil {
			return nil, err
		}
	}

	thresh, level := imaging.OtsuThreshold(f.Blurred)
	rep.OtsuLevel = int(level)
	for _, stage := range []struct {
		title string
		img   image.Image
	}{
		{"Gray", f.Gray},
		{"Blur", f.Blurred},
		{"Thresh", thresh},
	} {
		if err := save(imaging.ArtifactName(stage.title), stage.img); err != nil {
			return nil, err
		}
	}

	if res.Found {
		n := r.cfg.Normalize
		crop := imaging.PadRect(res.Box.Rect(), n.Padding, image.Rect(0, 0, f.Width, f.Height))
		rep.CropBox = &detection.Box{X1: crop.Min.X, Y1: crop.Min.Y, X2: crop.Max.X, Y2: crop.Max.Y}

		out, err := imaging.Normalize(img, res.Box.Rect(), n.Padding, n.TargetSize, r.colors.background)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize region: %w", err)
		}
		p, err := w.Save(n.ResultName, out)
		if err != nil {
			return nil, err
		}
		rep.Result = p
		rep.Artifacts = append(rep.Artifacts, Artifact{Name: n.ResultName, Path: p})
		r.log.Printf("%s: helmet region %v via %s, saved %s", path, res.Box.Rect(), res.Strategy, p)
	} else {
		r.log.Printf("%s: no helmet-like region found with current heuristic", path)
	}

	if _, err := writeReport(outDir, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

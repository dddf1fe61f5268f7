package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ArtifactWriter saves images into a single output directory.
//
// The directory is created on the first write. The encoding format follows the
// file extension (.png, .jpg, .jpeg, .gif, .bmp, .tif, .tiff).
type ArtifactWriter struct {
	Dir string

	// JPEGQuality applies to .jpg/.jpeg artifacts. Zero means 95.
	JPEGQuality int
}

// NewArtifactWriter returns a writer for dir.
func NewArtifactWriter(dir string) *ArtifactWriter {
	return &ArtifactWriter{Dir: dir, JPEGQuality: 95}
}

// Save writes img as name inside the writer's directory and returns the
// absolute path of the written file.
func (w *ArtifactWriter) Save(name string, img image.Image) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.Dir, name)
	quality := w.JPEGQuality
	if quality <= 0 {
		quality = 95
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// ArtifactName turns a figure title into a PNG file name:
// "Helmet BBox" -> "helmet_bbox.png".
func ArtifactName(title string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(title), " ", "_")) + ".png"
}

package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropResult contains an encoded image returned to protocol clients.
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// PadRect expands r by pad pixels on every side and clips it to bounds.
// The result may be empty if r lies entirely outside bounds.
func PadRect(r image.Rectangle, pad int, bounds image.Rectangle) image.Rectangle {
	return r.Inset(-pad).Intersect(bounds)
}

// Letterbox scales img uniformly so its longer side equals target, using
// Lanczos resampling, and centres it on a target x target canvas filled with bg.
//
// The returned image always measures exactly target x target. The shorter side
// is rounded to the nearest pixel and never drops below 1.
func Letterbox(img image.Image, target int, bg color.Color) (*image.NRGBA, error) {
	if target <= 0 {
		return nil, fmt.Errorf("invalid letterbox size %d", target)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("cannot letterbox empty image")
	}

	long := w
	if h > long {
		long = h
	}
	nw := (w*target + long/2) / long
	nh := (h*target + long/2) / long
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	resized := imaging.Resize(img, nw, nh, imaging.Lanczos)
	canvas := imaging.New(target, target, bg)
	return imaging.Paste(canvas, resized, image.Pt((target-nw)/2, (target-nh)/2)), nil
}

// Normalize crops r (expanded by pad and clipped to the image) out of img and
// letterboxes the crop to a target x target square.
//
// r is relative to the image's top-left corner, the convention of the
// detector boxes, so it is shifted by img.Bounds().Min before cropping.
func Normalize(img image.Image, r image.Rectangle, pad, target int, bg color.Color) (*image.NRGBA, error) {
	b := img.Bounds()
	region := PadRect(r.Add(b.Min), pad, b)
	if region.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	return Letterbox(imaging.Crop(img, region), target, bg)
}

// EncodePNGBase64 encodes img as PNG and wraps it in a CropResult.
func EncodePNGBase64(img image.Image) (*CropResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &CropResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

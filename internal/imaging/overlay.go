package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Canvas returns a mutable NRGBA copy of img for drawing overlays onto.
func Canvas(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// ParseColor parses a hex color string like "#00FF00", "00ff00" or "#0f0".
// The result is fully opaque.
func ParseColor(hex string) (color.NRGBA, error) {
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(strings.ToLower(hex))
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// DrawRect outlines r on dst with lines of the given thickness drawn inward
// from the rectangle edges. Pixels outside dst are skipped.
func DrawRect(dst draw.Image, r image.Rectangle, c color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	r = r.Canon()
	fill := func(rr image.Rectangle) {
		rr = rr.Intersect(dst.Bounds())
		if !rr.Empty() {
			draw.Draw(dst, rr, image.NewUniform(c), image.Point{}, draw.Src)
		}
	}
	fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness))
	fill(image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y))
	fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y))
	fill(image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y))
}

// DrawDisc fills a disc of the given radius centred on p.
func DrawDisc(dst draw.Image, p image.Point, radius int, c color.Color) {
	bounds := dst.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			q := image.Pt(p.X+dx, p.Y+dy)
			if q.In(bounds) {
				dst.Set(q.X, q.Y, c)
			}
		}
	}
}

// DrawPoints marks every point with a size x size square.
func DrawPoints(dst draw.Image, pts []image.Point, c color.Color, size int) {
	if size < 1 {
		size = 1
	}
	bounds := dst.Bounds()
	for _, p := range pts {
		for dy := 0; dy < size; dy++ {
			for dx := 0; dx < size; dx++ {
				q := image.Pt(p.X+dx, p.Y+dy)
				if q.In(bounds) {
					dst.Set(q.X, q.Y, c)
				}
			}
		}
	}
}

// labelFace is the embedded bitmap face used for overlay labels.
var labelFace = basicfont.Face7x13

// LabelHeight is the height in pixels of a label drawn at the given scale.
func LabelHeight(scale int) int {
	return labelFace.Metrics().Height.Ceil() * max(scale, 1)
}

// LabelWidth is the width in pixels of text drawn at the given scale.
func LabelWidth(text string, scale int) int {
	return font.MeasureString(labelFace, text).Ceil() * max(scale, 1)
}

// DrawLabel draws text in the 7x13 basic font with its top-left corner at
// (x, y). Each font pixel becomes a scale x scale block. Runes the face has
// no glyph for are skipped.
func DrawLabel(dst draw.Image, x, y int, text string, fg color.Color, scale int) {
	scale = max(scale, 1)
	w := font.MeasureString(labelFace, text).Ceil()
	h := labelFace.Metrics().Height.Ceil()
	if w <= 0 || h <= 0 {
		return
	}

	glyphs := image.NewNRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(fg),
		Face: labelFace,
		Dot:  fixed.P(0, labelFace.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	var label image.Image = glyphs
	if scale > 1 {
		label = imaging.Resize(glyphs, w*scale, h*scale, imaging.NearestNeighbor)
	}
	r := image.Rect(x, y, x+w*scale, y+h*scale)
	draw.Draw(dst, r, label, image.Point{}, draw.Over)
}

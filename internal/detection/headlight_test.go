package detection

import (
	"image"
	"testing"
)

func spotsImage() *image.RGBA {
	img := createRectImage(200, 100, image.Rect(30, 40, 50, 60), 255, 0)
	for y := 40; y < 60; y++ {
		for x := 150; x < 170; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 255, 255, 255
		}
	}
	return img
}

func TestDetectHeadlights_TwoSpots(t *testing.T) {
	res := DetectHeadlights(spotsImage(), DefaultHeadlightConfig())

	if res.ContourCount != 2 {
		t.Fatalf("contours: got %d, want 2", res.ContourCount)
	}
	if len(res.Centroids) != 2 {
		t.Fatalf("centroids: got %d, want 2", len(res.Centroids))
	}

	want := []Point{{40, 50}, {160, 50}}
	for i, p := range res.Centroids {
		if absInt(p.X-want[i].X) > 2 || absInt(p.Y-want[i].Y) > 2 {
			t.Errorf("centroid %d: got %+v, want about %+v", i, p, want[i])
		}
	}
	if res.Gray == nil || res.Blurred == nil || res.Binary == nil {
		t.Error("stage images should be kept")
	}
}

func TestDetectHeadlights_HoleIsAContour(t *testing.T) {
	img := createRectImage(100, 100, image.Rect(20, 20, 80, 80), 255, 0)
	for y := 40; y < 60; y++ {
		for x := 40; x < 60; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 0, 0, 0
		}
	}

	res := DetectHeadlights(img, DefaultHeadlightConfig())
	if res.ContourCount != 2 {
		t.Fatalf("ring should yield outer and hole contours, got %d", res.ContourCount)
	}
	for _, p := range res.Centroids {
		if absInt(p.X-49) > 2 || absInt(p.Y-49) > 2 {
			t.Errorf("centroid %+v should sit at the ring center", p)
		}
	}
}

func TestDetectHeadlights_Cap(t *testing.T) {
	cfg := DefaultHeadlightConfig()
	cfg.MaxCentroids = 1

	res := DetectHeadlights(spotsImage(), cfg)
	if res.ContourCount != 2 || len(res.AllCentroids) != 2 {
		t.Fatalf("cap must not change detection: %d contours, %d centroids", res.ContourCount, len(res.AllCentroids))
	}
	if len(res.Centroids) != 1 || res.Centroids[0] != res.AllCentroids[0] {
		t.Errorf("reported centroids should be the first one only, got %+v", res.Centroids)
	}
}

func TestDetectHeadlights_Dark(t *testing.T) {
	img := createRectImage(64, 64, image.Rect(10, 10, 30, 30), 150, 0)

	res := DetectHeadlights(img, DefaultHeadlightConfig())
	if res.ContourCount != 0 {
		t.Errorf("pixels at the threshold are not bright, got %d contours", res.ContourCount)
	}
	if res.Centroids == nil {
		t.Error("centroids should be an empty list, not nil")
	}
}

func TestHeadlightConfig_Validate(t *testing.T) {
	if err := DefaultHeadlightConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	tests := []struct {
		name string
		cfg  HeadlightConfig
	}{
		{"blur kernel", HeadlightConfig{BlurKernel: 0, Threshold: 150}},
		{"negative threshold", HeadlightConfig{BlurKernel: 15, Threshold: -1}},
		{"threshold above 255", HeadlightConfig{BlurKernel: 15, Threshold: 256}},
		{"negative cap", HeadlightConfig{BlurKernel: 15, Threshold: 150, MaxCentroids: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

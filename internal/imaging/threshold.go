package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
)

// OtsuLevel computes Otsu's threshold for a grayscale image.
//
// The level is the intensity t that maximises the between-class variance of
// the two classes {v <= t} and {v > t}. An image with a single intensity has no
// separable classes and yields 0.
func OtsuLevel(gray *image.Gray) uint8 {
	bins := histogram.NewRGBAHistogram(gray).R.Bins

	total := 0
	var sum float64
	for i, n := range bins {
		total += n
		sum += float64(i * n)
	}
	if total == 0 {
		return 0
	}

	var (
		sumB       float64
		weightB    int
		maxBetween float64
		level      int
	)
	for t := 0; t < len(bins); t++ {
		weightB += bins[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * bins[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > maxBetween {
			maxBetween = between
			level = t
		}
	}
	return uint8(level)
}

// Threshold binarises a grayscale image: pixels strictly above level become 255,
// everything else 0.
func Threshold(gray *image.Gray, level uint8) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if gray.Pix[y*gray.Stride+x] > level {
				dst.Pix[y*dst.Stride+x] = 0xFF
			}
		}
	}
	return dst
}

// OtsuThreshold binarises a grayscale image at its Otsu level and returns the
// binary image together with the level used.
func OtsuThreshold(gray *image.Gray) (*image.Gray, uint8) {
	level := OtsuLevel(gray)
	return Threshold(gray, level), level
}

// MedianFilter replaces every pixel with the median of its ksize x ksize
// neighbourhood. It removes isolated speckle from binary masks while keeping
// the outline of large shapes.
func MedianFilter(gray *image.Gray, ksize int) *image.Gray {
	if ksize <= 1 || gray.Bounds().Empty() {
		return cloneGray(gray)
	}
	return rgbaToGray(effect.Median(gray, float64(ksize/2)))
}

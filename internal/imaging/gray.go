package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
)

// ToGray converts an image to 8-bit luminance using ITU-R BT.601 weights
// (0.299*R + 0.587*G + 0.114*B).
//
// The result is always anchored at the origin: pixel (0,0) of the returned image
// is the top-left pixel of img regardless of img.Bounds().Min. Every later stage
// relies on that, so callers should go through ToGray before any other
// operation in this package.
func ToGray(img image.Image) *image.Gray {
	lum := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	return rgbaToGray(lum)
}

// GaussianBlur smooths a grayscale image with a separable ksize x ksize Gaussian
// kernel.
//
// A sigma <= 0 is derived from the kernel size using the usual rule
// sigma = 0.3*((ksize-1)*0.5 - 1) + 0.8. An even ksize is bumped to the next odd
// value; ksize <= 0 is derived from sigma (2*ceil(3*sigma)+1). Borders replicate
// the edge pixels.
func GaussianBlur(gray *image.Gray, ksize int, sigma float64) *image.Gray {
	if ksize <= 0 {
		if sigma <= 0 {
			return cloneGray(gray)
		}
		ksize = 2*int(math.Ceil(3*sigma)) + 1
	}
	if ksize%2 == 0 {
		ksize++
	}
	if ksize == 1 || gray.Bounds().Empty() {
		return cloneGray(gray)
	}
	if sigma <= 0 {
		sigma = 0.3*(float64(ksize-1)*0.5-1) + 0.8
	}

	k := convolution.NewKernel(ksize, 1)
	r := ksize / 2
	for i := 0; i < ksize; i++ {
		d := float64(i - r)
		k.Matrix[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
	}
	normK := k.Normalized()

	// A 0.5 bias turns the convolution's truncation into rounding.
	opts := convolution.Options{Bias: 0.5, Wrap: false, KeepAlpha: true}
	result := convolution.Convolve(gray, normK, &opts)
	result = convolution.Convolve(result, normK.Transposed(), &opts)

	return rgbaToGray(result)
}

// GrayAt returns the luminance at (x, y), clamping coordinates to the image.
func GrayAt(gray *image.Gray, x, y int) uint8 {
	b := gray.Bounds()
	x = clamp(x, 0, b.Dx()-1)
	y = clamp(y, 0, b.Dy()-1)
	return gray.Pix[y*gray.Stride+x]
}

// rgbaToGray takes the red channel of an RGBA image whose channels are already
// equal (output of bild grayscale and convolution on gray input).
func rgbaToGray(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcRow := y * src.Stride
		dstRow := y * dst.Stride
		for x := 0; x < w; x++ {
			dst.Pix[dstRow+x] = src.Pix[srcRow+x*4]
		}
	}
	return dst
}

func cloneGray(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], src.Pix[y*src.Stride:y*src.Stride+b.Dx()])
	}
	return dst
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

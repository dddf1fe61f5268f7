// Package imaging provides the image processing stages used by the detectors.
//
// Every function here is a pure transformation: it reads its input and returns
// a newly allocated image. Nothing is modified in place, so the same decoded
// image can be shared between goroutines and reused across pipeline runs.
//
// # Stages
//
//   - ToGray: BT.601 luminance, anchored at the origin
//   - GaussianBlur: separable Gaussian smoothing with an explicit kernel size
//   - OtsuThreshold / Threshold: automatic or fixed binarisation
//   - MedianFilter: speckle removal on binary masks
//   - Canny: thinned edges plus Sobel gradients
//   - Normalize / Letterbox: pad, crop, Lanczos resize and centre on a square
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Grayscale stages assume the origin-anchored images produced by ToGray.
//
// # Artifacts
//
// ArtifactWriter and the overlay helpers (DrawRect, DrawLabel, DrawDisc,
// DrawPoints) produce the diagnostic images written next to detector results.
// Overlays are drawn onto a Canvas copy, never onto the source image.
package imaging

// Package detection implements the heuristic region detectors.
//
// # Helmet Region Locator
//
// Locator turns a color image into at most one bounding box. The pipeline is
// linear:
//
//  1. Grayscale + Gaussian blur (9x9, sigma 2)
//  2. Hough circle search on the blurred image
//  3. Otsu threshold, median filter and external contours, only when the
//     circle search found nothing
//  4. Selection by an ordered list of strategies; the first proposal wins:
//     top-circle, largest-circle, top-contour
//
// A "top region" candidate has its center (circles) or centroid (contours)
// above int(height * TopRegionFraction). Boxes are clipped to the image, so a
// found box always satisfies 0 <= X1 < X2 <= width and 0 <= Y1 < Y2 <= height.
// Finding nothing is not an error: Result.Found is false.
//
// # Headlight Detector
//
// DetectHeadlights binarises a heavily blurred image at a fixed level and
// reports the centroid of every contour, holes included.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// # Performance Considerations
//
// The Hough stage casts one vote per edge pixel per radius step, so its cost
// grows with edge density and with MaxRadius. Leaving MaxRadius at 0 searches
// up to the larger image dimension; cap it for large photos when the target
// size is known.
package detection

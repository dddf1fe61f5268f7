package detection

import (
	"image"
	"testing"
)

func TestFindContours_Rectangle(t *testing.T) {
	bin := binaryImage(120, 120, []image.Rectangle{image.Rect(20, 10, 80, 90)}, nil)

	contours := FindContours(bin, External)
	if len(contours) != 1 {
		t.Fatalf("got %d contours, want 1", len(contours))
	}
	c := contours[0]

	// Polygon through the boundary pixel centers: 59 x 79.
	if c.Area() != 4661 {
		t.Errorf("area: got %v, want 4661", c.Area())
	}
	centroid, ok := c.Centroid()
	if !ok {
		t.Fatal("rectangle must have a centroid")
	}
	if centroid != (Point{49, 49}) {
		t.Errorf("centroid: got %+v, want (49,49)", centroid)
	}
	if bb := c.BoundingBox(); bb != (Box{20, 10, 80, 90}) {
		t.Errorf("bounding box: got %+v", bb)
	}
	if len(c.ImagePoints()) != len(c.Points) {
		t.Error("ImagePoints should convert every point")
	}
}

func TestFindContours_BoundaryOnly(t *testing.T) {
	bin := binaryImage(30, 30, []image.Rectangle{image.Rect(5, 5, 15, 15)}, nil)
	c := FindContours(bin, External)[0]

	// A 10x10 square has 36 boundary pixels, each visited once.
	if len(c.Points) != 36 {
		t.Errorf("boundary length: got %d, want 36", len(c.Points))
	}
	seen := map[Point]bool{}
	for _, p := range c.Points {
		if p.X > 5 && p.X < 14 && p.Y > 5 && p.Y < 14 {
			t.Errorf("interior pixel %+v on boundary", p)
		}
		if seen[p] {
			t.Errorf("pixel %+v visited twice", p)
		}
		seen[p] = true
	}
}

func TestFindContours_Degenerate(t *testing.T) {
	bin := binaryImage(20, 20, []image.Rectangle{
		image.Rect(3, 3, 4, 4),    // single pixel
		image.Rect(8, 10, 15, 11), // horizontal line
	}, nil)

	contours := FindContours(bin, External)
	if len(contours) != 2 {
		t.Fatalf("got %d contours, want 2", len(contours))
	}
	for i, c := range contours {
		if _, ok := c.Centroid(); ok {
			t.Errorf("contour %d: zero-area contour must not have a centroid", i)
		}
		if c.Area() != 0 {
			t.Errorf("contour %d: area %v, want 0", i, c.Area())
		}
	}
	if bb := contours[0].BoundingBox(); bb != (Box{3, 3, 4, 4}) {
		t.Errorf("pixel bounding box: got %+v", bb)
	}
}

func TestFindContours_ExternalVsAll(t *testing.T) {
	// A frame with a hole, and a blob floating inside the hole.
	bin := binaryImage(100, 100,
		[]image.Rectangle{image.Rect(20, 20, 80, 80)},
		[]image.Rectangle{image.Rect(35, 35, 65, 65)},
	)
	for y := 45; y < 55; y++ {
		for x := 45; x < 55; x++ {
			bin.Pix[y*bin.Stride+x] = 255
		}
	}

	external := FindContours(bin, External)
	if len(external) != 1 {
		t.Fatalf("External: got %d contours, want 1", len(external))
	}
	if bb := external[0].BoundingBox(); bb != (Box{20, 20, 80, 80}) {
		t.Errorf("External box: got %+v", bb)
	}

	all := FindContours(bin, AllContours)
	if len(all) != 3 {
		t.Fatalf("AllContours: got %d contours, want 3 (frame, blob, hole)", len(all))
	}
	for i, c := range all {
		p, ok := c.Centroid()
		if !ok {
			t.Errorf("contour %d has no centroid", i)
			continue
		}
		if absInt(p.X-49) > 1 || absInt(p.Y-49) > 1 {
			t.Errorf("contour %d: centroid %+v, want about (49,49)", i, p)
		}
	}
}

func TestFindContours_BorderTouching(t *testing.T) {
	bin := binaryImage(40, 40, []image.Rectangle{image.Rect(0, 0, 40, 10)}, nil)
	contours := FindContours(bin, External)
	if len(contours) != 1 {
		t.Fatalf("got %d contours, want 1", len(contours))
	}
	if bb := contours[0].BoundingBox(); bb != (Box{0, 0, 40, 10}) {
		t.Errorf("box: got %+v", bb)
	}
}

func TestFindContours_DiagonalConnectivity(t *testing.T) {
	bin := binaryImage(10, 10, []image.Rectangle{
		image.Rect(2, 2, 4, 4),
		image.Rect(4, 4, 6, 6),
	}, nil)
	if got := len(FindContours(bin, External)); got != 1 {
		t.Errorf("diagonally touching squares: got %d contours, want 1", got)
	}
}

func TestFindContours_Empty(t *testing.T) {
	if got := FindContours(binaryImage(10, 10, nil, nil), AllContours); len(got) != 0 {
		t.Errorf("blank mask: got %d contours", len(got))
	}
	if got := FindContours(image.NewGray(image.Rect(0, 0, 0, 0)), External); got != nil {
		t.Errorf("empty image: got %v", got)
	}
}

func TestContour_MomentsOrientation(t *testing.T) {
	cw := rectContour(0, 0, 10, 20)
	ccw := Contour{Points: []Point{{0, 0}, {0, 20}, {10, 20}, {10, 0}}}

	if cw.Moments().M00 != -ccw.Moments().M00 {
		t.Error("reversing the traversal should flip the sign of m00")
	}
	if cw.Area() != 200 || ccw.Area() != 200 {
		t.Errorf("area: got %v and %v, want 200", cw.Area(), ccw.Area())
	}
	p1, _ := cw.Centroid()
	p2, _ := ccw.Centroid()
	if p1 != p2 || p1 != (Point{5, 10}) {
		t.Errorf("centroids: got %+v and %+v, want (5,10)", p1, p2)
	}
}

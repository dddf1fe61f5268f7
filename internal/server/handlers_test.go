package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImageFile writes img as PNG into dir and returns its path.
func createTestImageFile(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// helmetImage is a light disc on a dark background.
func helmetImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			dx, dy := x-100, y-80
			if dx*dx+dy*dy <= 50*50 {
				img.Set(x, y, color.RGBA{210, 210, 210, 255})
			} else {
				img.Set(x, y, color.RGBA{15, 15, 15, 255})
			}
		}
	}
	return img
}

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// callTool sends a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatal(err)
	}
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeContent unpacks the JSON text payload of a tool response into v.
func decodeContent(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %#v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result: %v\n%s", err, text)
	}
}

func TestHandleToolsCall_HelmetLocate(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, t.TempDir(), "rider.png", helmetImage())
	out := t.TempDir()

	resp := callTool(t, s, "helmet_locate", map[string]interface{}{"path": path, "output_dir": out})

	var rep struct {
		Found    bool   `json:"found"`
		Strategy string `json:"strategy"`
		Result   string `json:"result"`
		Box      *struct {
			X1, Y1, X2, Y2 int
		} `json:"box"`
	}
	decodeContent(t, resp, &rep)

	if !rep.Found || rep.Box == nil {
		t.Fatal("expected a helmet region")
	}
	if rep.Strategy == "" {
		t.Error("strategy should be reported")
	}
	if filepath.Dir(rep.Result) != out {
		t.Errorf("result %s not written into %s", rep.Result, out)
	}
}

func TestHandleToolsCall_HelmetLocate_DefaultOutputDir(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, t.TempDir(), "blank.png", solidImage(60, 40, color.Black))

	resp := callTool(t, s, "helmet_locate", map[string]interface{}{"path": path})

	var rep struct {
		Found     bool   `json:"found"`
		OutputDir string `json:"output_dir"`
	}
	decodeContent(t, resp, &rep)

	if rep.Found {
		t.Error("blank image should not yield a region")
	}
	root := s.runner.Config().Output.Dir
	if filepath.Dir(rep.OutputDir) != root {
		t.Errorf("output dir %s should be a run directory under %s", rep.OutputDir, root)
	}
	if _, err := os.Stat(filepath.Join(rep.OutputDir, "helmet_not_found.png")); err != nil {
		t.Errorf("expected not-found overlay: %v", err)
	}
}

func TestHandleToolsCall_HelmetCrop(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, t.TempDir(), "rider.png", helmetImage())

	resp := callTool(t, s, "helmet_crop", map[string]interface{}{"path": path})

	var res HelmetCropResult
	decodeContent(t, resp, &res)

	if !res.Found || res.Crop == nil {
		t.Fatal("expected a crop")
	}
	if res.Crop.Width != 512 || res.Crop.Height != 512 {
		t.Errorf("crop size: got %dx%d, want 512x512", res.Crop.Width, res.Crop.Height)
	}
	if res.Crop.MimeType != "image/png" {
		t.Errorf("mime type: got %s", res.Crop.MimeType)
	}

	data, err := base64.StdEncoding.DecodeString(res.Crop.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	if img.Bounds().Dx() != 512 || img.Bounds().Dy() != 512 {
		t.Errorf("decoded size: got %v", img.Bounds().Size())
	}
}

func TestHandleToolsCall_HelmetCrop_NotFound(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, t.TempDir(), "blank.png", solidImage(60, 40, color.Black))

	resp := callTool(t, s, "helmet_crop", map[string]interface{}{"path": path})

	var res HelmetCropResult
	decodeContent(t, resp, &res)
	if res.Found || res.Crop != nil || res.Box != nil {
		t.Errorf("expected empty not-found result, got %+v", res)
	}
}

func TestHandleToolsCall_HeadlightDetect(t *testing.T) {
	s := newTestServer(t)
	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.Black)
		}
	}
	for y := 30; y < 50; y++ {
		for x := 50; x < 70; x++ {
			img.Set(x, y, color.White)
		}
	}
	path := createTestImageFile(t, t.TempDir(), "lamp.png", img)
	out := t.TempDir()

	resp := callTool(t, s, "headlight_detect", map[string]interface{}{"path": path, "output_dir": out})

	var rep struct {
		ContourCount int `json:"num_contours"`
		Centroids    []struct {
			X, Y int
		} `json:"centroids"`
	}
	decodeContent(t, resp, &rep)

	if rep.ContourCount != 1 || len(rep.Centroids) != 1 {
		t.Fatalf("got %d contours and %d centroids, want 1 and 1", rep.ContourCount, len(rep.Centroids))
	}
	if _, err := os.Stat(filepath.Join(out, "lamp_contours.png")); err != nil {
		t.Errorf("expected contour overlay: %v", err)
	}
}

func TestHandleToolsCall_SingleImageToolsReleaseCache(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	rider := createTestImageFile(t, dir, "rider.png", helmetImage())
	blank := createTestImageFile(t, dir, "blank.png", solidImage(64, 64, color.Black))

	calls := []struct {
		tool string
		path string
	}{
		{"helmet_locate", rider},
		{"helmet_crop", rider},
		{"helmet_crop", blank},
		{"headlight_detect", rider},
	}
	for _, c := range calls {
		resp := callTool(t, s, c.tool, map[string]interface{}{"path": c.path, "output_dir": t.TempDir()})
		if resp.Error != nil {
			t.Fatalf("%s failed: %+v", c.tool, resp.Error)
		}
		if n := s.runner.Cache().Len(); n != 0 {
			t.Errorf("%s on %s left %d cached images", c.tool, filepath.Base(c.path), n)
		}
	}
}

func TestHandleToolsCall_HeadlightBatch(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	createTestImageFile(t, dir, "a.png", solidImage(30, 30, color.Black))
	createTestImageFile(t, dir, "b.png", solidImage(30, 30, color.White))

	resp := callTool(t, s, "headlight_batch", map[string]interface{}{"dir": dir, "output_dir": t.TempDir()})

	var rep struct {
		Processed int `json:"processed"`
		Failed    int `json:"failed"`
		Items     []struct {
			Image string `json:"image"`
		} `json:"items"`
	}
	decodeContent(t, resp, &rep)

	if rep.Processed != 2 || rep.Failed != 0 || len(rep.Items) != 2 {
		t.Errorf("unexpected batch summary: %+v", rep)
	}
}

func TestHandleToolsCall_HelmetBatch_EmptyFolder(t *testing.T) {
	s := newTestServer(t)

	resp := callTool(t, s, "helmet_batch", map[string]interface{}{"dir": t.TempDir()})

	if resp.Error == nil {
		t.Fatal("expected error for folder without images")
	}
	if resp.Error.Code != codeToolFailed {
		t.Errorf("error code: got %d, want %d", resp.Error.Code, codeToolFailed)
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		tool     string
		args     map[string]interface{}
		wantText string
	}{
		{"unknown tool", "image_ocr_full", map[string]interface{}{"path": "/x.png"}, "unknown tool"},
		{"missing path", "helmet_locate", map[string]interface{}{}, "path is required"},
		{"missing dir", "headlight_batch", map[string]interface{}{}, "dir is required"},
		{"missing image", "helmet_crop", map[string]interface{}{"path": filepath.Join(t.TempDir(), "nope.png")}, "image not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.args)
			if resp.Error == nil {
				t.Fatal("expected error response")
			}
			if resp.Error.Code != codeToolFailed {
				t.Errorf("error code: got %d, want %d", resp.Error.Code, codeToolFailed)
			}
			data, _ := resp.Error.Data.(string)
			if !strings.Contains(data, tt.wantText) {
				t.Errorf("error data %q should mention %q", data, tt.wantText)
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      7,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})

	if resp == nil || resp.Error == nil {
		t.Fatal("expected error response")
	}
	if resp.Error.Code != codeInvalidParams {
		t.Errorf("error code: got %d, want %d", resp.Error.Code, codeInvalidParams)
	}
}

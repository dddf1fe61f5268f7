package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ironsheep/helmet-locator/internal/detection"
	"github.com/ironsheep/helmet-locator/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "helmet_locate", "headlight_batch").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Printf("Tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "helmet_locate":
		return s.handleHelmetLocate(args)
	case "helmet_crop":
		return s.handleHelmetCrop(args)
	case "helmet_batch":
		return s.handleHelmetBatch(ctx, args)
	case "headlight_detect":
		return s.handleHeadlightDetect(args)
	case "headlight_batch":
		return s.handleHeadlightBatch(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// outputDir returns dir, or a new uuid-named run directory under the
// configured output root when dir is empty.
func (s *Server) outputDir(dir string) string {
	if dir != "" {
		return dir
	}
	return filepath.Join(s.runner.Config().Output.Dir, uuid.NewString())
}

func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Helmet Handlers ===

type imageArgs struct {
	Path      string `json:"path"`
	OutputDir string `json:"output_dir"`
}

func (a imageArgs) validate() error {
	if a.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

type folderArgs struct {
	Dir       string `json:"dir"`
	OutputDir string `json:"output_dir"`
}

func (a folderArgs) validate() error {
	if a.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	return nil
}

func (s *Server) handleHelmetLocate(args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	defer s.release(a.Path)
	return s.runner.Helmet(a.Path, s.outputDir(a.OutputDir))
}

// HelmetCropResult is returned by helmet_crop.
type HelmetCropResult struct {
	Found    bool                `json:"found"`
	Strategy string              `json:"strategy,omitempty"`
	Box      *detection.Box      `json:"box,omitempty"`
	Crop     *imaging.CropResult `json:"crop,omitempty"`
}

func (s *Server) handleHelmetCrop(args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}

	defer s.release(a.Path)
	img, res, err := s.runner.NormalizedCrop(a.Path)
	if err != nil {
		return nil, err
	}
	out := &HelmetCropResult{Found: res.Found}
	if !res.Found {
		return out, nil
	}
	box := res.Box
	out.Strategy = res.Strategy
	out.Box = &box
	out.Crop, err = imaging.EncodePNGBase64(img)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Server) handleHelmetBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a folderArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return s.runner.HelmetBatch(ctx, a.Dir, s.outputDir(a.OutputDir))
}

// release drops a decoded image once a single-image tool call is done, so a
// long session does not keep every image it has seen in memory.
func (s *Server) release(path string) {
	s.runner.Cache().Evict(path)
}

// === Headlight Handlers ===

func (s *Server) handleHeadlightDetect(args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	defer s.release(a.Path)
	return s.runner.Headlight(a.Path, s.outputDir(a.OutputDir))
}

func (s *Server) handleHeadlightBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a folderArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return s.runner.HeadlightBatch(ctx, a.Dir, s.outputDir(a.OutputDir))
}

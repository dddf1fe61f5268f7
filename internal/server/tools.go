package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func outputDirProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Directory for the written artifacts. Defaults to a fresh run directory under the configured output dir.",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Helmet Region Locator
		{
			Name:        "helmet_locate",
			Description: "Locate the single region most likely to contain a motorcycle helmet (circle search with a contour fallback), write the diagnostic images and the normalised 512x512 crop, and return the run report.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty(),
					"output_dir": outputDirProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "helmet_crop",
			Description: "Locate the helmet region and return the padded, letterboxed crop as base64-encoded PNG without writing any files. Returns found=false when no region qualifies.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "helmet_batch",
			Description: "Run the helmet locator on every image in a folder (non-recursive). Each image gets its own subdirectory; failures are reported per image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image folder",
					},
					"output_dir": outputDirProperty(),
				},
				"required": []string{"dir"},
			},
		},

		// Headlight Detector
		{
			Name:        "headlight_detect",
			Description: "Find bright blobs (fixed threshold after heavy blur), write gray/blur/thresh/contours images and return the contour count and centroids.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty(),
					"output_dir": outputDirProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "headlight_batch",
			Description: "Run the headlight detector on every image in a folder (non-recursive) and return the per-image reports.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image folder",
					},
					"output_dir": outputDirProperty(),
				},
				"required": []string{"dir"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

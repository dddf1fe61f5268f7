package server

import (
	"context"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"helmet_locate",
		"helmet_crop",
		"helmet_batch",
		"headlight_detect",
		"headlight_batch",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}
			required, ok := tool.InputSchema["required"].([]string)
			if !ok || len(required) == 0 {
				t.Fatal("InputSchema should list required fields")
			}
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("Required field %s has no property definition", r)
				}
			}
		})
	}
}

// Every tool a client can list must also be dispatchable.
func TestToolDefinitions_AllDispatchable(t *testing.T) {
	s := newTestServer(t)
	for _, tool := range GetToolDefinitions() {
		_, err := s.executeTool(context.Background(), tool.Name, []byte(`{}`))
		if err == nil {
			t.Errorf("%s: expected missing-argument error", tool.Name)
			continue
		}
		if err.Error() == "unknown tool: "+tool.Name {
			t.Errorf("%s is listed but not dispatched", tool.Name)
		}
	}
}

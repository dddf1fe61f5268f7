// Package server implements the MCP (Model Context Protocol) server for the
// helmet and headlight detectors.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Helmet Region Locator:
//   - helmet_locate: Locate the region, write artifacts, return the report
//   - helmet_crop: Return the normalised crop as base64 PNG
//   - helmet_batch: Locate over a folder
//
// Headlight Detector:
//   - headlight_detect: Bright-blob contours and centroids for one image
//   - headlight_batch: The same over a folder
//
// Tools that write files accept an optional output_dir. Without it every
// call gets its own directory, <output.dir>/<uuid>, so concurrent clients
// never overwrite each other's artifacts.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A locator run that finds nothing is not an error; the result reports
// found=false.
//
// # Usage
//
//	runner, err := pipeline.NewRunner(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(runner, logger)
//	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server

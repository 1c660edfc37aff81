// Package mcp exposes flint over the Model Context Protocol so agents can
// validate and run test specs.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with flint tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"flint",
		version,
		server.WithToolCapabilities(true),
	)

	// Register tools
	s.AddTool(
		mcp.NewTool("flint/validate",
			mcp.WithDescription("Validate a flint test spec JSON file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the test spec JSON file")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("flint/run",
			mcp.WithDescription("Run flint test specs against the in-memory adapter and return the summary"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to a test spec file or directory")),
			mcp.WithBoolean("recursive", mcp.Description("Descend into subdirectories when path is a directory")),
		),
		HandleRun,
	)

	s.AddTool(
		mcp.NewTool("flint/schema",
			mcp.WithDescription("Export the flint test spec JSON Schema (Draft 2020-12)"),
		),
		HandleSchema,
	)

	return s
}

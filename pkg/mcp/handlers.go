package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flintmc/flint/pkg/adapters/memory"
	"github.com/flintmc/flint/pkg/loader"
	"github.com/flintmc/flint/pkg/runner"
	"github.com/flintmc/flint/pkg/spec"
)

// HandleValidate implements the flint/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	ts, errs := spec.ValidateFile(path)
	if spec.HasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}
	return textResult(fmt.Sprintf("✓ %s is valid (%d timeline entries, max tick %d)",
		ts.Name, len(ts.Timeline), ts.MaxTick())), nil
}

// HandleRun implements the flint/run MCP tool. Runs always use the memory
// adapter; driving a live server from an agent is a CLI concern.
func HandleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	recursive, _ := args["recursive"].(bool)

	files, err := loader.CollectTestFiles(path, recursive)
	if err != nil {
		return errorResult(fmt.Sprintf("collect tests: %s", err)), nil
	}
	specs, err := loader.LoadSpecs(files)
	if err != nil {
		return errorResult(fmt.Sprintf("load tests: %s", err)), nil
	}

	summary := runner.RunTests(memory.New(), specs)

	data, _ := json.MarshalIndent(summary, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: !summary.AllPassed(),
	}, nil
}

// HandleSchema implements the flint/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := spec.GenerateJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

func formatErrors(errs []*spec.ValidationError) string {
	var msgs []string
	for _, e := range errs {
		if e.Severity == "error" {
			msgs = append(msgs, fmt.Sprintf("[%s] %s", e.Phase, e.Message))
		}
	}
	return strings.Join(msgs, "; ")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}

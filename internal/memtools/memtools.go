// Package memtools exposes memory review and context inspection as MCP tools
// for research staff. Every tool delegates to the engine, so clamping and
// event logging apply exactly as they do over HTTP.
package memtools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/qwerty1432/Memory-Research/internal/engine"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

// tool is one registered MCP tool.
type tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// NewServer creates the MCP server with every memory tool registered.
func NewServer(eng *engine.Engine, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"companion",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Inspect and curate participant memories of the companion study."),
	)

	for _, t := range []tool{
		NewListTool(eng),
		NewCandidatesTool(eng),
		NewApproveTool(eng),
		NewUpdateTool(eng),
		NewDeleteTool(eng),
		NewContextTool(eng),
	} {
		s.AddTool(t.Definition(), t.Handle)
	}
	return s
}

// boolArg extracts an optional boolean argument; ok is false when absent.
func boolArg(req mcp.CallToolRequest, key string) (v bool, ok bool) {
	v, ok = req.GetArguments()[key].(bool)
	return v, ok
}

// stringArg extracts an optional string argument; ok is false when absent.
func stringArg(req mcp.CallToolRequest, key string) (v string, ok bool) {
	v, ok = req.GetArguments()[key].(string)
	return v, ok
}

func formatMemories(mems []store.Memory) string {
	if len(mems) == 0 {
		return "No memories found."
	}
	var b strings.Builder
	for _, m := range mems {
		state := "candidate"
		if m.Active {
			state = "active"
		}
		fmt.Fprintf(&b, "[%s] %s (%s, %s)\n", m.ID, m.Text, state,
			time.UnixMilli(m.CreatedAt).UTC().Format(time.RFC3339))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMemory(verb string, m *store.Memory) string {
	state := "candidate"
	if m.Active {
		state = "active"
	}
	return fmt.Sprintf("%s memory %s (%s): %s", verb, m.ID, state, m.Text)
}

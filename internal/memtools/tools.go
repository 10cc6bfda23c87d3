package memtools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/qwerty1432/Memory-Research/internal/engine"
)

// ListTool handles memory_list.
type ListTool struct{ eng *engine.Engine }

// NewListTool creates a ListTool.
func NewListTool(eng *engine.Engine) *ListTool { return &ListTool{eng: eng} }

// Definition returns the MCP tool definition for memory_list.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_list",
		mcp.WithDescription("List every memory of a participant, newest first, optionally narrowed to one session."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Participant ID")),
		mcp.WithString("session_id", mcp.Description("Only memories bound to this session")),
	)
}

// Handle processes the memory_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}
	var sessionID *string
	if v, ok := stringArg(req, "session_id"); ok && v != "" {
		sessionID = &v
	}

	mems, err := t.eng.Memories(userID, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list memories: %v", err)), nil
	}
	return mcp.NewToolResultText(formatMemories(mems)), nil
}

// CandidatesTool handles memory_candidates.
type CandidatesTool struct{ eng *engine.Engine }

// NewCandidatesTool creates a CandidatesTool.
func NewCandidatesTool(eng *engine.Engine) *CandidatesTool { return &CandidatesTool{eng: eng} }

// Definition returns the MCP tool definition for memory_candidates.
func (t *CandidatesTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_candidates",
		mcp.WithDescription("List the unapproved memory candidates of one session."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Participant ID")),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	)
}

// Handle processes the memory_candidates tool call.
func (t *CandidatesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	sessionID := req.GetString("session_id", "")
	if userID == "" || sessionID == "" {
		return mcp.NewToolResultError("'user_id' and 'session_id' are required"), nil
	}

	mems, err := t.eng.Candidates(userID, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list candidates: %v", err)), nil
	}
	return mcp.NewToolResultText(formatMemories(mems)), nil
}

// ApproveTool handles memory_approve.
type ApproveTool struct{ eng *engine.Engine }

// NewApproveTool creates an ApproveTool.
func NewApproveTool(eng *engine.Engine) *ApproveTool { return &ApproveTool{eng: eng} }

// Definition returns the MCP tool definition for memory_approve.
func (t *ApproveTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_approve",
		mcp.WithDescription("Approve a memory candidate so it enters future context."),
		mcp.WithString("memory_id", mcp.Required(), mcp.Description("Memory ID")),
	)
}

// Handle processes the memory_approve tool call.
func (t *ApproveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("memory_id", "")
	if id == "" {
		return mcp.NewToolResultError("'memory_id' is required"), nil
	}

	m, err := t.eng.ApproveMemory(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to approve memory: %v", err)), nil
	}
	return mcp.NewToolResultText(formatMemory("Approved", m)), nil
}

// UpdateTool handles memory_update.
type UpdateTool struct{ eng *engine.Engine }

// NewUpdateTool creates an UpdateTool.
func NewUpdateTool(eng *engine.Engine) *UpdateTool { return &UpdateTool{eng: eng} }

// Definition returns the MCP tool definition for memory_update.
func (t *UpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_update",
		mcp.WithDescription("Edit a memory's text or toggle whether it is active. Text is capped at 200 characters."),
		mcp.WithString("memory_id", mcp.Required(), mcp.Description("Memory ID")),
		mcp.WithString("text", mcp.Description("Replacement text")),
		mcp.WithBoolean("is_active", mcp.Description("Whether the memory enters future context")),
	)
}

// Handle processes the memory_update tool call.
func (t *UpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("memory_id", "")
	if id == "" {
		return mcp.NewToolResultError("'memory_id' is required"), nil
	}

	var text *string
	if v, ok := stringArg(req, "text"); ok {
		text = &v
	}
	var active *bool
	if v, ok := boolArg(req, "is_active"); ok {
		active = &v
	}
	if text == nil && active == nil {
		return mcp.NewToolResultError("nothing to update: pass 'text' or 'is_active'"), nil
	}

	m, err := t.eng.UpdateMemory(id, text, active)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update memory: %v", err)), nil
	}
	return mcp.NewToolResultText(formatMemory("Updated", m)), nil
}

// DeleteTool handles memory_delete.
type DeleteTool struct{ eng *engine.Engine }

// NewDeleteTool creates a DeleteTool.
func NewDeleteTool(eng *engine.Engine) *DeleteTool { return &DeleteTool{eng: eng} }

// Definition returns the MCP tool definition for memory_delete.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_delete",
		mcp.WithDescription("Permanently delete a memory."),
		mcp.WithString("memory_id", mcp.Required(), mcp.Description("Memory ID")),
	)
}

// Handle processes the memory_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("memory_id", "")
	if id == "" {
		return mcp.NewToolResultError("'memory_id' is required"), nil
	}
	if err := t.eng.DeleteMemory(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete memory: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted memory %s", id)), nil
}

// ContextTool handles context_preview.
type ContextTool struct{ eng *engine.Engine }

// NewContextTool creates a ContextTool.
func NewContextTool(eng *engine.Engine) *ContextTool { return &ContextTool{eng: eng} }

// Definition returns the MCP tool definition for context_preview.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("context_preview",
		mcp.WithDescription("Show the context block the next turn of a session would send to the model, under the participant's current condition."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Participant ID")),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	)
}

// Handle processes the context_preview tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	sessionID := req.GetString("session_id", "")
	if userID == "" || sessionID == "" {
		return mcp.NewToolResultError("'user_id' and 'session_id' are required"), nil
	}

	text, err := t.eng.PreviewContext(userID, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build context: %v", err)), nil
	}
	if text == "" {
		return mcp.NewToolResultText("(empty context)"), nil
	}
	return mcp.NewToolResultText(text), nil
}

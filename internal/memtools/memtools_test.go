package memtools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwerty1432/Memory-Research/internal/engine"
	"github.com/qwerty1432/Memory-Research/internal/llm"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return engine.New(db, &llm.MockClient{Response: &llm.Response{Content: "None"}}, engine.WithTimeout(0))
}

// fixture registers a PERSISTENT_USER participant with one open session
// holding a single candidate.
func fixture(t *testing.T, eng *engine.Engine) (userID, sessionID, memoryID string) {
	t.Helper()
	u, err := eng.RegisterUser("alice", "PERSISTENT_USER")
	require.NoError(t, err)
	s, err := eng.StartSession(u.ID)
	require.NoError(t, err)
	m, err := eng.CreateMemory(u.ID, &s.ID, "User plays chess")
	require.NoError(t, err)
	return u.ID, s.ID, m.ID
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := h(context.Background(), makeReq(args))
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestDefinitions(t *testing.T) {
	eng := testEngine(t)

	cases := []struct {
		def      mcp.Tool
		name     string
		required []string
	}{
		{NewListTool(eng).Definition(), "memory_list", []string{"user_id"}},
		{NewCandidatesTool(eng).Definition(), "memory_candidates", []string{"user_id", "session_id"}},
		{NewApproveTool(eng).Definition(), "memory_approve", []string{"memory_id"}},
		{NewUpdateTool(eng).Definition(), "memory_update", []string{"memory_id"}},
		{NewDeleteTool(eng).Definition(), "memory_delete", []string{"memory_id"}},
		{NewContextTool(eng).Definition(), "context_preview", []string{"user_id", "session_id"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.name, c.def.Name)
		assert.ElementsMatch(t, c.required, c.def.InputSchema.Required, c.name)
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	s := NewServer(testEngine(t), "test")
	tools := s.ListTools()
	for _, name := range []string{"memory_list", "memory_candidates", "memory_approve", "memory_update", "memory_delete", "context_preview"} {
		assert.Contains(t, tools, name)
	}
}

func TestListAndCandidates(t *testing.T) {
	eng := testEngine(t)
	userID, sessionID, memoryID := fixture(t, eng)

	res := call(t, NewListTool(eng).Handle, map[string]any{"user_id": userID})
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(res), memoryID)
	assert.Contains(t, resultText(res), "candidate")

	res = call(t, NewListTool(eng).Handle, map[string]any{"user_id": userID, "session_id": "other"})
	assert.Equal(t, "No memories found.", resultText(res))

	res = call(t, NewCandidatesTool(eng).Handle, map[string]any{"user_id": userID, "session_id": sessionID})
	assert.Contains(t, resultText(res), "User plays chess")

	res = call(t, NewListTool(eng).Handle, map[string]any{})
	assert.True(t, res.IsError)

	res = call(t, NewListTool(eng).Handle, map[string]any{"user_id": "missing"})
	assert.True(t, res.IsError)
}

func TestApproveUpdateDelete(t *testing.T) {
	eng := testEngine(t)
	userID, sessionID, memoryID := fixture(t, eng)

	res := call(t, NewApproveTool(eng).Handle, map[string]any{"memory_id": memoryID})
	require.False(t, res.IsError, resultText(res))
	assert.Contains(t, resultText(res), "active")

	res = call(t, NewContextTool(eng).Handle, map[string]any{"user_id": userID, "session_id": sessionID})
	assert.Contains(t, resultText(res), "Memory: User plays chess")

	res = call(t, NewUpdateTool(eng).Handle, map[string]any{"memory_id": memoryID, "text": "User plays chess weekly", "is_active": false})
	require.False(t, res.IsError, resultText(res))
	m, err := eng.DB.GetMemory(memoryID)
	require.NoError(t, err)
	assert.Equal(t, "User plays chess weekly", m.Text)
	assert.False(t, m.Active)

	res = call(t, NewUpdateTool(eng).Handle, map[string]any{"memory_id": memoryID})
	assert.True(t, res.IsError)

	res = call(t, NewDeleteTool(eng).Handle, map[string]any{"memory_id": memoryID})
	require.False(t, res.IsError)
	m, err = eng.DB.GetMemory(memoryID)
	require.NoError(t, err)
	assert.Nil(t, m)

	res = call(t, NewDeleteTool(eng).Handle, map[string]any{"memory_id": memoryID})
	assert.True(t, res.IsError)
}

func TestContextPreviewEmpty(t *testing.T) {
	eng := testEngine(t)
	u, err := eng.RegisterUser("bob", "SESSION_AUTO")
	require.NoError(t, err)
	s, err := eng.StartSession(u.ID)
	require.NoError(t, err)

	res := call(t, NewContextTool(eng).Handle, map[string]any{"user_id": u.ID, "session_id": s.ID})
	assert.False(t, res.IsError)
	assert.Equal(t, "(empty context)", resultText(res))
}

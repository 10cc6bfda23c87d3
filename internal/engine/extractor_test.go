package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwerty1432/Memory-Research/internal/llm"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

func TestParseCandidates(t *testing.T) {
	raw := strings.Join([]string{
		"User likes hiking",
		"",
		"  User is studying at Purdue  ",
		"None",
		"NONE",
		"- User has a dog",
		"user lowercase is rejected",
		"The assistant thinks the user is tired",
		"User " + strings.Repeat("a", 300),
	}, "\n")

	got := ParseCandidates(raw)
	require.Len(t, got, 3)
	assert.Equal(t, "User likes hiking", got[0])
	assert.Equal(t, "User is studying at Purdue", got[1])
	assert.Equal(t, store.MaxMemoryRunes, utf8.RuneCountInString(got[2]))
}

func TestParseCandidatesNone(t *testing.T) {
	assert.Empty(t, ParseCandidates("None"))
	assert.Empty(t, ParseCandidates(""))
	assert.NotNil(t, ParseCandidates(""))
}

func TestExtractSendsOnlyRecentExisting(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "User moved to Oslo"}}
	x := &Extractor{LLM: mock}

	existing := make([]string, 25)
	for i := range existing {
		existing[i] = fmt.Sprintf("User fact %02d", i)
	}

	got, err := x.Extract(context.Background(), "I just moved to Oslo", existing)
	require.NoError(t, err)
	assert.Equal(t, []string{"User moved to Oslo"}, got)

	require.Len(t, mock.Calls, 1)
	req := mock.Calls[0]
	assert.Equal(t, 0.1, req.Temperature)
	assert.Equal(t, 200, req.MaxTokens)
	prompt := req.Messages[1].Content
	assert.Contains(t, prompt, "I just moved to Oslo")
	assert.Contains(t, prompt, "User fact 19")
	assert.NotContains(t, prompt, "User fact 20")
}

func TestExtractFailureYieldsEmpty(t *testing.T) {
	x := &Extractor{LLM: &llm.MockClient{Err: errors.New("gateway down")}}

	got, err := x.Extract(context.Background(), "I like tea", nil)
	assert.Error(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/qwerty1432/Memory-Research/internal/llm"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

// MaxExistingMemories caps how many known memories are listed in the
// extraction prompt as things not to repeat.
const MaxExistingMemories = 20

// candidatePrefix marks a line of extraction output as a memory.
const candidatePrefix = "User"

// Extractor turns a user's latest message into candidate memory texts.
type Extractor struct {
	LLM llm.Client
}

// Extract asks the model for facts stated in userMessage. existing is
// ordered newest first; only the first MaxExistingMemories are sent.
// On any generation failure it returns an empty slice with the error,
// which callers log and otherwise ignore.
func (x *Extractor) Extract(ctx context.Context, userMessage string, existing []string) ([]string, error) {
	if len(existing) > MaxExistingMemories {
		existing = existing[:MaxExistingMemories]
	}

	resp, err := x.LLM.Complete(ctx, llm.ExtractionRequest(userMessage, existing))
	if err != nil {
		return []string{}, fmt.Errorf("extract memories: %w", err)
	}
	if resp == nil {
		return []string{}, fmt.Errorf("extract memories: %w", llm.ErrEmptyResponse)
	}
	return ParseCandidates(resp.Content), nil
}

// ParseCandidates filters raw model output to candidate memories: one per
// line, trimmed, non-empty, not "none", starting with "User", clamped to
// the memory length limit.
func ParseCandidates(raw string) []string {
	candidates := []string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "none") {
			continue
		}
		if !strings.HasPrefix(line, candidatePrefix) {
			continue
		}
		candidates = append(candidates, store.ClampMemoryText(line))
	}
	return candidates
}

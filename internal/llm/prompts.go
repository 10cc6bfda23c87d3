package llm

import (
	"fmt"
	"strings"
)

// ChatSystemPrompt frames every companion reply.
const ChatSystemPrompt = "You are a friendly AI companion. Use the provided context to have a natural conversation."

// ExtractionSystemPrompt frames memory extraction calls.
const ExtractionSystemPrompt = "You are a memory extraction assistant. Extract ONLY factual information that the user explicitly stated. Do NOT extract from assistant responses or inferences."

// Generation parameters for the two kinds of calls.
const (
	ChatTemperature       = 0.7
	ExtractionTemperature = 0.1
	ExtractionMaxTokens   = 200
)

// ChatMessages builds the prompt for a companion reply. The assembled
// context, when non-blank, rides along as a second system message.
func ChatMessages(context, userMessage string) []Message {
	msgs := []Message{{Role: RoleSystem, Content: ChatSystemPrompt}}
	if strings.TrimSpace(context) != "" {
		msgs = append(msgs, Message{
			Role:    RoleSystem,
			Content: "Context from previous conversations:\n" + context,
		})
	}
	return append(msgs, Message{Role: RoleUser, Content: userMessage})
}

// ChatRequest wraps ChatMessages with the reply generation parameters.
func ChatRequest(context, userMessage string) Request {
	return Request{
		Messages:    ChatMessages(context, userMessage),
		Temperature: ChatTemperature,
	}
}

// ExtractionPrompt asks for new facts stated in userMessage, listing
// existing memories as things not to repeat. The caller bounds existing.
func ExtractionPrompt(userMessage string, existing []string) string {
	var known string
	if len(existing) > 0 {
		var sb strings.Builder
		sb.WriteString("\n\nExisting memories (DO NOT extract these again):")
		for _, mem := range existing {
			sb.WriteString("\n- ")
			sb.WriteString(mem)
		}
		known = sb.String()
	}

	return fmt.Sprintf(`You are a memory extraction assistant. Extract ONLY factual information that the USER explicitly stated in their message.

CRITICAL RULES:
1. Extract ONLY from the user's message below - ignore everything else
2. Do NOT extract information from assistant responses or anything the assistant inferred
3. Only extract if the information is NEW and explicitly stated by the user
4. Do NOT extract information that already exists in the existing memories list
5. Return "None" if no new information is present in the user's message
6. Extract only clear, factual statements about the user
7. Return each memory as a separate line, starting with "User" (e.g., "User mentioned liking hiking")

User's message:
%s%s

Extract memories (one per line, or "None" if nothing new):`, userMessage, known)
}

// ExtractionRequest builds the full extraction call.
func ExtractionRequest(userMessage string, existing []string) Request {
	return Request{
		Messages: []Message{
			{Role: RoleSystem, Content: ExtractionSystemPrompt},
			{Role: RoleUser, Content: ExtractionPrompt(userMessage, existing)},
		},
		Temperature: ExtractionTemperature,
		MaxTokens:   ExtractionMaxTokens,
	}
}

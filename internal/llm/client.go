package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/qwerty1432/Memory-Research/internal/config"
)

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse is returned when a provider answers without any content.
var ErrEmptyResponse = errors.New("empty response from provider")

// Message is one entry of a chat prompt.
type Message struct {
	Role    string
	Content string
}

// Request is a provider-neutral chat completion request.
// MaxTokens of zero leaves the provider default.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Client is the interface for text-generation providers.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	// Stream delivers the reply fragment by fragment to onToken and
	// returns the full text once the provider signals completion.
	Stream(ctx context.Context, req Request, onToken func(string)) (*Response, error)
}

// Response holds the result of a completion.
type Response struct {
	Content    string
	Provider   string
	TokensUsed int
}

// NewClient creates a client based on the config provider setting.
func NewClient(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "", "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires GENAI_API_KEY, OPENAI_API_KEY or llm.api_key")
		}
		model := cfg.Model
		if model == "" {
			model = "llama3.1:latest"
		}
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, model), nil
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY or config")
		}
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return NewAnthropic(cfg.AnthropicKey, model), nil
	case "ollama":
		url := cfg.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "llama3.2"
		}
		return NewOllama(url, model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}

// splitSystem separates system messages from the conversation for
// providers that take the system prompt out of band.
func splitSystem(msgs []Message) (system []string, rest []Message) {
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

package driven

import "context"

// LLMService provides language model operations for answer generation.
// This is an optional service - when nil, answers degrade gracefully to
// deterministic templates built from the retrieved data.
//
// Implementations may include:
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

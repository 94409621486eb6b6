package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned when a call is attempted without an API key.
var ErrNotConfigured = errors.New("llm client not configured")

// ErrEmptyReply is returned when the API answers without any choices.
var ErrEmptyReply = errors.New("llm returned no choices")

// Message is a minimal chat message used by the conversation engine.
// Role must be one of: "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Client turns a system instruction plus ordered history into one reply.
// Chat accepts the full message history (system + prior turns + latest user).
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Summarizer produces a clinician-facing summary from a prompt.
type Summarizer interface {
	Summarize(ctx context.Context, instruction, content string) (string, error)
}

// Options configures an OpenAIClient.  BaseURL may point at any
// OpenAI-compatible endpoint such as Groq.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAIClient calls an OpenAI-compatible chat completion API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// NewOpenAIClient constructs a client.  A missing API key does not fail
// construction; every call reports ErrNotConfigured instead so that the
// process keeps serving and users receive an apology.
func NewOpenAIClient(opts Options) *OpenAIClient {
	c := &OpenAIClient{
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		timeout:     opts.Timeout,
	}
	if opts.APIKey == "" {
		return c
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	c.client = openai.NewClientWithConfig(cfg)
	return c
}

// Configured reports whether an API key was supplied.
func (c *OpenAIClient) Configured() bool { return c.client != nil }

// Chat sends the message history to the chat completion API and returns the
// assistant's response.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return c.complete(ctx, oaMsgs)
}

// Summarize asks the model to apply instruction to content.
func (c *OpenAIClient) Summarize(ctx context.Context, instruction, content string) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}
	return c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: instruction},
		{Role: openai.ChatMessageRoleUser, Content: content},
	})
}

func (c *OpenAIClient) complete(ctx context.Context, msgs []openai.ChatCompletionMessage) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("chat completion: status %d: %w", apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}

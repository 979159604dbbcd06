package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// JSONSchema describes a strict structured-output contract.
type JSONSchema struct {
	Name   string
	Strict bool
	Schema map[string]any
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model

	// At most one of these is honoured; JSONSchema wins.
	JSONSchema *JSONSchema
	JSONObject bool
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithJSONSchema requests a response that validates against schema.
func WithJSONSchema(schema JSONSchema) Option {
	return func(o *Options) {
		o.JSONSchema = &schema
	}
}

// WithJSONObject requests free-form JSON without schema enforcement.
func WithJSONObject() Option {
	return func(o *Options) {
		o.JSONObject = true
	}
}

func NewOptions(defaults Options, opts ...Option) *Options {
	o := defaults
	for _, opt := range opts {
		opt(&o)
	}
	return &o
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// SupportsStrictSchema reports whether the configured model enforces
	// WithJSONSchema server-side.
	SupportsStrictSchema() bool
}

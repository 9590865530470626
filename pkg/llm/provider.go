package llm

import (
	"context"
)

// Option allows for optional parameters like Temperature, Model, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
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

// StreamProvider defines the contract for a streaming LLM backend.
//
// Stream never returns an error: backend or transport failures surface
// as a single in-band marker fragment on the channel, because whatever
// comes out of the stream is ultimately persisted as the assistant's
// chat message and must always read as text. The channel closes when
// the backend closes; a fresh call is required to retry.
type StreamProvider interface {
	Stream(ctx context.Context, prompt string, options ...Option) <-chan string
}

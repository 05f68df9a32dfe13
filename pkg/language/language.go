// Package language models the language-understanding collaborator: a single
// opaque inference operation that renders a named prompt with variables and
// returns structured JSON. Everything the reconciliation engine needs from an
// LLM (intent classification, fact extraction, sentence splitting, response
// composition) goes through this one seam, so the engine itself stays
// model-agnostic and fully mockable in tests.
package language

import (
	"context"
	"encoding/json"
	"errors"
)

// Service is the language-understanding collaborator.
type Service interface {
	// Infer renders the named prompt with vars, runs it against the model,
	// and returns the raw JSON object the model produced. A bounded retry
	// budget lives inside the implementation; callers treat any returned
	// error as a failed inference.
	Infer(ctx context.Context, prompt Prompt, vars map[string]any) (json.RawMessage, error)

	// Close releases any resources held by the service.
	Close() error
}

var (
	// ErrInference is returned when the model call itself fails.
	ErrInference = errors.New("language inference failed")

	// ErrMalformed is returned when the model answers with JSON that does
	// not match the prompt's declared output shape.
	ErrMalformed = errors.New("malformed language model output")

	// ErrUnknownPrompt is returned when a prompt ID has no registered template.
	ErrUnknownPrompt = errors.New("unknown prompt")
)

package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/packratco/packrat/pkg/language"
)

// MockLanguage is a scripted language.Service: each prompt gets a handler
// that receives the Infer vars and returns the raw JSON a model would.
type MockLanguage struct {
	mu       sync.Mutex
	handlers map[language.Prompt]func(vars map[string]any) (json.RawMessage, error)
	calls    map[language.Prompt]int
}

func NewMockLanguage() *MockLanguage {
	return &MockLanguage{
		handlers: make(map[language.Prompt]func(vars map[string]any) (json.RawMessage, error)),
		calls:    make(map[language.Prompt]int),
	}
}

// Handle registers the handler for one prompt.
func (m *MockLanguage) Handle(prompt language.Prompt, fn func(vars map[string]any) (json.RawMessage, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[prompt] = fn
}

// Respond registers a fixed JSON response for one prompt.
func (m *MockLanguage) Respond(prompt language.Prompt, response string) {
	m.Handle(prompt, func(map[string]any) (json.RawMessage, error) {
		return json.RawMessage(response), nil
	})
}

// Calls reports how many times a prompt was inferred.
func (m *MockLanguage) Calls(prompt language.Prompt) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[prompt]
}

func (m *MockLanguage) Infer(_ context.Context, prompt language.Prompt, vars map[string]any) (json.RawMessage, error) {
	m.mu.Lock()
	fn, ok := m.handlers[prompt]
	m.calls[prompt]++
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: no handler for prompt %q", language.ErrInference, prompt)
	}
	return fn(vars)
}

func (m *MockLanguage) Close() error {
	return nil
}

var _ language.Service = (*MockLanguage)(nil)

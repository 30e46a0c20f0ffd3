package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Role values of a Message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a provider independent chat completion request.
type CompletionRequest struct {
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int64     `json:"max_tokens"`
}

// Info contains metadata about a completer implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Completer returns the text completion of a request.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Info() Info
}

// ErrEmptyCompletion is returned by completers when the provider answered
// without any text.
var ErrEmptyCompletion = errors.New("empty completion")

// MockCompleter is an in-memory Completer useful for tests and examples.
type MockCompleter struct {
	info      Info
	mu        sync.Mutex
	responses map[string]string
	requests  []CompletionRequest
}

// NewMockCompleter creates a MockCompleter.
func NewMockCompleter(name string) *MockCompleter {
	return &MockCompleter{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned completion for the content of the last
// message of a request.
func (m *MockCompleter) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Complete implements Completer.
func (m *MockCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	prompt := req.Messages[len(req.Messages)-1].Content
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// Requests returns the requests received so far.
func (m *MockCompleter) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompletionRequest(nil), m.requests...)
}

// Info implements Completer.
func (m *MockCompleter) Info() Info { return m.info }

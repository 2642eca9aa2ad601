package llm

import (
	"context"
	"sync"
)

// MockGenerator is a configurable Generator for tests.
type MockGenerator struct {
	// GenerateFunc is called by Generate. If nil, Generate returns "" and nil.
	GenerateFunc func(ctx context.Context, systemMessage, prompt string) (string, error)

	mu    sync.Mutex
	calls int
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, systemMessage, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemMessage, prompt)
	}
	return "", nil
}

// Calls returns how many times Generate ran.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

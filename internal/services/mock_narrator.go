package services

import (
	"context"
	"sync"
)

// MockNarrator is a mock implementation of Narrator for testing
type MockNarrator struct {
	GenerateFunc func(ctx context.Context, promptContext map[string]any, temperature float64, maxLength int) (string, error)

	// Track calls for testing
	GenerateCalls []GenerateCall

	mu sync.Mutex // protects all fields above
}

type GenerateCall struct {
	PromptContext map[string]any
	Temperature   float64
	MaxLength     int
}

var _ Narrator = (*MockNarrator)(nil)

// NewMockNarrator creates a new mock narrator
func NewMockNarrator() *MockNarrator {
	return &MockNarrator{
		GenerateCalls: make([]GenerateCall, 0),
	}
}

// Generate mocks narration generation
func (m *MockNarrator) Generate(ctx context.Context, promptContext map[string]any, temperature float64, maxLength int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateCalls = append(m.GenerateCalls, GenerateCall{
		PromptContext: promptContext,
		Temperature:   temperature,
		MaxLength:     maxLength,
	})

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, promptContext, temperature, maxLength)
	}

	// Default behavior - canned narration
	return "The road winds on beneath a restless sky.", nil
}

// SetResponse sets up the mock to return fixed text
func (m *MockNarrator) SetResponse(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, promptContext map[string]any, temperature float64, maxLength int) (string, error) {
		return text, nil
	}
}

// SetError sets up the mock to return an error on Generate
func (m *MockNarrator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = func(ctx context.Context, promptContext map[string]any, temperature float64, maxLength int) (string, error) {
		return "", err
	}
}

// Reset clears all call tracking
func (m *MockNarrator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = nil
	m.GenerateCalls = make([]GenerateCall, 0)
}

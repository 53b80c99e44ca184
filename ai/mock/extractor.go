package mock

import (
	"context"
	"strings"
	"sync"
)

// MockExtractor is a test double for ai.Extractor.
// It allows custom behavior injection via function fields.
type MockExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, the raw bytes are returned as trimmed text.
	ExtractFunc func(ctx context.Context, raw []byte) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockExtractor creates a mock extractor with pass-through behavior.
// Returns the concrete type to allow test assertions.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// Extract returns the raw bytes as text, or the injected behavior's result.
func (m *MockExtractor) Extract(ctx context.Context, raw []byte) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, raw)
	}
	return strings.TrimSpace(string(raw)), nil
}

// CallCount returns the number of times Extract was called.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

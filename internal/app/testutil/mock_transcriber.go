package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"scribe/internal/app/encoder"
)

// MockTranscriber is a testify mock of api.Transcriber. Every call is also kept in Payloads
// so tests can inspect what was sent without setting argument matchers.
type MockTranscriber struct {
	mock.Mock

	mu       sync.Mutex
	Payloads []encoder.Payload
}

// NewMockTranscriber binds the mock to t so unexpected calls fail the test.
func NewMockTranscriber(t *testing.T) *MockTranscriber {
	m := &MockTranscriber{}
	m.Test(t)
	return m
}

// Transcribe implements api.Transcriber.
func (m *MockTranscriber) Transcribe(ctx context.Context, payload encoder.Payload) (string, error) {
	m.mu.Lock()
	m.Payloads = append(m.Payloads, payload)
	m.mu.Unlock()

	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

// CallCount is the number of Transcribe calls so far.
func (m *MockTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Payloads)
}

// LastPayload returns the most recent payload, if any.
func (m *MockTranscriber) LastPayload() (encoder.Payload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Payloads) == 0 {
		return encoder.Payload{}, false
	}
	return m.Payloads[len(m.Payloads)-1], true
}

// Returns makes every call answer text, err.
func (m *MockTranscriber) Returns(text string, err error) *mock.Call {
	return m.On("Transcribe", mock.Anything, mock.Anything).Return(text, err)
}

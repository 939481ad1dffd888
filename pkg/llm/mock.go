package llm

import (
	"context"
	"strings"
	"sync"
)

// Mock implements Provider for testing.
// Methods can be customized via function fields.
type Mock struct {
	// ChatFunc is called when Chat is invoked.
	ChatFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// StreamFunc is called when Stream is invoked.
	// If nil, streams Deltas one at a time.
	StreamFunc func(ctx context.Context, req *ChatRequest) (Stream, error)

	// Deltas is the scripted delta sequence used by the default StreamFunc.
	Deltas []string

	// Tracking
	mu       sync.Mutex
	requests []*ChatRequest
}

// NewMock creates a mock that streams the given deltas for every call.
func NewMock(deltas ...string) *Mock {
	return &Mock{Deltas: deltas}
}

// WithError returns a mock whose calls always fail.
func WithError(err error) *Mock {
	return &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return nil, err
		},
		StreamFunc: func(ctx context.Context, req *ChatRequest) (Stream, error) {
			return nil, err
		},
	}
}

// Chat calls ChatFunc, or joins the scripted deltas into one response.
func (m *Mock) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	m.record(req)
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	return &ChatResponse{
		Message: NewAssistantMessage(strings.Join(m.Deltas, "")),
		Model:   "mock",
	}, nil
}

// Stream calls StreamFunc, or streams the scripted deltas.
func (m *Mock) Stream(ctx context.Context, req *ChatRequest) (Stream, error) {
	m.record(req)
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req)
	}
	return NewScriptedStream(m.Deltas...), nil
}

// Health reports healthy.
func (m *Mock) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

func (m *Mock) record(req *ChatRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
}

// Requests returns all recorded chat requests.
func (m *Mock) Requests() []*ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*ChatRequest, len(m.requests))
	copy(result, m.requests)
	return result
}

// ScriptedStream replays a fixed delta sequence, then reports Done.
type ScriptedStream struct {
	deltas []string
	pos    int

	// FailAfter, when >= 0, makes Recv return Err once pos reaches it.
	FailAfter int
	Err       error
}

// NewScriptedStream creates a stream that yields each delta in order.
func NewScriptedStream(deltas ...string) *ScriptedStream {
	return &ScriptedStream{deltas: deltas, FailAfter: -1}
}

// Recv returns the next scripted chunk.
func (s *ScriptedStream) Recv() (*StreamChunk, error) {
	if s.FailAfter >= 0 && s.pos >= s.FailAfter {
		return nil, s.Err
	}
	if s.pos >= len(s.deltas) {
		return &StreamChunk{Done: true}, nil
	}
	delta := s.deltas[s.pos]
	s.pos++
	return &StreamChunk{Delta: delta}, nil
}

// Close is a no-op.
func (s *ScriptedStream) Close() error {
	return nil
}

// Verify interfaces at compile time.
var (
	_ Provider = (*Mock)(nil)
	_ Stream   = (*ScriptedStream)(nil)
)

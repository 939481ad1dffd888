package tts

import (
	"context"
	"sync"
)

// mockFormat matches the default Piper voice output.
var mockFormat = AudioFormat{SampleRate: 22050, Channels: 1, BitDepth: 16}

// Mock implements Provider for testing.
// Methods can be customized via function fields.
type Mock struct {
	// SynthesizeFunc is called when Synthesize is invoked.
	// If nil, returns silence proportional to text length.
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)

	// StreamFunc is called when Stream is invoked.
	// If nil, streams the default Synthesize result in chunks.
	StreamFunc func(ctx context.Context, text string) (AudioStream, error)

	// ChunkSize controls how the default stream slices its audio.
	// Zero means one chunk per stream.
	ChunkSize int

	// Tracking
	mu    sync.Mutex
	texts []string
}

// NewMock creates a mock that renders silence for every call.
func NewMock() *Mock {
	return &Mock{}
}

// WithError returns a mock whose calls always fail.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
			return nil, err
		},
		StreamFunc: func(ctx context.Context, text string) (AudioStream, error) {
			return nil, err
		},
	}
}

// Synthesize calls SynthesizeFunc, or renders silence.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.record(text)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return m.silence(text), nil
}

// Stream calls StreamFunc, or streams silence in chunks.
func (m *Mock) Stream(ctx context.Context, text string) (AudioStream, error) {
	m.record(text)
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, text)
	}
	result := m.silence(text)
	return &bufferStream{data: result.Audio, chunkSize: m.ChunkSize, format: result.Format}, nil
}

// Health reports healthy.
func (m *Mock) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

// silence renders ~20ms of PCM16 silence per character, which gives
// roughly natural speech pacing for duration assertions.
func (m *Mock) silence(text string) *AudioResult {
	bytesPerChar := mockFormat.SampleRate / 50 * 2
	audio := make([]byte, len(text)*bytesPerChar)
	return &AudioResult{
		Audio:     audio,
		Format:    mockFormat,
		Duration:  mockFormat.EstimateDuration(len(audio)),
		CharCount: len(text),
	}
}

func (m *Mock) record(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
}

// Texts returns every text passed to Synthesize or Stream, in order.
func (m *Mock) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.texts))
	copy(result, m.texts)
	return result
}

// bufferStream serves a fixed buffer as an AudioStream.
type bufferStream struct {
	data      []byte
	chunkSize int
	pos       int
	format    AudioFormat
}

// Read returns the next chunk of the buffer.
func (s *bufferStream) Read() ([]byte, error) {
	if s.pos >= len(s.data) {
		return nil, nil
	}
	end := len(s.data)
	if s.chunkSize > 0 && s.pos+s.chunkSize < end {
		end = s.pos + s.chunkSize
	}
	chunk := s.data[s.pos:end]
	s.pos = end
	return chunk, nil
}

// Close is a no-op.
func (s *bufferStream) Close() error {
	return nil
}

// Format returns the audio format.
func (s *bufferStream) Format() AudioFormat {
	return s.format
}

// Verify interfaces at compile time.
var (
	_ Provider    = (*Mock)(nil)
	_ AudioStream = (*bufferStream)(nil)
)

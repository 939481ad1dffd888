package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bigfive/voice-pipeline/internal/httpc"
)

const providerPiper = "piper"

// Piper implements Provider against a Piper HTTP sidecar.
// The sidecar renders raw PCM16 mono audio at the voice model's fixed
// sample rate and streams it back as a chunked response body.
type Piper struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewPiper creates a new Piper TTS provider.
func NewPiper(opts ...Option) (*Piper, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Piper{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "tts.piper"),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// Synthesize converts text to audio, returning the complete buffer.
func (p *Piper) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	stream, err := p.Stream(ctx, text)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var buf bytes.Buffer
	for {
		chunk, err := stream.Read()
		if err != nil {
			return nil, err
		}
		if chunk == nil {
			break
		}
		buf.Write(chunk)
	}

	format := p.outputFormat()

	p.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", buf.Len(),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return &AudioResult{
		Audio:     buf.Bytes(),
		Format:    format,
		Duration:  format.EstimateDuration(buf.Len()),
		CharCount: len(text),
	}, nil
}

// Stream converts text to audio with streaming output for lowest latency.
func (p *Piper) Stream(ctx context.Context, text string) (AudioStream, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerPiper, ErrEmptyText)
	}

	payload := map[string]string{
		"text":  text,
		"voice": p.config.Voice,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerPiper, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/api/tts", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerPiper, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/pcm")

	// Use stream timeout for streaming requests
	client := httpc.NewClient(p.config.StreamTimeout)
	resp, err := client.Do(req)
	if err != nil {
		return nil, WrapError(providerPiper, fmt.Errorf("stream request: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, p.parseError(resp)
	}

	return &httpStream{
		body:   resp.Body,
		format: p.outputFormat(),
	}, nil
}

// Health checks sidecar connectivity.
func (p *Piper) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/health", nil)
	if err != nil {
		return WrapError(providerPiper, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return WrapError(providerPiper, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return p.parseError(resp)
	}
	return nil
}

// Close releases resources held by the provider.
func (p *Piper) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// Voice returns the configured voice model name.
func (p *Piper) Voice() string {
	return p.config.Voice
}

// parseError reads and parses an error response.
func (p *Piper) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error string `json:"error"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		message = errResp.Error
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerPiper,
	}
}

// outputFormat returns the audio format configuration.
func (p *Piper) outputFormat() AudioFormat {
	return AudioFormat{
		SampleRate: p.config.SampleRate,
		Channels:   1,
		BitDepth:   16,
	}
}

// httpStream wraps an HTTP response body as AudioStream.
type httpStream struct {
	body   io.ReadCloser
	format AudioFormat
	buf    [4096]byte
}

// Read returns the next audio chunk.
func (s *httpStream) Read() ([]byte, error) {
	n, err := s.body.Read(s.buf[:])
	if n > 0 {
		chunk := make([]byte, n)
		copy(chunk, s.buf[:n])
		return chunk, nil
	}
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte{}, nil
}

// Close stops the stream.
func (s *httpStream) Close() error {
	return s.body.Close()
}

// Format returns the audio format.
func (s *httpStream) Format() AudioFormat {
	return s.format
}

// Verify Piper implements Provider at compile time.
var _ Provider = (*Piper)(nil)

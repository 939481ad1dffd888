package stt

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
	"github.com/bigfive/voice-pipeline/pkg/audio"
)

const providerWhisper = "whisper"

// Whisper implements Transcriber against a faster-whisper HTTP sidecar.
//
// The sidecar accepts normalized float32 samples and returns the joined
// transcript text. PCM16 input is converted to [-1.0, 1.0] floats (divisor
// 32768) and resampled to the model rate before submission.
type Whisper struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewWhisper creates a new Whisper transcriber.
func NewWhisper(opts ...Option) (*Whisper, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Whisper{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "stt.whisper"),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// transcribeRequest is the sidecar request payload.
type transcribeRequest struct {
	Samples    []float32 `json:"samples"`
	SampleRate int       `json:"sample_rate"`
	Language   string    `json:"language,omitempty"`
	BeamSize   int       `json:"beam_size,omitempty"`
	VADFilter  bool      `json:"vad_filter"`
}

// transcribeResponse is the sidecar response payload.
type transcribeResponse struct {
	Text string `json:"text"`
}

// Transcribe converts raw PCM16 mono samples to text.
func (w *Whisper) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error) {
	if len(pcm)%2 != 0 {
		return "", WrapError(providerWhisper, ErrOddLength)
	}
	if len(pcm) == 0 {
		return "", WrapError(providerWhisper, ErrNoAudio)
	}

	start := time.Now()

	samples := audio.BytesToSamples(pcm)
	if sampleRate != w.config.ModelRate {
		samples = audio.Resample(samples, sampleRate, w.config.ModelRate)
	}

	payload := transcribeRequest{
		Samples:    audio.SamplesToFloat32(samples),
		SampleRate: w.config.ModelRate,
		Language:   w.config.Language,
		BeamSize:   w.config.BeamSize,
		VADFilter:  w.config.VADFilter,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", WrapError(providerWhisper, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.baseURL+"/transcribe", bytes.NewReader(body))
	if err != nil {
		return "", WrapError(providerWhisper, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.doWithRetry(ctx, req, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", w.parseError(resp)
	}

	var result transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", WrapError(providerWhisper, fmt.Errorf("decode response: %w", err))
	}

	text := strings.TrimSpace(result.Text)

	w.logger.Debug("transcribed utterance",
		"samples", len(samples),
		"input_rate", sampleRate,
		"level", audio.RMS(samples),
		"chars", len(text),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return text, nil
}

// Health checks sidecar connectivity.
func (w *Whisper) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", w.baseURL+"/health", nil)
	if err != nil {
		return WrapError(providerWhisper, err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return WrapError(providerWhisper, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return w.parseError(resp)
	}
	return nil
}

// Close releases resources held by the provider.
func (w *Whisper) Close() error {
	w.client.CloseIdleConnections()
	return nil
}

// doWithRetry performs the request with retry logic.
func (w *Whisper) doWithRetry(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(w.config.RetryDelay * time.Duration(attempt)):
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := w.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerWhisper, err)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = w.parseError(resp)
			resp.Body.Close()
			w.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (w *Whisper) parseError(resp *http.Response) error {
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
		Provider:   providerWhisper,
	}
}

// Verify Whisper implements Transcriber at compile time.
var _ Transcriber = (*Whisper)(nil)

package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPiperStream(t *testing.T) {
	// 3 chunks of raw PCM16, enough to span multiple 4096-byte reads
	audio := make([]byte, 10000)
	for i := range audio {
		audio[i] = byte(i % 251)
	}

	var gotPayload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tts" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "audio/pcm")
		w.Write(audio)
	}))
	defer server.Close()

	provider, err := NewPiper(
		WithBaseURL(server.URL),
		WithVoice("en_US-lessac-medium"),
	)
	if err != nil {
		t.Fatalf("NewPiper: %v", err)
	}
	defer provider.Close()

	stream, err := provider.Stream(context.Background(), "Hello world.")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	if stream.Format().SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", stream.Format().SampleRate)
	}

	var got []byte
	for {
		chunk, err := stream.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if chunk == nil {
			break
		}
		got = append(got, chunk...)
	}

	if len(got) != len(audio) {
		t.Errorf("received %d bytes, want %d", len(got), len(audio))
	}
	for i := range got {
		if got[i] != audio[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], audio[i])
		}
	}

	if gotPayload["text"] != "Hello world." {
		t.Errorf("payload text = %q", gotPayload["text"])
	}
	if gotPayload["voice"] != "en_US-lessac-medium" {
		t.Errorf("payload voice = %q", gotPayload["voice"])
	}
}

func TestPiperSynthesize(t *testing.T) {
	audio := make([]byte, 44100) // one second at 22050 Hz PCM16

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(audio)
	}))
	defer server.Close()

	provider, err := NewPiper(WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewPiper: %v", err)
	}
	defer provider.Close()

	result, err := provider.Synthesize(context.Background(), "One second of speech")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if len(result.Audio) != len(audio) {
		t.Errorf("audio length = %d, want %d", len(result.Audio), len(audio))
	}
	if result.CharCount != len("One second of speech") {
		t.Errorf("CharCount = %d", result.CharCount)
	}
	if secs := result.Duration.Seconds(); secs < 0.99 || secs > 1.01 {
		t.Errorf("Duration = %v, want ~1s", result.Duration)
	}
}

func TestPiperEmptyText(t *testing.T) {
	provider, err := NewPiper()
	if err != nil {
		t.Fatalf("NewPiper: %v", err)
	}

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := provider.Stream(context.Background(), text); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Stream(%q) error = %v, want ErrEmptyText", text, err)
		}
	}
}

func TestPiperAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unknown voice"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	provider, err := NewPiper(WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewPiper: %v", err)
	}

	_, err = provider.Stream(context.Background(), "Hello.")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Message != "unknown voice" {
		t.Errorf("Message = %q, want parsed error field", apiErr.Message)
	}
	if apiErr.IsRetryable() {
		t.Error("400 should not be retryable")
	}
}

func TestPiperHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider, err := NewPiper(WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewPiper: %v", err)
	}

	if err := provider.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}

func TestMockStreamChunking(t *testing.T) {
	mock := NewMock()
	mock.ChunkSize = 1024

	stream, err := mock.Stream(context.Background(), "Hi.")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var total, chunks int
	for {
		chunk, err := stream.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if chunk == nil {
			break
		}
		if len(chunk) > 1024 {
			t.Errorf("chunk size %d exceeds 1024", len(chunk))
		}
		total += len(chunk)
		chunks++
	}
	if chunks < 2 {
		t.Errorf("expected multiple chunks, got %d", chunks)
	}

	texts := mock.Texts()
	if len(texts) != 1 || texts[0] != "Hi." {
		t.Errorf("Texts() = %v", texts)
	}
}

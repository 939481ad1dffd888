// Package stt provides a unified interface for speech-to-text providers.
//
// Transcription is consumed as a narrow black-box contract: raw PCM16 mono
// samples in, best-effort text out. The bundled Whisper provider talks to a
// faster-whisper sidecar over HTTP; Mock supports tests.
//
// Example usage:
//
//	t, _ := stt.NewWhisper(
//	    stt.WithBaseURL("http://localhost:8090"),
//	    stt.WithLanguage("en"),
//	)
//	defer t.Close()
//
//	text, err := t.Transcribe(ctx, pcm, 16000)
package stt

import "context"

// Transcriber converts a finished utterance's audio into text.
// Implementations are stateless per call.
type Transcriber interface {
	// Transcribe converts raw little-endian PCM16 mono samples to text.
	// An empty string is a legitimate no-speech result, not an error.
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error)

	// Health checks provider connectivity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

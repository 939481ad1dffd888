// Package tts provides a unified interface for text-to-speech providers.
//
// Providers stream raw PCM16 audio chunks as they are rendered, so the
// first chunk can reach the client before the whole sentence is done. The
// bundled Piper provider talks to a Piper HTTP sidecar; Mock supports tests.
//
// Example usage:
//
//	provider, _ := tts.NewPiper(
//	    tts.WithBaseURL("http://localhost:5000"),
//	    tts.WithVoice("en_US-lessac-medium"),
//	)
//	defer provider.Close()
//
//	stream, _ := provider.Stream(ctx, "Hello world.")
//	defer stream.Close()
//	for {
//	    chunk, err := stream.Read()
//	    if err != nil || chunk == nil {
//	        break
//	    }
//	    // forward chunk
//	}
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete buffer.
	// Use this for short text where latency to first byte is less critical.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Stream converts text to audio with streaming output for lowest
	// latency. Chunks are yielded as they become available. Each call
	// begins a fresh stream; streams are not restartable.
	Stream(ctx context.Context, text string) (AudioStream, error)

	// Health checks provider connectivity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioStream represents a streaming audio response.
// Callers should read until Read returns nil, then call Close.
type AudioStream interface {
	// Read returns the next audio chunk.
	// Returns nil when the stream is complete (not an error).
	Read() ([]byte, error)

	// Close stops the stream and releases resources.
	Close() error

	// Format returns the audio format metadata.
	Format() AudioFormat
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains raw PCM16 audio data.
	Audio []byte

	// Format describes the audio encoding parameters.
	Format AudioFormat

	// Duration is the estimated audio playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// SampleRate in Hz (e.g., 22050).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// BitDepth for PCM formats (16 for PCM16).
	BitDepth int
}

// EstimateDuration estimates PCM16 playback duration from byte count.
func (f AudioFormat) EstimateDuration(bytes int) time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	samples := bytes / 2 / max(f.Channels, 1)
	seconds := float64(samples) / float64(f.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}

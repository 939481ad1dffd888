package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// =============================================================================
// Helper functions for encoding server frames
// =============================================================================

// EncodeTranscript encodes a transcript frame.
func EncodeTranscript(text string) ([]byte, error) {
	return marshal(transcriptFrame{Type: TypeTranscript, Text: text})
}

// EncodeResponseText encodes an incremental reply-text frame.
// done=true marks the end of the turn's text stream.
func EncodeResponseText(text string, done bool) ([]byte, error) {
	return marshal(responseTextFrame{Type: TypeResponseText, Text: text, Done: done})
}

// EncodeAudio encodes a synthesized audio frame from raw PCM16 bytes.
func EncodeAudio(pcm []byte, sampleRate int) ([]byte, error) {
	return marshal(audioFrame{
		Type:       TypeAudio,
		Data:       base64.StdEncoding.EncodeToString(pcm),
		SampleRate: sampleRate,
	})
}

// EncodeError encodes a recoverable-error frame.
func EncodeError(message string) ([]byte, error) {
	return marshal(errorFrame{Type: TypeError, Message: message})
}

// EncodeDone encodes the turn-complete frame.
func EncodeDone() ([]byte, error) {
	return marshal(bareFrame{Type: TypeDone})
}

// EncodeHistoryCleared encodes the clear_history acknowledgement.
func EncodeHistoryCleared() ([]byte, error) {
	return marshal(bareFrame{Type: TypeHistoryCleared})
}

func marshal(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal frame: %w", err)
	}
	return data, nil
}

// =============================================================================
// Helper functions for decoding payloads
// =============================================================================

// DecodeAudio decodes the base64 audio data of an inbound audio frame.
func (m *ClientMessage) DecodeAudio() ([]byte, error) {
	return base64.StdEncoding.DecodeString(m.Data)
}

// DecodeAudio decodes the base64 audio data of an outbound audio frame.
func (m *ServerMessage) DecodeAudio() ([]byte, error) {
	return base64.StdEncoding.DecodeString(m.Data)
}

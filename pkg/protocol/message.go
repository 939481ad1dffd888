// Package protocol defines the WebSocket message types exchanged between
// a voice client and the relay server. Each frame is a single flat JSON
// object with a "type" field; payload fields sit at the top level.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → Server messages
	TypeAudio        MessageType = "audio"         // Append microphone samples
	TypeEndAudio     MessageType = "end_audio"     // End of recording, run the turn
	TypeClearHistory MessageType = "clear_history" // Reset the conversation

	// Server → Client messages
	TypeTranscript     MessageType = "transcript"      // Final STT result
	TypeResponseText   MessageType = "response_text"   // Incremental reply text
	TypeDone           MessageType = "done"            // Turn fully complete
	TypeError          MessageType = "error"           // Recoverable failure
	TypeHistoryCleared MessageType = "history_cleared" // Ack for clear_history
)

// ClientMessage is a decoded inbound frame. Fields not used by the
// frame's type are left at their zero value.
type ClientMessage struct {
	Type       MessageType `json:"type"`
	Data       string      `json:"data,omitempty"`        // base64 PCM16
	SampleRate int         `json:"sample_rate,omitempty"` // e.g. 16000
}

// ParseClientMessage parses a JSON frame from the client.
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("protocol: parse client message: %w", err)
	}
	return &msg, nil
}

// ServerMessage is a decoded outbound frame, for Go clients and tests.
// Fields not used by the frame's type are left at their zero value.
type ServerMessage struct {
	Type       MessageType `json:"type"`
	Text       string      `json:"text,omitempty"`
	Done       bool        `json:"done,omitempty"`
	Data       string      `json:"data,omitempty"`
	SampleRate int         `json:"sample_rate,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// ParseServerMessage parses a JSON frame from the server.
func ParseServerMessage(data []byte) (*ServerMessage, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("protocol: parse server message: %w", err)
	}
	return &msg, nil
}

// Wire structs for server frames. response_text always carries both text
// and done, even when empty/false, so clients can rely on their presence.
type transcriptFrame struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

type responseTextFrame struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
	Done bool        `json:"done"`
}

type audioFrame struct {
	Type       MessageType `json:"type"`
	Data       string      `json:"data"`
	SampleRate int         `json:"sample_rate"`
}

type errorFrame struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

type bareFrame struct {
	Type MessageType `json:"type"`
}

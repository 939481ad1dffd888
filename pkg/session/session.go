// Package session orchestrates one client connection's voice pipeline.
//
// A Session owns the audio accumulation buffer, the conversation
// transcript, and the turn pipeline that runs speech-to-text, the
// language model stream, sentence segmentation, and speech synthesis
// for a single connection. Inbound messages are dispatched one at a
// time in arrival order; outbound frames are queued on a channel that
// the transport drains with a single writer.
package session

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/bigfive/voice-pipeline/pkg/llm"
	"github.com/bigfive/voice-pipeline/pkg/protocol"
	"github.com/bigfive/voice-pipeline/pkg/stt"
	"github.com/bigfive/voice-pipeline/pkg/tts"
)

// DefaultInputSampleRate is assumed until the client states its rate.
const DefaultInputSampleRate = 16000

// outBufferSize bounds the outbound frame queue. Audio chunks are
// small, so a modest buffer keeps the pipeline from stalling on a
// slow reader without holding whole replies in memory.
const outBufferSize = 64

// Session holds the state for one client connection.
type Session struct {
	ID string

	transcriber stt.Transcriber
	responder   llm.Provider
	synthesizer tts.Provider

	systemPrompt string
	logger       *slog.Logger

	transcript []llm.Message
	audioBuf   bytes.Buffer
	sampleRate int

	out    chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// Option configures a Session.
type Option func(*Session)

// WithSystemPrompt sets the system turn that seeds every transcript.
func WithSystemPrompt(prompt string) Option {
	return func(s *Session) {
		s.systemPrompt = prompt
	}
}

// WithLogger sets the structured logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New creates a Session wired to the given pipeline stages.
// Call Close when the connection ends to cancel in-flight work.
func New(transcriber stt.Transcriber, responder llm.Provider, synthesizer tts.Provider, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		ID:           uuid.NewString(),
		transcriber:  transcriber,
		responder:    responder,
		synthesizer:  synthesizer,
		systemPrompt: "You are a helpful voice assistant.",
		logger:       slog.Default(),
		sampleRate:   DefaultInputSampleRate,
		out:          make(chan []byte, outBufferSize),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", s.ID)
	s.resetTranscript()

	return s
}

// Out returns the outbound frame queue. The transport must drain it
// with a single writer until it is closed.
func (s *Session) Out() <-chan []byte {
	return s.out
}

// Cancel aborts any in-flight turn without closing the outbound queue.
// The transport calls this when its writer fails, so a pipeline blocked
// on a dead connection unwinds promptly.
func (s *Session) Cancel() {
	s.cancel()
}

// Close cancels in-flight work and closes the outbound queue.
// Must not be called concurrently with HandleMessage.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.out)
	})
}

// HandleMessage dispatches one inbound frame. Messages are processed
// serially in arrival order; a turn pipeline runs to completion before
// the next message is dispatched, which is what enforces the
// one-turn-at-a-time rule.
//
// A clear_history that arrives while a turn is streaming is therefore
// queued behind it by the transport's read loop, never raced. Audio
// frames that arrive mid-turn accumulate into the (already snapshotted)
// buffer and become part of the next utterance.
//
// Malformed and unknown frames are ignored. The returned error is
// non-nil only when the session context is cancelled, signalling the
// read loop to stop.
func (s *Session) HandleMessage(raw []byte) error {
	msg, err := protocol.ParseClientMessage(raw)
	if err != nil {
		s.logger.Debug("dropping malformed frame", "error", err)
		return nil
	}

	switch msg.Type {
	case protocol.TypeAudio:
		s.appendAudio(msg)
		return nil
	case protocol.TypeEndAudio:
		return s.runTurn()
	case protocol.TypeClearHistory:
		return s.clearHistory()
	default:
		s.logger.Debug("ignoring unknown message type", "type", msg.Type)
		return nil
	}
}

// appendAudio decodes one audio frame into the accumulation buffer.
func (s *Session) appendAudio(msg *protocol.ClientMessage) {
	pcm, err := msg.DecodeAudio()
	if err != nil {
		s.logger.Debug("dropping undecodable audio frame", "error", err)
		return
	}
	s.audioBuf.Write(pcm)
	if msg.SampleRate > 0 {
		s.sampleRate = msg.SampleRate
	}
}

// clearHistory resets the transcript to the system turn and acks.
func (s *Session) clearHistory() error {
	s.resetTranscript()
	s.logger.Info("conversation history cleared")
	return s.send(protocol.EncodeHistoryCleared())
}

// History returns a copy of the conversation transcript.
func (s *Session) History() []llm.Message {
	result := make([]llm.Message, len(s.transcript))
	copy(result, s.transcript)
	return result
}

func (s *Session) resetTranscript() {
	s.transcript = []llm.Message{llm.NewSystemMessage(s.systemPrompt)}
}

// send queues one encoded frame, honoring cancellation. Its parameters
// match the protocol.EncodeXxx return values so call sites pass those
// results through directly.
func (s *Session) send(frame []byte, encErr error) error {
	if encErr != nil {
		return encErr
	}
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}
	select {
	case s.out <- frame:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

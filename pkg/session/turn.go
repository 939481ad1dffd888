package session

import (
	"strings"
	"time"

	"github.com/bigfive/voice-pipeline/pkg/llm"
	"github.com/bigfive/voice-pipeline/pkg/protocol"
)

// Client-facing failure messages. Kept stable so clients can show them
// verbatim.
const (
	msgNoAudio            = "No audio received"
	msgCouldNotTranscribe = "Could not transcribe audio"
	msgTranscribeFailed   = "Transcription failed"
	msgResponderFailed    = "Language model request failed"
)

// runTurn executes one full turn: snapshot the utterance, transcribe it,
// stream the model reply while segmenting it into sentences, and
// synthesize each sentence in order. It runs inline in the dispatch
// loop, so a turn always drains before the next inbound message is
// handled.
//
// Input errors and upstream failures are reported to the client via an
// error frame and leave the session usable; the returned error is
// non-nil only on cancellation.
func (s *Session) runTurn() error {
	if s.audioBuf.Len() == 0 {
		return s.send(protocol.EncodeError(msgNoAudio))
	}

	// Snapshot and clear the utterance. Audio arriving after this point
	// accumulates for the next turn.
	pcm := make([]byte, s.audioBuf.Len())
	copy(pcm, s.audioBuf.Bytes())
	s.audioBuf.Reset()
	rate := s.sampleRate

	start := time.Now()

	text, err := s.transcriber.Transcribe(s.ctx, pcm, rate)
	if err != nil {
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}
		s.logger.Error("transcription failed", "error", err)
		return s.send(protocol.EncodeError(msgTranscribeFailed))
	}
	text = strings.TrimSpace(text)

	s.logger.Info("utterance transcribed",
		"bytes", len(pcm),
		"sample_rate", rate,
		"chars", len(text),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	// The transcript frame goes out as soon as transcription completes,
	// even when nothing was recognized, so the client can update its UI
	// before the error arrives.
	if err := s.send(protocol.EncodeTranscript(text)); err != nil {
		return err
	}
	if text == "" {
		return s.send(protocol.EncodeError(msgCouldNotTranscribe))
	}

	s.transcript = append(s.transcript, llm.NewUserMessage(text))

	return s.streamReply()
}

// streamReply drives the responder stream through the segmenter and
// synthesizer, forwarding every delta as it arrives.
//
// On a mid-stream responder failure the assistant turn is appended with
// whatever text accumulated so far (possibly empty, keeping user and
// assistant turns paired) and an error frame is sent in place of the
// done frames.
func (s *Session) streamReply() error {
	stream, err := s.responder.Stream(s.ctx, &llm.ChatRequest{Messages: s.transcript})
	if err != nil {
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}
		s.logger.Error("responder stream failed to open", "error", err)
		s.transcript = append(s.transcript, llm.NewAssistantMessage(""))
		return s.send(protocol.EncodeError(msgResponderFailed))
	}
	defer stream.Close()

	var full strings.Builder
	buf := ""

	for {
		chunk, err := stream.Recv()
		if err != nil {
			if s.ctx.Err() != nil {
				return s.ctx.Err()
			}
			s.logger.Error("responder stream failed mid-reply",
				"chars_received", full.Len(),
				"error", err,
			)
			s.transcript = append(s.transcript, llm.NewAssistantMessage(full.String()))
			return s.send(protocol.EncodeError(msgResponderFailed))
		}

		if chunk.Delta != "" {
			if err := s.send(protocol.EncodeResponseText(chunk.Delta, false)); err != nil {
				return err
			}
			full.WriteString(chunk.Delta)

			var sentences []string
			sentences, buf = SplitSentences(buf, chunk.Delta)
			for _, span := range sentences {
				if err := s.speak(span); err != nil {
					return err
				}
			}
		}

		if chunk.Done {
			break
		}
	}

	// Trailing text with no terminal punctuation is spoken as the final
	// sentence.
	if err := s.speak(buf); err != nil {
		return err
	}

	s.transcript = append(s.transcript, llm.NewAssistantMessage(full.String()))
	s.logger.Info("turn complete", "reply_chars", full.Len(), "turns", len(s.transcript))

	if err := s.send(protocol.EncodeResponseText("", true)); err != nil {
		return err
	}
	return s.send(protocol.EncodeDone())
}

// speak synthesizes one sentence span and emits its audio chunks in
// production order. Synthesis failures skip the sentence and let the
// turn continue; dropping one sentence of audio beats aborting a reply
// whose text already reached the client.
func (s *Session) speak(span string) error {
	sentence := strings.TrimSpace(span)
	if sentence == "" {
		return nil
	}

	stream, err := s.synthesizer.Stream(s.ctx, sentence)
	if err != nil {
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}
		s.logger.Warn("synthesis failed, skipping sentence", "chars", len(sentence), "error", err)
		return nil
	}
	defer stream.Close()

	rate := stream.Format().SampleRate
	for {
		chunk, err := stream.Read()
		if err != nil {
			if s.ctx.Err() != nil {
				return s.ctx.Err()
			}
			s.logger.Warn("synthesis stream failed, dropping remaining audio",
				"chars", len(sentence),
				"error", err,
			)
			return nil
		}
		if chunk == nil {
			return nil
		}
		if len(chunk) == 0 {
			continue
		}
		if err := s.send(protocol.EncodeAudio(chunk, rate)); err != nil {
			return err
		}
	}
}

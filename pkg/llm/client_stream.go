package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bigfive/voice-pipeline/internal/httpc"
)

// Stream returns a streaming chat response. Deltas arrive as NDJSON lines
// from Ollama's /api/chat endpoint; malformed lines are skipped.
func (c *Client) Stream(ctx context.Context, req *ChatRequest) (Stream, error) {
	if len(req.Messages) == 0 {
		return nil, WrapError(providerOllama, ErrNoMessages)
	}

	body, err := json.Marshal(c.buildPayload(req, true))
	if err != nil {
		return nil, WrapError(providerOllama, fmt.Errorf("marshal payload: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerOllama, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// Use stream timeout
	client := httpc.NewClient(c.config.StreamTimeout)
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, WrapError(providerOllama, fmt.Errorf("stream request: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.parseError(resp)
	}

	return &clientStream{
		reader: bufio.NewReader(resp.Body),
		body:   resp.Body,
	}, nil
}

// clientStream implements Stream for NDJSON responses.
type clientStream struct {
	reader *bufio.Reader
	body   io.ReadCloser
	done   bool
}

// Recv returns the next stream chunk.
func (s *clientStream) Recv() (*StreamChunk, error) {
	if s.done {
		return &StreamChunk{Done: true}, nil
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err == io.EOF {
			s.done = true
			return &StreamChunk{Done: true}, nil
		}
		if err != nil {
			return nil, WrapError(providerOllama, fmt.Errorf("read stream: %w", err))
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var event chatEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			// Skip malformed events
			continue
		}

		if event.Done {
			s.done = true
			return &StreamChunk{Delta: event.Message.Content, Done: true}, nil
		}

		if event.Message.Content == "" {
			continue
		}

		return &StreamChunk{Delta: event.Message.Content}, nil
	}
}

// Close stops the stream.
func (s *clientStream) Close() error {
	return s.body.Close()
}

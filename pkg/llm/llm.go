// Package llm provides a unified interface for chat-model inference.
//
// The package abstracts chat completions behind a Provider interface. The
// bundled Client speaks Ollama's native chat API and streams incremental
// deltas as NDJSON; Mock supports tests.
//
// Example usage:
//
//	client, _ := llm.NewClient(
//	    llm.WithBaseURL("http://localhost:11434"),
//	    llm.WithModel("gemma3n:e2b"),
//	)
//	defer client.Close()
//
//	stream, _ := client.Stream(ctx, &llm.ChatRequest{
//	    Messages: []llm.Message{
//	        llm.NewSystemMessage("You are a helpful voice assistant."),
//	        llm.NewUserMessage("Hello!"),
//	    },
//	})
//	defer stream.Close()
//
//	for {
//	    chunk, err := stream.Recv()
//	    if err != nil || chunk.Done {
//	        break
//	    }
//	    fmt.Print(chunk.Delta)
//	}
package llm

import "context"

// Provider is the unified chat inference interface.
type Provider interface {
	// Chat generates a complete response from a sequence of messages.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream generates a streaming response for real-time output.
	Stream(ctx context.Context, req *ChatRequest) (Stream, error)

	// Health checks provider connectivity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Stream is a streaming response for real-time output.
type Stream interface {
	// Recv returns the next chunk. A chunk with Done=true ends the stream.
	Recv() (*StreamChunk, error)

	// Close stops the stream and releases resources.
	Close() error
}

// StreamChunk is a piece of a streaming response.
type StreamChunk struct {
	// Delta is the incremental text content.
	Delta string

	// Done is true when the stream is complete.
	Done bool
}

// ChatRequest for chat completions.
type ChatRequest struct {
	// Messages is the conversation history, oldest first.
	Messages []Message

	// Model overrides the default model.
	Model string

	// Temperature controls randomness (0.0-2.0). Zero means provider default.
	Temperature float64
}

// ChatResponse from a complete chat completion.
type ChatResponse struct {
	// Message is the assistant's response.
	Message Message

	// Model used for generation.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

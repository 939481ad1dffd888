package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bigfive/voice-pipeline/pkg/llm"
)

func TestClientChat(t *testing.T) {
	var gotPayload struct {
		Model    string        `json:"model"`
		Messages []llm.Message `json:"messages"`
		Stream   bool          `json:"stream"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)
		fmt.Fprint(w, `{"model":"gemma3n:e2b","message":{"role":"assistant","content":"Hi there."},"done":true}`)
	}))
	defer srv.Close()

	client, err := llm.NewClient(llm.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	resp, err := client.Chat(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage("be brief"),
			llm.NewUserMessage("hello"),
		},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if resp.Message.Role != llm.RoleAssistant {
		t.Errorf("role = %v, want assistant", resp.Message.Role)
	}
	if resp.Message.Content != "Hi there." {
		t.Errorf("content = %q, want %q", resp.Message.Content, "Hi there.")
	}

	if gotPayload.Stream {
		t.Error("stream = true, want false for Chat")
	}
	if gotPayload.Model != "gemma3n:e2b" {
		t.Errorf("model = %q, want default", gotPayload.Model)
	}
	if len(gotPayload.Messages) != 2 {
		t.Errorf("messages = %d, want 2", len(gotPayload.Messages))
	}
}

func TestClientChatValidation(t *testing.T) {
	client, err := llm.NewClient()
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	_, err = client.Chat(context.Background(), &llm.ChatRequest{})
	if !errors.Is(err, llm.ErrNoMessages) {
		t.Errorf("error = %v, want ErrNoMessages", err)
	}

	_, err = client.Stream(context.Background(), &llm.ChatRequest{})
	if !errors.Is(err, llm.ErrNoMessages) {
		t.Errorf("error = %v, want ErrNoMessages", err)
	}
}

func TestClientStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Stream bool `json:"stream"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if !payload.Stream {
			t.Error("stream = false, want true for Stream")
		}

		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hello"},"done":false}`)
		fmt.Fprintln(w, `not json at all`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":" world."},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	client, err := llm.NewClient(llm.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	stream, err := client.Stream(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	defer stream.Close()

	var deltas []string
	for {
		chunk, err := stream.Recv()
		if err != nil {
			t.Fatalf("Recv() error = %v", err)
		}
		if chunk.Delta != "" {
			deltas = append(deltas, chunk.Delta)
		}
		if chunk.Done {
			break
		}
	}

	want := []string{"Hello", " world."}
	if len(deltas) != len(want) {
		t.Fatalf("deltas = %v, want %v", deltas, want)
	}
	for i := range want {
		if deltas[i] != want[i] {
			t.Errorf("delta[%d] = %q, want %q", i, deltas[i], want[i])
		}
	}

	// Recv after done keeps reporting done
	chunk, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() after done error = %v", err)
	}
	if !chunk.Done {
		t.Error("Recv() after done: Done = false, want true")
	}
}

func TestClientStreamTruncated(t *testing.T) {
	// Stream ending without a done event terminates cleanly at EOF.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"partial"},"done":false}`)
	}))
	defer srv.Close()

	client, err := llm.NewClient(llm.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	stream, err := client.Stream(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	defer stream.Close()

	chunk, err := stream.Recv()
	if err != nil || chunk.Delta != "partial" {
		t.Fatalf("Recv() = %+v, %v; want partial delta", chunk, err)
	}

	chunk, err = stream.Recv()
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if !chunk.Done {
		t.Error("Done = false, want true at EOF")
	}
}

func TestClientErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := llm.NewClient(llm.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	_, err = client.Chat(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Message != "model not found" {
		t.Errorf("message = %q, want %q", apiErr.Message, "model not found")
	}
	if apiErr.IsRetryable() {
		t.Error("404 should not be retryable")
	}
}

func TestClientHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"models":[]}`)
	}))
	defer srv.Close()

	client, err := llm.NewClient(llm.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}

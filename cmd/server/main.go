// Command server runs the voice pipeline relay: a WebSocket endpoint
// that accepts streamed microphone audio, transcribes finished
// utterances, streams a language-model reply back as interleaved text
// deltas and synthesized speech.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/bigfive/voice-pipeline/internal/config"
	"github.com/bigfive/voice-pipeline/internal/log"
	"github.com/bigfive/voice-pipeline/pkg/audio"
	"github.com/bigfive/voice-pipeline/pkg/llm"
	"github.com/bigfive/voice-pipeline/pkg/session"
	"github.com/bigfive/voice-pipeline/pkg/stt"
	"github.com/bigfive/voice-pipeline/pkg/tts"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames; base64 PCM chunks from the
	// browser mic stay well under this.
	maxMessageSize = 1024 * 1024
)

func main() {
	port := flag.String("port", "", "Listen port (overrides PORT env)")
	debug := flag.Bool("debug", false, "Enable debug logging and request logs")
	flag.Parse()

	// Optional .env for local development
	_ = godotenv.Load()

	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	log.Init(cfg.LogLevel)

	transcriber, err := stt.NewWhisper(
		stt.WithBaseURL(cfg.WhisperURL),
		stt.WithLanguage(cfg.STTLanguage),
		stt.WithModelRate(cfg.STTModelRate),
		stt.WithLogger(log.L()),
	)
	if err != nil {
		log.Error("failed to create transcriber", "error", err)
		os.Exit(1)
	}
	defer transcriber.Close()

	responder, err := llm.NewClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaModel),
		llm.WithLogger(log.L()),
	)
	if err != nil {
		log.Error("failed to create responder", "error", err)
		os.Exit(1)
	}
	defer responder.Close()

	synthesizer, err := tts.NewPiper(
		tts.WithBaseURL(cfg.PiperURL),
		tts.WithVoice(cfg.PiperVoice),
		tts.WithSampleRate(cfg.TTSSampleRate),
		tts.WithLogger(log.L()),
	)
	if err != nil {
		log.Error("failed to create synthesizer", "error", err)
		os.Exit(1)
	}
	defer synthesizer.Close()

	probeSidecars(transcriber, responder, synthesizer)

	srv := &server{
		cfg:         cfg,
		transcriber: transcriber,
		responder:   responder,
		synthesizer: synthesizer,
	}
	app := srv.newApp(*debug)

	// Graceful shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	log.Info("voice pipeline listening",
		"port", cfg.Port,
		"model", cfg.OllamaModel,
		"voice", cfg.PiperVoice,
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// probeSidecars checks each upstream service once at startup. Failures
// are logged, not fatal: sidecars often come up after the relay, and
// every call path reports its own errors per turn.
func probeSidecars(transcriber stt.Transcriber, responder llm.Provider, synthesizer tts.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := transcriber.Health(ctx); err != nil {
		log.Warn("transcription sidecar unreachable", "error", err)
	}
	if err := responder.Health(ctx); err != nil {
		log.Warn("language model unreachable", "error", err)
	}
	if err := synthesizer.Health(ctx); err != nil {
		log.Warn("synthesis sidecar unreachable", "error", err)
	}
}

// server wires the pipeline stages into the HTTP app.
type server struct {
	cfg         *config.Config
	transcriber stt.Transcriber
	responder   llm.Provider
	synthesizer tts.Provider
}

func (s *server) newApp(debug bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "voice-pipeline",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if debug {
		app.Use(fiberlogger.New())
	}

	app.Get("/health", s.handleHealth)
	app.Post("/synthesize", s.handleSynthesize)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.handleWS))

	return app
}

func (s *server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"model":  s.cfg.OllamaModel,
		"voice":  s.cfg.PiperVoice,
	})
}

// handleSynthesize renders one text fragment to a WAV file. Useful for
// auditioning voices without a WebSocket client.
func (s *server) handleSynthesize(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	result, err := s.synthesizer.Synthesize(c.Context(), req.Text)
	if err != nil {
		if errors.Is(err, tts.ErrEmptyText) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text is required"})
		}
		log.Error("synthesis failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "synthesis failed"})
	}

	c.Set("Content-Type", "audio/wav")
	return c.Send(audio.WAVBytes(result.Audio, result.Format.SampleRate))
}

// handleWS owns one client connection: it creates the Session, starts
// the single writer goroutine, and feeds inbound frames to the session
// one at a time. A turn pipeline therefore runs to completion before
// the next frame is dispatched, which is the session's serialization
// contract.
func (s *server) handleWS(c *websocket.Conn) {
	sess := session.New(s.transcriber, s.responder, s.synthesizer,
		session.WithSystemPrompt(s.cfg.SystemPrompt),
		session.WithLogger(log.L()),
	)
	logger := log.With("session_id", sess.ID)
	logger.Info("client connected", "remote", c.RemoteAddr().String())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writePump(c, sess)
	}()

	c.SetReadLimit(maxMessageSize)
	c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			logger.Info("client disconnected", "error", err)
			break
		}
		c.SetReadDeadline(time.Now().Add(pongWait))
		if err := sess.HandleMessage(raw); err != nil {
			logger.Info("session stopped", "error", err)
			break
		}
	}

	// Cancels any in-flight turn and closes the outbound queue, which
	// stops the writer.
	sess.Close()
	<-writerDone
	c.Close()
}

// writePump is the only goroutine that writes to the connection. It
// drains the session's outbound queue and keeps the connection alive
// with pings; on a write failure it cancels the session so a pipeline
// blocked on a dead client unwinds.
func writePump(c *websocket.Conn, sess *session.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-sess.Out():
			if !ok {
				c.SetWriteDeadline(time.Now().Add(writeWait))
				c.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
				sess.Cancel()
				return
			}
		case <-ticker.C:
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				sess.Cancel()
				return
			}
		}
	}
}

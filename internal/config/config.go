// Package config provides environment-driven configuration for the
// voice relay server.
package config

import (
	"os"
	"strconv"
)

// DefaultSystemPrompt is the assistant persona used when SYSTEM_PROMPT is unset.
const DefaultSystemPrompt = "You are a helpful voice assistant. Keep your responses very brief and concise—ideally 1 sentence. " +
	"Speak naturally as if having a conversation. Avoid lists, markdown, or lengthy explanations unless explicitly asked. " +
	"The user sometimes makes typos or autocorrects the wrong thing. Make assumptions about what they may have meant and respond as if they said that."

// Config holds process-level settings for the relay server.
type Config struct {
	// Server
	Port     string
	LogLevel string

	// LLM (Ollama)
	OllamaURL    string
	OllamaModel  string
	SystemPrompt string

	// STT (Whisper sidecar)
	WhisperURL   string
	STTLanguage  string
	STTModelRate int // sample rate the model expects

	// TTS (Piper sidecar)
	PiperURL      string
	PiperVoice    string
	TTSSampleRate int
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Port:     env("PORT", "8000"),
		LogLevel: env("LOG_LEVEL", "info"),

		OllamaURL:    env("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:  env("OLLAMA_MODEL", "gemma3n:e2b"),
		SystemPrompt: env("SYSTEM_PROMPT", DefaultSystemPrompt),

		WhisperURL:   env("WHISPER_URL", "http://localhost:8090"),
		STTLanguage:  env("STT_LANGUAGE", "en"),
		STTModelRate: envInt("STT_MODEL_RATE", 16000),

		PiperURL:      env("PIPER_URL", "http://localhost:5000"),
		PiperVoice:    env("PIPER_VOICE", "en_US-lessac-medium"),
		TTSSampleRate: envInt("TTS_SAMPLE_RATE", 22050),
	}
}

// env returns the environment variable value or the default if unset.
func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt returns the environment variable parsed as int, or the default.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

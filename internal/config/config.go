// Package config loads daemon settings from the environment, with a
// .env file as the usual source.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the daemon needs at boot.
type Config struct {
	// Dashboard REST API.
	APIBaseURL string
	APITimeout time.Duration

	// Transcription backend: "whisper" or "openai".
	STTEngine    string
	WhisperModel string
	OpenAIKey    string
	OpenAIModel  string
	SocksProxy   string // empty = direct connection

	// Capture endpointing.
	SilenceRMS      float64
	TrailingSilence time.Duration
	MaxUtterance    time.Duration

	// Pipeline behaviour.
	Refractory      time.Duration // ignore wake triggers this long after a cycle
	RegistryRefresh time.Duration // custom metric re-fetch interval

	// Local resources.
	FoodDBPath string // offline food database; empty = resolve via the API
	TonePath   string
	IPCSocket  string
	WakeURL    string // wake hub websocket; empty = IPC only
}

// Load reads envFile (if present) and then the process environment.
func Load(envFile string) Config {
	godotenv.Load(envFile)

	return Config{
		APIBaseURL: envStr("HEALTH_API_URL", "http://127.0.0.1:5000"),
		APITimeout: envDur("HEALTH_API_TIMEOUT", 10*time.Second),

		STTEngine:    envStr("STT_ENGINE", "whisper"),
		WhisperModel: envStr("WHISPER_MODEL", "models/ggml-base.en.bin"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  os.Getenv("OPENAI_STT_MODEL"),
		SocksProxy:   os.Getenv("SOCKS_PROXY"),

		SilenceRMS:      envFloat("SILENCE_RMS", 0.015),
		TrailingSilence: envDur("TRAILING_SILENCE", 1500*time.Millisecond),
		MaxUtterance:    envDur("MAX_UTTERANCE", 10*time.Second),

		Refractory:      envDur("TRIGGER_REFRACTORY", 1*time.Second),
		RegistryRefresh: envDur("REGISTRY_REFRESH", 5*time.Minute),

		FoodDBPath: os.Getenv("FOOD_DB_PATH"),
		TonePath:   envStr("ACK_TONE", "beep.mp3"),
		IPCSocket:  os.Getenv("IPC_SOCKET"),
		WakeURL:    os.Getenv("WAKE_WS_URL"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

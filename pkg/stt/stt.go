package stt

import (
	"context"
	"time"
)

// Transcript is one transcribed utterance. Produced by an Engine,
// consumed once by the command pipeline, then discarded.
type Transcript struct {
	Text       string
	CapturedAt time.Time
	Engine     string
	Confidence float64 // 0 when the backend reports none
}

// Engine is a pluggable speech-to-text backend. One is selected at
// startup from configuration; the pipeline issues a single blocking
// Transcribe per command cycle.
type Engine interface {
	Name() string
	// Transcribe expects mono 16 kHz float32 PCM in [-1, 1].
	Transcribe(ctx context.Context, pcm16k []float32) (Transcript, error)
	Close() error
}

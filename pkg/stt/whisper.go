package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperOptions tune the local whisper.cpp backend.
type WhisperOptions struct {
	Language      string // default "en"
	Threads       int    // <=0 => NumCPU()
	BeamSize      int    // 0 = greedy
	InitialPrompt string // biases decoding toward expected vocabulary
}

// commandPrompt nudges whisper toward the short logging phrases it will
// actually hear, which noticeably helps with spoken numbers.
const commandPrompt = "Health logging commands: add 500 calories, " +
	"slept seven and a half hours, woke up at 7:30 AM, weight 180 pounds, " +
	"30 minute workout, vegetables 2 servings."

// Whisper transcribes captured utterances with a local whisper.cpp model.
type Whisper struct {
	model whisper.Model
	opt   WhisperOptions
}

func NewWhisper(modelPath string, opt WhisperOptions) (*Whisper, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}
	if opt.Language == "" {
		opt.Language = "en"
	}
	if opt.InitialPrompt == "" {
		opt.InitialPrompt = commandPrompt
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return &Whisper{model: m, opt: opt}, nil
}

func (w *Whisper) Name() string { return "whisper" }

func (w *Whisper) Close() error {
	if w.model == nil {
		return nil
	}
	return w.model.Close()
}

func (w *Whisper) Transcribe(ctx context.Context, pcm16k []float32) (Transcript, error) {
	if w.model == nil {
		return Transcript{}, errors.New("nil model")
	}
	if len(pcm16k) == 0 {
		return Transcript{}, errors.New("no audio samples provided")
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return Transcript{}, fmt.Errorf("new context: %w", err)
	}

	if err := wctx.SetLanguage(w.opt.Language); err != nil {
		return Transcript{}, fmt.Errorf("set language: %w", err)
	}
	threads := w.opt.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))
	if w.opt.BeamSize > 0 {
		wctx.SetBeamSize(w.opt.BeamSize)
	}
	wctx.SetInitialPrompt(w.opt.InitialPrompt)

	if err := wctx.Process(pcm16k, nil, nil, nil); err != nil {
		return Transcript{}, fmt.Errorf("process: %w", err)
	}

	var parts []string
	for {
		select {
		case <-ctx.Done():
			return Transcript{}, ctx.Err()
		default:
		}

		s, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Transcript{}, fmt.Errorf("next segment: %w", err)
		}
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}

	return Transcript{
		Text:       strings.Join(parts, " "),
		CapturedAt: time.Now(),
		Engine:     w.Name(),
	}, nil
}

// Package pipeline runs the command cycle: wake trigger, capture,
// transcription, parsing and dispatch, one utterance at a time.
package pipeline

import (
	"context"
	"errors"
	log "log/slog"
	"sync/atomic"
	"time"

	"healthvoice/internal/audio"
	"healthvoice/internal/dispatch"
	"healthvoice/internal/food"
	"healthvoice/internal/nlu"
	"healthvoice/pkg/stt"
)

// Phase is where the pipeline currently is. Exactly one cycle runs at
// a time; triggers arriving outside Idle are dropped.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseArmed
	PhaseCapturing
	PhaseTranscribing
	PhaseParsing
	PhaseDispatching
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseCapturing:
		return "capturing"
	case PhaseTranscribing:
		return "transcribing"
	case PhaseParsing:
		return "parsing"
	case PhaseDispatching:
		return "dispatching"
	}
	return "unknown"
}

// Capturer records one utterance from the microphone.
type Capturer interface {
	Capture(audio.CaptureOptions) ([]float32, error)
}

// Executor sends a routed request to the dashboard.
type Executor interface {
	Execute(ctx context.Context, req *dispatch.LogActionRequest) dispatch.Result
}

// Deps wires the pipeline together. Speak and Beep may be nil.
type Deps struct {
	Recorder Capturer
	Ducker   *audio.Ducker
	Engine   stt.Engine
	Registry *nlu.Registry
	Router   *dispatch.Router
	Executor Executor
	Speak    func(string) error
	Beep     func() error

	CaptureOpts audio.CaptureOptions
	Refractory  time.Duration // wake triggers ignored this long after a cycle
	STTTimeout  time.Duration
}

type trigger struct {
	text string // non-empty bypasses capture and transcription
}

// Orchestrator owns the cycle state machine.
type Orchestrator struct {
	deps Deps

	phase    atomic.Int32
	lastDone atomic.Int64 // unix nanos of the last cycle's end
	triggers chan trigger
}

func New(deps Deps) *Orchestrator {
	if deps.STTTimeout <= 0 {
		deps.STTTimeout = 60 * time.Second
	}
	return &Orchestrator{
		deps:     deps,
		triggers: make(chan trigger, 1),
	}
}

func (o *Orchestrator) Phase() Phase {
	return Phase(o.phase.Load())
}

// Trigger arms the pipeline for a microphone cycle. It reports false
// when the trigger was dropped: a cycle is already running, or the
// refractory window after the previous cycle has not elapsed.
func (o *Orchestrator) Trigger() bool {
	return o.arm(trigger{})
}

// TriggerText runs the parse and dispatch stages on text directly,
// skipping capture and transcription. Same drop rules as Trigger.
func (o *Orchestrator) TriggerText(text string) bool {
	if text == "" {
		return false
	}
	return o.arm(trigger{text: text})
}

func (o *Orchestrator) arm(t trigger) bool {
	if o.deps.Refractory > 0 {
		last := o.lastDone.Load()
		if last != 0 && time.Since(time.Unix(0, last)) < o.deps.Refractory {
			log.Debug("Trigger inside refractory window, dropped")
			return false
		}
	}
	if !o.phase.CompareAndSwap(int32(PhaseIdle), int32(PhaseArmed)) {
		log.Debug("Trigger while busy, dropped", "phase", o.Phase())
		return false
	}
	o.triggers <- t
	return true
}

// Run services triggers until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-o.triggers:
			o.cycle(ctx, t)
			o.lastDone.Store(time.Now().UnixNano())
			o.phase.Store(int32(PhaseIdle))
		}
	}
}

func (o *Orchestrator) cycle(ctx context.Context, t trigger) {
	text := t.text
	if text == "" {
		pcm, ok := o.capture(ctx)
		if !ok {
			return
		}
		var done bool
		text, done = o.transcribe(ctx, pcm)
		if !done {
			return
		}
	}

	o.phase.Store(int32(PhaseParsing))
	intent, err := nlu.Parse(text, o.deps.Registry.Snapshot())
	if err != nil {
		log.Info("No command matched", "text", text)
		o.say("Sorry, I didn't understand that command.")
		return
	}
	log.Info("Parsed command", "kind", intent.Kind.String(), "value", intent.Quantity)

	o.phase.Store(int32(PhaseDispatching))
	req, err := o.deps.Router.Route(ctx, intent)
	if err != nil {
		log.Warn("Routing failed", "err", err)
		if errors.Is(err, food.ErrNotFound) {
			o.say("I couldn't find " + intent.Food + " in the food database.")
		} else {
			o.say("Sorry, something went wrong.")
		}
		return
	}

	res := o.deps.Executor.Execute(ctx, req)
	if !res.OK {
		log.Warn("Dispatch failed", "err", res.Err)
	}
	o.say(res.Message)
}

// capture records the utterance, ducking other audio while the mic is
// open. A silent window ends the cycle without reaching the engine.
func (o *Orchestrator) capture(ctx context.Context) ([]float32, bool) {
	o.phase.Store(int32(PhaseCapturing))

	if o.deps.Beep != nil {
		if err := o.deps.Beep(); err != nil {
			log.Warn("Ack tone failed", "err", err)
		}
	}
	if o.deps.Ducker != nil {
		if err := o.deps.Ducker.DuckOthers(ctx, 0.3, 200*time.Millisecond); err != nil {
			log.Warn("Ducking failed", "err", err)
		}
		defer func() {
			if err := o.deps.Ducker.UnduckOthers(ctx, 200*time.Millisecond); err != nil {
				log.Warn("Unducking failed", "err", err)
			}
		}()
	}

	pcm, err := o.deps.Recorder.Capture(o.deps.CaptureOpts)
	if errors.Is(err, audio.ErrNoSpeech) {
		log.Info("Capture timed out, nothing said")
		return nil, false
	}
	if err != nil {
		log.Error("Capture failed", "err", err)
		return nil, false
	}
	log.Info("Captured utterance", "samples", len(pcm))
	return pcm, true
}

func (o *Orchestrator) transcribe(ctx context.Context, pcm []float32) (string, bool) {
	o.phase.Store(int32(PhaseTranscribing))

	tctx, cancel := context.WithTimeout(ctx, o.deps.STTTimeout)
	defer cancel()

	tr, err := o.deps.Engine.Transcribe(tctx, pcm)
	if err != nil {
		log.Error("Transcription failed", "engine", o.deps.Engine.Name(), "err", err)
		o.say("Sorry, I couldn't make that out.")
		return "", false
	}
	log.Info("Transcribed", "text", tr.Text, "engine", tr.Engine)
	return tr.Text, true
}

func (o *Orchestrator) say(msg string) {
	if o.deps.Speak == nil || msg == "" {
		return
	}
	if err := o.deps.Speak(msg); err != nil {
		log.Error("TTS failed", "err", err)
	}
}

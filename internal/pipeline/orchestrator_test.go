package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvoice/internal/audio"
	"healthvoice/internal/dispatch"
	"healthvoice/internal/nlu"
	"healthvoice/pkg/stt"
)

type fakeCapturer struct {
	pcm []float32
	err error
}

func (f *fakeCapturer) Capture(audio.CaptureOptions) ([]float32, error) {
	return f.pcm, f.err
}

type fakeEngine struct {
	mu    sync.Mutex
	text  string
	calls int
}

func (f *fakeEngine) Name() string { return "fake" }
func (f *fakeEngine) Close() error { return nil }

func (f *fakeEngine) Transcribe(_ context.Context, _ []float32) (stt.Transcript, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return stt.Transcript{Text: f.text, Engine: "fake"}, nil
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeExecutor struct {
	got     chan *dispatch.LogActionRequest
	release chan struct{} // when non-nil, Execute blocks until closed
	result  dispatch.Result
}

func (f *fakeExecutor) Execute(_ context.Context, req *dispatch.LogActionRequest) dispatch.Result {
	if f.release != nil {
		<-f.release
	}
	f.got <- req
	return f.result
}

type spokenLog struct {
	mu   sync.Mutex
	msgs []string
}

func (s *spokenLog) speak(msg string) error {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
	return nil
}

func (s *spokenLog) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

func startOrchestrator(t *testing.T, deps Deps) *Orchestrator {
	t.Helper()
	o := New(deps)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go o.Run(ctx)
	return o
}

func waitIdle(t *testing.T, o *Orchestrator) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.Phase() == PhaseIdle {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("pipeline stuck in phase %s", o.Phase())
}

func TestFullCycleFromAudio(t *testing.T) {
	exec := &fakeExecutor{
		got:    make(chan *dispatch.LogActionRequest, 1),
		result: dispatch.Result{OK: true, Message: "Added 500 calories"},
	}
	engine := &fakeEngine{text: "Add 500 calories"}
	voice := &spokenLog{}

	o := startOrchestrator(t, Deps{
		Recorder: &fakeCapturer{pcm: make([]float32, 16000)},
		Engine:   engine,
		Registry: nlu.NewRegistry(),
		Router:   dispatch.NewRouter(nil),
		Executor: exec,
		Speak:    voice.speak,
	})

	require.True(t, o.Trigger())

	select {
	case req := <-exec.got:
		assert.Equal(t, nlu.KindCalories, req.Kind)
		assert.Equal(t, 500.0, req.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch never happened")
	}
	waitIdle(t, o)
	assert.Contains(t, voice.all(), "Added 500 calories")
}

func TestSilentCaptureSkipsTranscription(t *testing.T) {
	engine := &fakeEngine{text: "should never be used"}
	exec := &fakeExecutor{got: make(chan *dispatch.LogActionRequest, 1)}

	o := startOrchestrator(t, Deps{
		Recorder: &fakeCapturer{err: audio.ErrNoSpeech},
		Engine:   engine,
		Registry: nlu.NewRegistry(),
		Router:   dispatch.NewRouter(nil),
		Executor: exec,
	})

	require.True(t, o.Trigger())
	waitIdle(t, o)

	assert.Zero(t, engine.callCount())
	assert.Empty(t, exec.got)
}

func TestTriggerDroppedWhileBusy(t *testing.T) {
	release := make(chan struct{})
	exec := &fakeExecutor{
		got:     make(chan *dispatch.LogActionRequest, 1),
		release: release,
		result:  dispatch.Result{OK: true, Message: "ok"},
	}

	o := startOrchestrator(t, Deps{
		Registry: nlu.NewRegistry(),
		Router:   dispatch.NewRouter(nil),
		Executor: exec,
	})

	require.True(t, o.TriggerText("add 100 calories"))

	// The cycle is blocked inside Execute; further triggers must drop.
	deadline := time.Now().Add(2 * time.Second)
	for o.Phase() != PhaseDispatching && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.False(t, o.Trigger())
	assert.False(t, o.TriggerText("add 200 calories"))

	close(release)
	req := <-exec.got
	assert.Equal(t, 100.0, req.Value)
	waitIdle(t, o)
}

func TestRefractoryWindowDropsTrigger(t *testing.T) {
	exec := &fakeExecutor{
		got:    make(chan *dispatch.LogActionRequest, 2),
		result: dispatch.Result{OK: true, Message: "ok"},
	}

	o := startOrchestrator(t, Deps{
		Registry:   nlu.NewRegistry(),
		Router:     dispatch.NewRouter(nil),
		Executor:   exec,
		Refractory: time.Hour,
	})

	require.True(t, o.TriggerText("add 100 calories"))
	<-exec.got
	waitIdle(t, o)

	assert.False(t, o.TriggerText("add 200 calories"))
}

func TestUnrecognizedUtteranceSpeaksApology(t *testing.T) {
	exec := &fakeExecutor{got: make(chan *dispatch.LogActionRequest, 1)}
	voice := &spokenLog{}

	o := startOrchestrator(t, Deps{
		Registry: nlu.NewRegistry(),
		Router:   dispatch.NewRouter(nil),
		Executor: exec,
		Speak:    voice.speak,
	})

	require.True(t, o.TriggerText("what's the weather like"))
	waitIdle(t, o)

	assert.Empty(t, exec.got)
	assert.Contains(t, voice.all(), "Sorry, I didn't understand that command.")
}

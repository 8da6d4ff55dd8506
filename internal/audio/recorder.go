package audio

import (
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

// SampleRate matches what the transcription engines expect.
const SampleRate = 16000

const frameSize = 320 // 20ms at 16 kHz

// ErrNoSpeech means the capture window elapsed without the energy ever
// crossing the speech threshold.
var ErrNoSpeech = errors.New("no speech detected")

// CaptureOptions control utterance endpointing.
type CaptureOptions struct {
	SilenceRMS      float64       // energy below this counts as silence
	TrailingSilence time.Duration // silence after speech that ends the utterance
	MaxUtterance    time.Duration // hard cap on a single capture
}

func (o *CaptureOptions) defaults() {
	if o.SilenceRMS <= 0 {
		o.SilenceRMS = 0.015
	}
	if o.TrailingSilence <= 0 {
		o.TrailingSilence = 1500 * time.Millisecond
	}
	if o.MaxUtterance <= 0 {
		o.MaxUtterance = 10 * time.Second
	}
}

// Recorder owns the portaudio session.
type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Capture records one utterance from the default input device. It waits
// for speech, then stops once TrailingSilence of quiet follows it, or
// when MaxUtterance is reached. Returns ErrNoSpeech if nothing was said.
func (r *Recorder) Capture(opt CaptureOptions) ([]float32, error) {
	opt.defaults()

	buf := make([]float32, frameSize)
	out := make([]float32, 0, SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	const frameDur = frameSize * time.Second / SampleRate

	var (
		speaking bool
		silence  time.Duration
	)

	maxFrames := int(opt.MaxUtterance / frameDur)
	for i := 0; i < maxFrames; i++ {
		if err := stream.Read(); err != nil {
			return nil, err
		}

		if frameRMS(buf) > opt.SilenceRMS {
			speaking = true
			silence = 0
			out = append(out, buf...)
			continue
		}
		if !speaking {
			continue
		}
		silence += frameDur
		if silence >= opt.TrailingSilence {
			break
		}
		out = append(out, buf...)
	}

	if !speaking {
		return nil, ErrNoSpeech
	}
	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}

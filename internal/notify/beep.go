// Package notify plays the acknowledgement tone and raises desktop
// notifications while the daemon is listening.
package notify

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

var speakerOnce sync.Once

// Beep plays the ack tone at soundPath so the user knows capture
// started. A missing tone file should not break the pipeline, so the
// error is returned for logging rather than spoken.
func Beep(soundPath string) error {
	f, err := os.Open(soundPath)
	if err != nil {
		return fmt.Errorf("open tone: %w", err)
	}
	defer f.Close()

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		return fmt.Errorf("decode tone: %w", err)
	}
	defer streamer.Close()

	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if initErr != nil {
		return fmt.Errorf("init speaker: %w", initErr)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}

// Notify shows a transient desktop notification. Best effort.
func Notify(text string) {
	exec.Command("notify-send", "-t", "2000", "healthvoice", text).Run()
}

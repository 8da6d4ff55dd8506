// Package wake subscribes to wake events published by an external
// wake-word engine over a websocket hub.
package wake

import (
	"context"
	"encoding/json"
	log "log/slog"
	"time"

	ws "github.com/gorilla/websocket"
)

// Event is one message from the wake hub. Kind "wake" arms the
// pipeline; Kind "text" carries a pre-transcribed utterance (used by
// push-to-talk clients that do their own STT).
type Event struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
}

// Subscriber keeps a websocket connection to the wake hub alive and
// delivers events to a callback.
type Subscriber struct {
	url     string
	reconn  time.Duration
	handler func(Event)
}

func NewSubscriber(url string, reconnectEvery time.Duration, handler func(Event)) *Subscriber {
	if reconnectEvery <= 0 {
		reconnectEvery = 3 * time.Second
	}
	return &Subscriber{url: url, reconn: reconnectEvery, handler: handler}
}

// Run blocks, reading events until ctx is cancelled. Connection drops
// are retried forever; the daemon keeps working via IPC meanwhile.
func (s *Subscriber) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := ws.DefaultDialer.DialContext(ctx, s.url, nil)
		if err != nil {
			log.Warn("Wake hub unreachable, retrying", "url", s.url, "err", err)
			if !sleepCtx(ctx, s.reconn) {
				return
			}
			continue
		}
		log.Info("Connected to wake hub", "url", s.url)

		s.readLoop(ctx, conn)
		conn.Close()

		if !sleepCtx(ctx, s.reconn) {
			return
		}
	}
}

func (s *Subscriber) readLoop(ctx context.Context, conn *ws.Conn) {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if isClosed(err) {
				log.Warn("Wake hub connection closed", "err", err)
			} else {
				log.Error("Wake hub read failed", "err", err)
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			log.Warn("Malformed wake event", "msg", string(msg), "err", err)
			continue
		}
		s.handler(ev)
	}
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

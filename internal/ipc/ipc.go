// Package ipc exposes a unix-socket control channel so a hotkey or
// shell script can poke the running daemon.
package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

// DefaultSocketPath is used when no socket path is configured.
const DefaultSocketPath = "/tmp/healthvoice.sock"

// ControlMessage is one command over the socket. Known commands:
//
//	trigger  start a listen/transcribe/dispatch cycle
//	text     run the pipeline on Arg instead of the microphone
//	refresh  re-fetch custom metric definitions
//	say      speak Arg through the TTS engine
type ControlMessage struct {
	Cmd string `json:"cmd"`
	Arg string `json:"arg,omitempty"`
}

func StartServer(path string, handler func(ControlMessage)) error {
	if path == "" {
		path = DefaultSocketPath
	}
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return nil
}

func handleConn(conn net.Conn, handler func(ControlMessage)) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		return
	}
	handler(msg)
}

func Send(path string, msg ControlMessage) error {
	if path == "" {
		path = DefaultSocketPath
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(msg)
}

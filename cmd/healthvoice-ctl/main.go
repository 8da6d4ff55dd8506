package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"healthvoice/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", "", "Daemon control socket path")
	cli.Parse()

	args := cli.Args()
	cmd := "trigger"
	if len(args) > 0 {
		cmd = args[0]
	}

	msg := ipc.ControlMessage{Cmd: cmd}
	if len(args) > 1 {
		msg.Arg = strings.Join(args[1:], " ")
	}

	if err := ipc.Send(*socket, msg); err != nil {
		fmt.Println("healthvoiced not running:", err)
		os.Exit(1)
	}
}

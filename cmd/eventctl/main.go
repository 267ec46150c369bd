// eventctl is a command-line client for the event management API. The session persists in
// local storage between runs; see .env.example for configuration.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	con := &console{out: stdout, err: stderr}
	err := rootCommand(&shell{ctx: ctx, con: con}).execute(args, stderr)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	}
	if !con.reported {
		fmt.Fprintln(stderr, "error:", err)
	}
	return 1
}

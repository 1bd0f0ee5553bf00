package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. *App implements
// it; tests provide a lightweight stub.
type execIface interface {
	isConnected() bool
	Connect(ctx context.Context) error
	Resume(ctx context.Context) error
	Projects(ctx context.Context) error
	Sprints(ctx context.Context, projectID string) error
	Sprint(ctx context.Context, uri string) error
	Backlog(ctx context.Context, uri string) error
	Status(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

const (
	helpOffline = "Available commands: connect, resume, status, exit"
	helpOnline  = "Available commands: projects, sprints <project-id>, sprint <uri>, backlog <uri>, status, disconnect, exit"
)

// runREPL reads one command per line from in and dispatches it to a. The
// loop ends on EOF, on "exit"/"quit", or when ctx is done. Command errors are
// printed and do not stop the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader, out io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprintf(out, "scrum %s> ", statusFn())

		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			fmt.Fprintln(out)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isConnected() {
				fmt.Fprintln(out, helpOnline)
			} else {
				fmt.Fprintln(out, helpOffline)
			}

		case "connect", "login":
			cmdErr = a.Connect(ctx)

		case "resume":
			cmdErr = a.Resume(ctx)

		case "projects", "p":
			cmdErr = a.Projects(ctx)

		case "sprints":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: sprints <project-id>")
				continue
			}
			cmdErr = a.Sprints(ctx, args[0])

		case "sprint":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: sprint <uri>")
				continue
			}
			cmdErr = a.Sprint(ctx, args[0])

		case "backlog":
			if len(args) != 1 {
				fmt.Fprintln(out, "Usage: backlog <uri>")
				continue
			}
			cmdErr = a.Backlog(ctx, args[0])

		case "status":
			cmdErr = a.Status(ctx)

		case "disconnect", "logout":
			cmdErr = a.Disconnect(ctx)

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(out, "error:", cmdErr)
		}

		if err != nil {
			return
		}
	}
}

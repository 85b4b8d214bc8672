package clients

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"time"

	"GoRAGAgent/app/runtime"
)

const (
	Intro    = "Ask questions about the speech. Type 'quit' to exit."
	Prompt   = "Query: "
	Farewell = "Goodbye!"

	maxLineSize = 1 << 20
)

var _ Interface = &Console{}

var quitWords = map[string]bool{"quit": true, "exit": true, "q": true}

// Console is the line based question loop.
type Console struct {
	agent       Agent
	in          io.Reader
	out         io.Writer
	sessionID   string
	turnTimeout time.Duration
}

func NewConsole(agent Agent, in io.Reader, out io.Writer, sessionID string, turnTimeout time.Duration) *Console {
	return &Console{
		agent:       agent,
		in:          in,
		out:         out,
		sessionID:   sessionID,
		turnTimeout: turnTimeout,
	}
}

// Run reads questions until quit, end of input or ctx cancellation.
// Failed turns are reported and the loop goes on.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintf(c.out, "%s\n\n", Intro)

	done := make(chan struct{})
	defer close(done)
	lines, readErr := c.readLines(done)

	for {
		if ctx.Err() != nil {
			fmt.Fprintf(c.out, "\n%s\n", Farewell)
			return nil
		}
		fmt.Fprint(c.out, Prompt)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintf(c.out, "\n%s\n", Farewell)
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			if err := <-readErr; err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Fprintf(c.out, "\n%s\n", Farewell)
			return nil
		}
		if ctx.Err() != nil {
			fmt.Fprintf(c.out, "\n%s\n", Farewell)
			return nil
		}

		query := strings.TrimSpace(line)
		if quitWords[strings.ToLower(query)] {
			fmt.Fprintln(c.out, Farewell)
			return nil
		}
		if query == "" {
			continue
		}
		c.turn(ctx, query)
	}
}

// readLines scans input in the background so a blocked read never holds
// Run past cancellation. The line channel is closed at end of input, after
// the scan error (or nil) is sent.
func (c *Console) readLines(done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()
	return lines, readErr
}

func (c *Console) turn(ctx context.Context, query string) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(c.out, "Error: panic: %v\n\n%s\n", r, debug.Stack())
		}
	}()

	if c.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.turnTimeout)
		defer cancel()
	}

	answer, err := c.agent.Invoke(ctx, c.sessionID, query)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n\n", err)
		var turnErr *runtime.TurnError
		if errors.As(err, &turnErr) && turnErr.Trace != "" {
			fmt.Fprintf(c.out, "%s\n", turnErr.Trace)
		}
		return
	}
	fmt.Fprintf(c.out, "\nAnswer: %s\n\n", answer)
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/model"
	"github.com/hupe1980/agentgroup/orchestrator"
)

// console reads user input line by line and prints every appended message.
type console struct {
	in     *bufio.Scanner
	out    io.Writer
	stream bool

	mu       sync.Mutex
	streamed map[string]bool // agents whose text was already printed as chunks
}

func newConsole(in io.Reader, out io.Writer, stream bool) *console {
	return &console{
		in:       bufio.NewScanner(in),
		out:      out,
		stream:   stream,
		streamed: map[string]bool{},
	}
}

// partial prints streamed text chunks as they arrive.
func (c *console) partial(agentID string, chunk model.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.streamed[agentID] {
		fmt.Fprintf(c.out, "%s (%s) > ", agentID, core.RoleAssistant)
		c.streamed[agentID] = true
	}
	fmt.Fprint(c.out, chunk.Content)
}

// loop runs until the session completes, the input ends, or the user quits.
// With turnsPerInput > 0 each input advances that many turns; otherwise the
// session runs to completion.
func (c *console) loop(ctx context.Context, s *orchestrator.Session, turnsPerInput int) error {
	for {
		fmt.Fprint(c.out, "User > ")
		if !c.in.Scan() {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}

		input := strings.TrimSpace(c.in.Text())
		if quit(input) {
			return nil
		}

		if err := s.SubmitUserMessage(ctx, input); err != nil {
			return err
		}

		err := c.advance(ctx, s, turnsPerInput)

		fmt.Fprintf(c.out, "\n[IS COMPLETED: %t]\n\n", s.IsComplete())

		var fatal *core.FatalAgentError
		switch {
		case errors.As(err, &fatal):
			fmt.Fprintf(c.out, "[ABORTED: %v]\n", fatal)
			return nil
		case err != nil:
			return err
		}

		if s.Status().Terminal() {
			fmt.Fprintf(c.out, "[%s: %s]\n", s.Status(), s.Reason())
			return nil
		}
	}
}

func (c *console) advance(ctx context.Context, s *orchestrator.Session, turnsPerInput int) error {
	if turnsPerInput <= 0 {
		msgs, err := s.RunUntilComplete(ctx)
		c.print(msgs...)
		return err
	}

	for i := 0; i < turnsPerInput && !s.Status().Terminal(); i++ {
		msgs, err := s.Step(ctx)
		c.print(msgs...)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *console) print(msgs ...core.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range msgs {
		switch {
		case m.ToolResult != nil:
			fmt.Fprintf(c.out, "%s (%s) > %s: %s\n", m.Author, m.Role, m.ToolResult.Name, model.ToolResultText(m.ToolResult))
		case len(m.ToolCalls) > 0:
			for _, call := range m.ToolCalls {
				fmt.Fprintf(c.out, "%s (%s) > call %s(%s)\n", m.Author, m.Role, call.Name, call.Arguments)
			}
		case c.stream && c.streamed[m.Author]:
			fmt.Fprintln(c.out)
			delete(c.streamed, m.Author)
		default:
			fmt.Fprintf(c.out, "%s (%s) > %s\n", m.Author, m.Role, m.Content)
		}
	}
}

func quit(input string) bool {
	switch strings.ToLower(input) {
	case "", "exit", "quit", "q":
		return true
	}
	return false
}

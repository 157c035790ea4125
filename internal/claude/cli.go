package claude

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultReadTimeout bounds how long a single stdout read may take before
	// the worker is considered hung and killed.
	DefaultReadTimeout = 10 * time.Minute

	maxLineSize = 4 * 1024 * 1024
)

// CompletionRequest carries everything one worker run needs.
type CompletionRequest struct {
	Prompt          string
	SystemPrompt    string
	Model           string
	MaxTurns        int
	AllowedTools    []string
	DisallowedTools []string
}

// Stream is a finite, single-use sequence of worker events. Events must be
// drained or the stream closed; both paths terminate the worker process.
type Stream interface {
	// Events yields normalized worker events. The channel closes when the
	// worker's output ends, after which Err reports how the run finished.
	Events() <-chan Event
	// Err returns the terminal error of the run, if any. Valid only after
	// the events channel has closed.
	Err() error
	// Close terminates the worker and releases the stream. Safe to call at
	// any time, more than once.
	Close() error
}

// CLI drives the claude command-line worker. One fresh process is spawned per
// RunCompletion call; the prompt goes to its stdin and line-delimited JSON
// records come back on stdout.
type CLI struct {
	path        string
	cwd         string
	readTimeout time.Duration
}

// NewCLI creates a worker launcher. An empty path defaults to "claude" on
// PATH; a zero timeout defaults to DefaultReadTimeout.
func NewCLI(path, cwd string, readTimeout time.Duration) *CLI {
	if path == "" {
		path = "claude"
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &CLI{path: path, cwd: cwd, readTimeout: readTimeout}
}

// RunCompletion spawns a worker for the request and returns its event stream.
// The returned stream is not restartable. Cancelling ctx, closing the stream,
// or a read timeout all kill the worker process.
func (c *CLI) RunCompletion(ctx context.Context, req CompletionRequest) (Stream, error) {
	runCtx, cancel := context.WithCancel(ctx)

	cmd := newCommand(runCtx, c.path, c.buildArgs(req))
	if c.cwd != "" {
		cmd.Dir(c.cwd)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open worker stdout: %w", err)
	}
	stderr := cmd.CaptureStderr()

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start worker %q: %w", c.path, err)
	}

	log.Debug().Str("path", c.path).Str("model", req.Model).Msg("worker started")

	s := &eventStream{
		events: make(chan Event),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer stdin.Close()
		io.WriteString(stdin, req.Prompt)
	}()

	// Lines are shuttled through a channel so the producer can race each
	// read against the timeout and the run context.
	lines := make(chan []byte)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case lines <- line:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go s.run(runCtx, cmd, lines, stderr, c.readTimeout)

	return s, nil
}

// Verify runs a minimal one-turn completion to confirm the worker binary is
// installed and authenticated.
func (c *CLI) Verify(ctx context.Context) error {
	stream, err := c.RunCompletion(ctx, CompletionRequest{Prompt: "Hello", MaxTurns: 1})
	if err != nil {
		return err
	}
	defer stream.Close()

	saw := false
	for ev := range stream.Events() {
		if ev.Kind == EventAssistant || ev.Kind == EventResult {
			saw = true
			break
		}
	}
	if err := stream.Err(); err != nil && !saw {
		return err
	}
	if !saw {
		return fmt.Errorf("worker %q answered with no events", c.path)
	}
	return nil
}

func (c *CLI) buildArgs(req CompletionRequest) []string {
	args := []string{"--print", "--verbose", "--output-format", "stream-json"}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	if req.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(req.MaxTurns))
	}
	if req.SystemPrompt != "" {
		args = append(args, "--system-prompt", req.SystemPrompt)
	}
	if len(req.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(req.AllowedTools, ","))
	}
	if len(req.DisallowedTools) > 0 {
		args = append(args, "--disallowedTools", strings.Join(req.DisallowedTools, ","))
	}
	return args
}

// eventStream implements Stream on top of a running worker process.
type eventStream struct {
	events chan Event
	done   chan struct{}
	cancel context.CancelFunc

	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func (s *eventStream) Events() <-chan Event { return s.events }

func (s *eventStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *eventStream) Close() error {
	s.closeOnce.Do(s.cancel)
	<-s.done
	return nil
}

func (s *eventStream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// run is the producer loop. Every exit path cancels the run context, which
// kills the worker, and reaps the process before the events channel closes.
func (s *eventStream) run(ctx context.Context, cmd *workerCmd, lines <-chan []byte, stderr fmt.Stringer, readTimeout time.Duration) {
	defer close(s.done)
	defer close(s.events)
	defer func() {
		s.cancel()
		cmd.Reap()
	}()

	var parser lineParser
	timer := time.NewTimer(readTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setErr(ctx.Err())
			return

		case <-timer.C:
			s.cancel()
			cmd.Reap()
			log.Warn().Dur("timeout", readTimeout).Msg("worker read timed out, process killed")
			s.setErr(ErrWorkerTimeout)
			return

		case line, ok := <-lines:
			if !ok {
				// normal end of stream: reap and inspect the exit code
				if err := cmd.Reap(); err != nil {
					s.setErr(&WorkerError{
						ExitCode: cmd.ExitCode(),
						Stderr:   strings.TrimSpace(stderr.String()),
					})
				}
				return
			}

			ev, complete := parser.Feed(line)
			if !complete {
				continue
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				s.setErr(ctx.Err())
				return
			}

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(readTimeout)
		}
	}
}

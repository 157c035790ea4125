package claude

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// workerCmd wraps exec.Cmd so the stream producer can reap the process from
// several exit paths without tripping over Wait's call-once rule.
type workerCmd struct {
	cmd    *exec.Cmd
	stderr bytes.Buffer

	waitOnce sync.Once
	waitErr  error
}

func newCommand(ctx context.Context, path string, args []string) *workerCmd {
	cmd := exec.CommandContext(ctx, path, args...)
	// If the process ignores the kill delivered on context cancellation,
	// force Wait to return anyway after a grace period.
	cmd.WaitDelay = 5 * time.Second
	return &workerCmd{cmd: cmd}
}

func (w *workerCmd) Dir(dir string) { w.cmd.Dir = dir }

func (w *workerCmd) StdinPipe() (io.WriteCloser, error) { return w.cmd.StdinPipe() }

func (w *workerCmd) StdoutPipe() (io.ReadCloser, error) { return w.cmd.StdoutPipe() }

// CaptureStderr routes the worker's stderr into a buffer surfaced on failure.
func (w *workerCmd) CaptureStderr() fmt.Stringer {
	w.cmd.Stderr = &w.stderr
	return &w.stderr
}

func (w *workerCmd) Start() error { return w.cmd.Start() }

// Reap waits for the process exactly once and returns its exit error.
func (w *workerCmd) Reap() error {
	w.waitOnce.Do(func() {
		w.waitErr = w.cmd.Wait()
	})
	return w.waitErr
}

// ExitCode reports the exit code after Reap; -1 if the process was killed.
func (w *workerCmd) ExitCode() int {
	if w.cmd.ProcessState == nil {
		return -1
	}
	return w.cmd.ProcessState.ExitCode()
}

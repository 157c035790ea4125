package claude

import (
	"errors"
	"fmt"
)

// ErrWorkerTimeout reports that a read from the worker exceeded the configured
// deadline. The worker has already been killed when this error surfaces.
var ErrWorkerTimeout = errors.New("claude: worker read timed out")

// ErrEmptyResponse reports that the worker finished without producing any
// usable assistant content.
var ErrEmptyResponse = errors.New("claude: worker produced no assistant content")

// WorkerError reports a worker process that exited non-zero after its output
// stream closed normally. Stderr holds the worker's diagnostic output.
type WorkerError struct {
	ExitCode int
	Stderr   string
}

func (e *WorkerError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("claude: worker exited with code %d: %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("claude: worker exited with code %d", e.ExitCode)
}

package memory

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultSweepInterval is how often the sweeper reaps expired sessions.
	DefaultSweepInterval = 5 * time.Minute
)

// Sweeper periodically reaps expired sessions from a SessionStore. The
// service lifecycle owns exactly one sweeper: Start is idempotent and Stop
// cancels the background loop cleanly.
type Sweeper struct {
	store    *SessionStore
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSweeper creates a sweeper for the store. A non-positive interval falls
// back to DefaultSweepInterval.
func NewSweeper(store *SessionStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{store: store, interval: interval}
}

// Start launches the sweep loop. Calling Start on a running sweeper is a
// no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.stop, s.done)
	log.Info().Dur("interval", s.interval).Msg("started session cleanup task")
}

// Stop cancels the sweep loop and waits for it to exit. Stopping an idle
// sweeper is a no-op.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	log.Info().Msg("session cleanup task stopped")
}

func (s *Sweeper) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if reaped := s.store.SweepExpired(); reaped > 0 {
				log.Info().Int("reaped", reaped).Msg("swept expired sessions")
			}
		}
	}
}

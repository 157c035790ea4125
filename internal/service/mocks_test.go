package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mirrorlabs/claude-gateway/internal/claude"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) RunCompletion(ctx context.Context, req claude.CompletionRequest) (claude.Stream, error) {
	args := m.Called(ctx, req)
	if s := args.Get(0); s != nil {
		return s.(claude.Stream), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeStream is a pre-recorded claude.Stream. The event channel is buffered
// and closed up front, so consumers drain it without blocking.
type fakeStream struct {
	events chan claude.Event
	err    error
	closed bool
}

func newFakeStream(err error, events ...claude.Event) *fakeStream {
	ch := make(chan claude.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return &fakeStream{events: ch, err: err}
}

func (f *fakeStream) Events() <-chan claude.Event { return f.events }

func (f *fakeStream) Err() error { return f.err }

func (f *fakeStream) Close() error {
	f.closed = true
	return nil
}

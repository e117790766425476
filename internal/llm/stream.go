// Package llm holds shared plumbing for generation providers.
package llm

import (
	"context"
	"io"
)

// Stream adapts a push-style producer into the pull-style AnswerStream.
// The producer runs in its own goroutine and blocks on emit until the
// consumer calls Recv, so the consumer controls the pace. Close cancels the
// producer's context, releasing the underlying connection; it is safe to call
// Close more than once or after exhaustion.
type Stream struct {
	fragments chan string
	result    chan error
	cancel    context.CancelFunc

	done bool
	err  error
}

// Run starts produce in a goroutine and returns the consuming side.
// produce must return once its context is cancelled; its return value becomes
// the stream's terminal error (nil meaning normal completion, io.EOF to the
// consumer).
func Run(ctx context.Context, produce func(ctx context.Context, emit func(string) error) error) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		fragments: make(chan string),
		result:    make(chan error, 1),
		cancel:    cancel,
	}
	emit := func(fragment string) error {
		select {
		case s.fragments <- fragment:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	go func() {
		defer close(s.fragments)
		s.result <- produce(ctx, emit)
	}()
	return s
}

// Recv returns the next fragment, io.EOF after the final one, or the
// producer's error. After a non-nil return every later call returns the same
// error.
func (s *Stream) Recv() (string, error) {
	if s.done {
		return "", s.err
	}
	fragment, ok := <-s.fragments
	if ok {
		return fragment, nil
	}
	s.done = true
	if err := <-s.result; err != nil {
		s.err = err
	} else {
		s.err = io.EOF
	}
	return "", s.err
}

func (s *Stream) Close() error {
	s.cancel()
	return nil
}

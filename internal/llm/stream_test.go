package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDeliversFragmentsInOrder(t *testing.T) {
	s := Run(context.Background(), func(_ context.Context, emit func(string) error) error {
		for _, f := range []string{"Hello", ", ", "world"} {
			if err := emit(f); err != nil {
				return err
			}
		}
		return nil
	})
	defer s.Close()

	var b strings.Builder
	for {
		fragment, err := s.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b.WriteString(fragment)
	}
	assert.Equal(t, "Hello, world", b.String())

	// Exhausted streams keep returning EOF.
	_, err := s.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestStreamPropagatesMidStreamError(t *testing.T) {
	boom := errors.New("connection reset")
	s := Run(context.Background(), func(_ context.Context, emit func(string) error) error {
		if err := emit("partial"); err != nil {
			return err
		}
		return boom
	})
	defer s.Close()

	fragment, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "partial", fragment)

	_, err = s.Recv()
	assert.ErrorIs(t, err, boom)

	// The error is sticky.
	_, err = s.Recv()
	assert.ErrorIs(t, err, boom)
}

func TestStreamCloseReleasesProducer(t *testing.T) {
	produced := make(chan struct{})
	s := Run(context.Background(), func(ctx context.Context, emit func(string) error) error {
		defer close(produced)
		for {
			if err := emit("fragment"); err != nil {
				return err
			}
		}
	})

	fragment, err := s.Recv()
	require.NoError(t, err)
	assert.Equal(t, "fragment", fragment)

	require.NoError(t, s.Close())
	<-produced // producer exits once the context is cancelled

	require.NoError(t, s.Close(), "double close is harmless")
}

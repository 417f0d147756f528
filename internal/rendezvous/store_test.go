package rendezvous

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenTake(t *testing.T) {
	s := New("test")
	defer s.Close()

	ousted, err := s.Write("k", []byte("payload"))
	require.NoError(t, err)
	assert.Nil(t, ousted)

	got, err := s.Take(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestTakeBeforeWrite(t *testing.T) {
	s := New("test")
	defer s.Close()

	var (
		got     []byte
		takeErr error
		wg      sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		got, takeErr = s.Take(context.Background(), "k")
	}()

	// Give the reader a chance to park before the write arrives.
	time.Sleep(10 * time.Millisecond)
	ousted, err := s.Write("k", []byte("late"))
	require.NoError(t, err)
	assert.Nil(t, ousted)

	wg.Wait()
	require.NoError(t, takeErr)
	assert.Equal(t, []byte("late"), got)
}

func TestTakeTimeoutThenRetry(t *testing.T) {
	s := New("test")
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Take(ctx, "k")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The timed-out waiter must be gone: a retried Take, not the stale
	// reply channel, receives the write.
	done := make(chan struct{})
	var got []byte
	var takeErr error
	go func() {
		defer close(done)
		got, takeErr = s.Take(context.Background(), "k")
	}()
	time.Sleep(20 * time.Millisecond)

	ousted, err := s.Write("k", []byte("payload"))
	require.NoError(t, err)
	assert.Nil(t, ousted)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("retried Take never received the write")
	}
	require.NoError(t, takeErr)
	assert.Equal(t, []byte("payload"), got)
}

func TestTakeTimeoutKeepsLaterWrite(t *testing.T) {
	s := New("test")
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Take(ctx, "k")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// With no waiter left, the write lands in the table for the next Take.
	ousted, err := s.Write("k", []byte("kept"))
	require.NoError(t, err)
	assert.Nil(t, ousted)

	got, err := s.Take(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), got)
}

func TestDoubleWriteReportsOusted(t *testing.T) {
	s := New("test")
	defer s.Close()

	ousted, err := s.Write("k", []byte("first"))
	require.NoError(t, err)
	assert.Nil(t, ousted)

	ousted, err = s.Write("k", []byte("second"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), ousted, "second write must report the value it ousts")

	got, err := s.Take(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestTakeConsumesEntry(t *testing.T) {
	s := New("test")
	defer s.Close()

	_, err := s.Write("k", []byte("once"))
	require.NoError(t, err)

	_, err = s.Take(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Take(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRemove(t *testing.T) {
	s := New("test")
	defer s.Close()

	removed, err := s.Remove("missing")
	require.NoError(t, err, "removing a nonexistent key is not fatal")
	assert.Nil(t, removed)

	_, err = s.Write("k", []byte("v"))
	require.NoError(t, err)
	removed, err = s.Remove("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), removed)
}

func TestCloseFailsParkedReaders(t *testing.T) {
	s := New("test")

	errs := make(chan error, 1)
	go func() {
		_, err := s.Take(context.Background(), "never")
		errs <- err
	}()
	time.Sleep(10 * time.Millisecond)
	s.Close()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("parked reader not released on close")
	}
}

func TestShutdownIsObservable(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	s := New("lifecycle", WithLogger(zerolog.New(lockedWriter{&mu, &buf})))

	s.Close()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("store did not shut down")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, buf.String(), "closing")
}

type lockedWriter struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

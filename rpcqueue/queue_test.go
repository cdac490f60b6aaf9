package rpcqueue

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetFIFO(t *testing.T) {
	q := New(0)
	ctx := context.Background()
	require.NoError(t, q.Put(ctx, 1))
	require.NoError(t, q.Put(ctx, 2))
	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestCloseSignalsEOF(t *testing.T) {
	q := New(0)
	ctx := context.Background()
	require.NoError(t, q.Put(ctx, "a"))
	require.NoError(t, q.Close(ctx))
	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	_, err = q.Get(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestForcePutDropsOldestOnOverflow(t *testing.T) {
	q := New(2)
	q.ForcePut(1)
	q.ForcePut(2)
	q.ForcePut(3) // drops 1
	ctx := context.Background()
	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	v, err = q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestForcePutIsNoopOnceClosed(t *testing.T) {
	q := New(0)
	q.ForceClose()
	q.ForcePut("late") // silently dropped, queue already closed
	_, err := q.Get(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestForceCancelSurfacesErrCancelled(t *testing.T) {
	q := New(0)
	ctx := context.Background()
	require.NoError(t, q.Put(ctx, 1))
	q.ForceCancel()
	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	_, err = q.Get(ctx)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestForceErrorPropagates(t *testing.T) {
	q := New(0)
	boom := assert.AnError
	q.ForceError(boom)
	_, err := q.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPutBlocksUntilCapacityFrees(t *testing.T) {
	q := New(1)
	ctx := context.Background()
	require.NoError(t, q.Put(ctx, 1))

	done := make(chan struct{})
	go func() {
		q.Put(ctx, 2)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Put should have blocked while queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Put should have unblocked once capacity freed")
	}
}

func TestGetRespectsContextCancellation(t *testing.T) {
	q := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := q.Get(ctx)
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Get should have unblocked on ctx cancellation")
	}
}

package jobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"telegram-intent-analyzer/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner() *Runner {
	return NewRunner(logger.New(logger.Config{Level: "error", JSON: true, Output: io.Discard}))
}

func TestRunCoalescesSameKey(t *testing.T) {
	r := newRunner()

	release := make(chan struct{})
	first, started := r.Run("chat:1", func(ctx context.Context) error {
		<-release
		return nil
	})
	require.True(t, started)
	assert.True(t, r.Running("chat:1"))

	second, started := r.Run("chat:1", func(ctx context.Context) error {
		t.Error("coalesced job must not run")
		return nil
	})
	assert.False(t, started)
	assert.Same(t, first, second)

	other, started := r.Run("chat:2", func(ctx context.Context) error { return nil })
	assert.True(t, started, "different keys run independently")

	close(release)
	require.NoError(t, first.Wait(context.Background()))
	require.NoError(t, other.Wait(context.Background()))
	assert.False(t, r.Running("chat:1"))
}

func TestRunReportsError(t *testing.T) {
	r := newRunner()
	boom := errors.New("gateway down")

	h, started := r.Run("dialogs", func(ctx context.Context) error { return boom })
	require.True(t, started)

	err := h.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, h.Err(), boom)
}

func TestRunRecoversPanic(t *testing.T) {
	r := newRunner()

	h, _ := r.Run("chat:3", func(ctx context.Context) error {
		panic("nil map write")
	})

	err := h.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.False(t, r.Running("chat:3"), "panicked job is cleared")
}

func TestRunSameKeyRestartsAfterFinish(t *testing.T) {
	r := newRunner()

	h, _ := r.Run("chat:4", func(ctx context.Context) error { return nil })
	require.NoError(t, h.Wait(context.Background()))

	_, started := r.Run("chat:4", func(ctx context.Context) error { return nil })
	assert.True(t, started)
}

func TestWaitHonorsContext(t *testing.T) {
	r := newRunner()

	release := make(chan struct{})
	defer close(release)
	h, _ := r.Run("slow", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Wait(ctx), context.DeadlineExceeded)
}

package resilience

import (
	"errors"
	"io"
	"testing"

	"telegram-intent-analyzer/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(threshold uint) *CircuitBreaker {
	cfg := DefaultConfig("test")
	cfg.FailureThreshold = threshold
	return New(cfg, logger.New(logger.Config{Level: "error", JSON: true, Output: io.Discard}))
}

func TestExecuteOpensAfterThreshold(t *testing.T) {
	cb := newTestBreaker(3)
	boom := errors.New("connection refused")

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, StateOpen, cb.CurrentState())

	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestExecuteExpectedErrorsKeepBreakerClosed(t *testing.T) {
	cb := newTestBreaker(3)
	denied := errors.New("not signed in")

	for i := 0; i < 10; i++ {
		err := cb.Execute(func() error { return Expected(denied) })
		require.ErrorIs(t, err, denied, "inner error passes through unwrapped")
	}
	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestExecuteSuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker(3)
	boom := errors.New("timeout")

	for i := 0; i < 2; i++ {
		_ = cb.Execute(func() error { return boom })
	}
	require.NoError(t, cb.Execute(func() error { return nil }))

	for i := 0; i < 2; i++ {
		_ = cb.Execute(func() error { return boom })
	}
	assert.Equal(t, StateClosed, cb.CurrentState())
}

func TestExpectedNil(t *testing.T) {
	assert.NoError(t, Expected(nil))
}

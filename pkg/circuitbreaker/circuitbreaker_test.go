package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(Settings{
		Name:                "test",
		Timeout:             time.Minute,
		ConsecutiveFailures: 2,
	})

	boom := errors.New("boom")
	calls := 0
	fail := func() error {
		calls++
		return boom
	}

	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.Equal(t, "open", cb.State())

	assert.ErrorIs(t, cb.Execute(fail), ErrOpen)
	assert.Equal(t, 2, calls, "open breaker must not run the call")
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", Timeout: time.Minute, ConsecutiveFailures: 2})

	boom := errors.New("boom")
	assert.Error(t, cb.Execute(func() error { return boom }))
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Error(t, cb.Execute(func() error { return boom }))
	assert.Equal(t, "closed", cb.State())
}

func TestCircuitBreakerIgnoresCallerCancellation(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", Timeout: time.Minute, ConsecutiveFailures: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		err := cb.ExecuteContext(ctx, func(ctx context.Context) error { return ctx.Err() })
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", cb.State())

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		err := cb.ExecuteContext(context.Background(), func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, "open", cb.State(), "failures with a live context still trip")
}

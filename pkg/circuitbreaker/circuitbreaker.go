package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ErrOpen is returned when the breaker rejects a call without running it.
var ErrOpen = errors.New("circuit breaker is open")

type Settings struct {
	Name string
	// MaxRequests is the number of trial calls let through while half-open.
	MaxRequests uint32
	// Interval clears the failure counts while closed; zero never clears.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
}

// callerGone marks an error caused by the caller's own context ending. It is
// not held against the protected dependency.
type callerGone struct {
	err error
}

func (e callerGone) Error() string { return e.err.Error() }

func (e callerGone) Unwrap() error { return e.err }

type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	threshold := settings.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	return &CircuitBreaker{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        settings.Name,
			MaxRequests: settings.MaxRequests,
			Interval:    settings.Interval,
			Timeout:     settings.Timeout,
			IsSuccessful: func(err error) bool {
				var gone callerGone
				return err == nil || errors.As(err, &gone)
			},
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		}),
	}
}

// Execute runs fn unless the breaker is open. Rejections are reported as ErrOpen.
func (b *CircuitBreaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

// ExecuteContext is Execute for calls bound to ctx. A failure that happens
// after ctx was cancelled or hit its deadline does not count towards tripping.
func (b *CircuitBreaker) ExecuteContext(ctx context.Context, fn func(ctx context.Context) error) error {
	err := b.Execute(func() error {
		err := fn(ctx)
		if err != nil && ctx.Err() != nil {
			return callerGone{err: err}
		}
		return err
	})

	var gone callerGone
	if errors.As(err, &gone) {
		return gone.err
	}
	return err
}

// State returns the breaker state name.
func (b *CircuitBreaker) State() string {
	return b.cb.State().String()
}

package notify

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

type Sender interface {
	Send(ctx context.Context, subject, body string, recipients []string) error
}

// Breaker stops calling the wrapped sender after a run of consecutive
// failures and lets a probe through once openTimeout has passed. While open,
// Send fails fast with gobreaker.ErrOpenState.
type Breaker struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreaker(next Sender, consecutiveFailures uint32, openTimeout time.Duration) *Breaker {
	st := gobreaker.Settings{
		Name:        "mail",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](st)}
}

func (b *Breaker) Send(ctx context.Context, subject, body string, recipients []string) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, subject, body, recipients)
	})
	return err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

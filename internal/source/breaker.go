package source

import (
	"context"
	"errors"
	"time"

	"anzsco-lookup/internal/domain/occupation"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	DefaultBreakerFailures = 5
	DefaultBreakerCooldown = 60 * time.Second
)

// Guarded puts a circuit breaker in front of a Source. The breaker opens
// after consecutive failures and lets a single probe through once the
// cool-down has passed.
type Guarded struct {
	src Source
	cb  *gobreaker.CircuitBreaker
}

func NewGuarded(src Source, failures uint32, cooldown time.Duration, logger *zap.Logger) *Guarded {
	if failures == 0 {
		failures = DefaultBreakerFailures
	}
	if cooldown <= 0 {
		cooldown = DefaultBreakerCooldown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        src.Name(),
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("[Source] breaker state changed",
				zap.String("source", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Guarded{src: src, cb: cb}
}

func (g *Guarded) Name() string { return g.src.Name() }

func (g *Guarded) State() string {
	if g == nil {
		return ""
	}
	return g.cb.State().String()
}

func (g *Guarded) Fetch(ctx context.Context) ([]occupation.Record, error) {
	if g == nil {
		return []occupation.Record{}, nil
	}
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.src.Fetch(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	if err != nil {
		return nil, err
	}
	records, _ := out.([]occupation.Record)
	return records, nil
}

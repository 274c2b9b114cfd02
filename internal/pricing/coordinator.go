// Package pricing runs every price client over a page's games and collects what failed.
package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"barter-enhancer/internal/components/assert"
	"barter-enhancer/internal/components/telemetry"
	"barter-enhancer/internal/game"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("pricing")

const (
	report_coordinator_resolve_all = "coordinator.resolve-all"
	report_coordinator_unresolved  = "coordinator.unresolved"
)

// PriceClient resolves the price fields it owns on every game, in place. Two clients must
// never own the same field.
type PriceClient interface {
	Name() string
	ResolvePrices(ctx context.Context, games []*game.Game) error
}

type Failure struct {
	Client string
	Err    error
}

// Outcome is what happened during ResolveAll. The games themselves hold the results.
type Outcome struct {
	Failures []Failure
	Duration time.Duration
}

func (o Outcome) Ok() bool {
	return len(o.Failures) == 0
}

// Failed is true if the named client failed, its unresolved fields should be shown as a
// failed fetch rather than as unavailable.
func (o Outcome) Failed(client string) bool {
	for _, f := range o.Failures {
		if f.Client == client {
			return true
		}
	}
	return false
}

type Coordinator struct {
	clients []PriceClient
	tel     telemetry.API
}

func NewCoordinator(tel telemetry.API, clients ...PriceClient) Coordinator {
	assert.NotNil(tel, "telemetry")
	for _, client := range clients {
		assert.NotNil(client, "price client")
	}
	return Coordinator{
		clients: clients,
		tel:     telemetry.NewScopedAPI("pricing", tel),
	}
}

// ResolveAll runs every client concurrently and returns once all of them have settled. It never
// fails, a client that errors (or panics) is recorded in the outcome and the others carry on.
func (c Coordinator) ResolveAll(ctx context.Context, games []*game.Game) Outcome {
	ctx, span := tracer.Start(ctx, "coordinator:ResolveAll")
	defer span.End()
	span.SetAttributes(
		attribute.Int("custom.games", len(games)),
		attribute.Int("custom.clients", len(c.clients)),
	)

	start := time.Now()
	errs := make([]error, len(c.clients))

	var wg sync.WaitGroup
	for i, client := range c.clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic: %v", r)
				}
			}()
			errs[i] = client.ResolvePrices(ctx, games)
		}()
	}
	wg.Wait()

	outcome := Outcome{Duration: time.Since(start)}
	for i, err := range errs {
		if err == nil {
			continue
		}
		name := c.clients[i].Name()
		outcome.Failures = append(outcome.Failures, Failure{Client: name, Err: err})
		c.tel.ReportWarning(report_coordinator_resolve_all, name, err)
		span.RecordError(err)
	}
	if !outcome.Ok() {
		span.SetStatus(codes.Error, "some price clients failed")
	}

	c.tel.ReportCount(report_coordinator_unresolved, int64(CountUnresolved(games)))
	c.tel.ReportDebug("resolved prices", len(games), outcome.Duration.String())

	return outcome
}

// CountUnresolved counts the games that have at least one unresolved price field.
func CountUnresolved(games []*game.Game) int {
	n := 0
	for _, g := range games {
		if !g.SteamPrice.Resolved() || !g.ItadPrice.Resolved() || !g.LowestPrice.Resolved() {
			n++
		}
	}
	return n
}

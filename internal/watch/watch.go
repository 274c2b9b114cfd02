// Package watch periodically re-resolves the prices of configured pages, keeping the cache
// warm and mailing the games that reached their historical low.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"barter-enhancer/internal/components/assert"
	"barter-enhancer/internal/components/chrono"
	"barter-enhancer/internal/components/telemetry"
	"barter-enhancer/internal/game"
	"barter-enhancer/internal/notify"
	"barter-enhancer/internal/pricing"
	"barter-enhancer/internal/scrapers/barter"
)

const (
	report_watcher_refresh = "watcher.refresh"
	report_watcher_alerts  = "watcher.alerts"
)

const DefaultCron = "0 */6 * * *"

type Config struct {
	// Cron defaults to DefaultCron.
	Cron    string   `json:"cron"`
	Targets []string `json:"targets"`
}

// PageLoader is the part of the barter client the watcher needs.
type PageLoader interface {
	Load(ctx context.Context, link string) (barter.Page, error)
}

type Resolver interface {
	ResolveAll(ctx context.Context, games []*game.Game) pricing.Outcome
}

type Watcher struct {
	config   Config
	pages    PageLoader
	resolver Resolver
	notifier notify.Notifier
	time     chrono.TimeAPI
	tel      telemetry.API

	mutex sync.Mutex
	// alerted remembers the alerts already sent, by item and price, so the same deal is
	// only mailed once per process.
	alerted map[string]bool
}

func NewWatcher(
	config Config,
	pages PageLoader,
	resolver Resolver,
	notifier notify.Notifier,
	time chrono.TimeAPI,
	tel telemetry.API,
) *Watcher {
	assert.NotNil(pages, "page loader")
	assert.NotNil(resolver, "resolver")
	assert.NotNil(notifier, "notifier")
	assert.NotNil(time, "time api")
	assert.NotNil(tel, "telemetry")

	if config.Cron == "" {
		config.Cron = DefaultCron
	}
	return &Watcher{
		config:   config,
		pages:    pages,
		resolver: resolver,
		notifier: notifier,
		time:     time,
		tel:      telemetry.NewScopedAPI("watch", tel),
		alerted:  map[string]bool{},
	}
}

// Start schedules Refresh on the configured cron spec.
func (w *Watcher) Start(ctx context.Context, cron chrono.CronAPI) error {
	if len(w.config.Targets) == 0 {
		return fmt.Errorf("there are no pages to watch")
	}
	return cron.Cron(w.config.Cron, func() {
		_, err := w.Refresh(ctx)
		if err != nil {
			w.tel.ReportBroken(report_watcher_refresh, err)
		}
	})
}

// AtHistoricalLow is true when the current best price is no higher than the historical low.
func AtHistoricalLow(g *game.Game) (current, lowest game.PriceRecord, ok bool) {
	current, currentOk := g.ItadPrice.Get()
	lowest, lowestOk := g.LowestPrice.Get()
	if !currentOk || !lowestOk {
		return current, lowest, false
	}
	if current.Currency != lowest.Currency {
		return current, lowest, false
	}
	return current, lowest, current.Price <= lowest.Price
}

func alertKey(a notify.Alert) string {
	return fmt.Sprintf("%s@%.2f", a.ItemID, a.Current.Price)
}

// Refresh loads every target page, resolves its prices and sends a digest of the new alerts.
// A failing page does not stop the others, every failure is returned joined.
func (w *Watcher) Refresh(ctx context.Context) (notify.Digest, error) {
	digest := notify.Digest{GeneratedAt: w.time.Now()}

	var errlist []error
	for _, target := range w.config.Targets {
		page, err := w.pages.Load(ctx, target)
		if err != nil {
			errlist = append(errlist, fmt.Errorf("load %s: %w", target, err))
			continue
		}

		games := page.Games.All()
		outcome := w.resolver.ResolveAll(ctx, games)
		for _, failure := range outcome.Failures {
			errlist = append(errlist, fmt.Errorf("%s: %s: %w", target, failure.Client, failure.Err))
		}

		for _, g := range games {
			current, lowest, ok := AtHistoricalLow(g)
			if !ok {
				continue
			}
			alert := notify.Alert{
				Page:    target,
				ItemID:  g.ItemID,
				Title:   g.Title,
				Current: current,
				Lowest:  lowest,
			}
			if w.markAlerted(alert) {
				digest.Alerts = append(digest.Alerts, alert)
			}
		}
	}
	w.tel.ReportCount(report_watcher_alerts, int64(len(digest.Alerts)))

	err := w.notifier.Notify(ctx, digest)
	if err != nil {
		for _, alert := range digest.Alerts {
			w.unmarkAlerted(alert)
		}
		errlist = append(errlist, err)
	}

	return digest, errors.Join(errlist...)
}

func (w *Watcher) markAlerted(alert notify.Alert) bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	key := alertKey(alert)
	if w.alerted[key] {
		return false
	}
	w.alerted[key] = true
	return true
}

func (w *Watcher) unmarkAlerted(alert notify.Alert) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	delete(w.alerted, alertKey(alert))
}

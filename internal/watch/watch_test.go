package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"barter-enhancer/internal/components/chrono"
	"barter-enhancer/internal/components/telemetry"
	"barter-enhancer/internal/game"
	"barter-enhancer/internal/notify"
	"barter-enhancer/internal/pricing"
	"barter-enhancer/internal/scrapers/barter"

	"github.com/stretchr/testify/require"
)

type fakePages map[string][]*game.Game

func (f fakePages) Load(ctx context.Context, link string) (barter.Page, error) {
	games, ok := f[link]
	if !ok {
		return barter.Page{}, errors.New("page not found")
	}
	registry := game.NewRegistry()
	for _, g := range games {
		copied := *g
		registry.Add(&copied)
	}
	return barter.Page{Kind: barter.PageOffer, Url: link, Games: registry}, nil
}

type fakeResolver struct {
	prices map[string][2]float64
	fail   bool
}

func (f fakeResolver) ResolveAll(ctx context.Context, games []*game.Game) pricing.Outcome {
	for _, g := range games {
		p, ok := f.prices[g.ItemID]
		if !ok {
			g.ItadPrice = game.Unavailable[game.PriceRecord]()
			g.LowestPrice = game.Unavailable[game.PriceRecord]()
			continue
		}
		g.ItadPrice = game.Available(game.PriceRecord{Price: p[0], Currency: "USD", ShopName: "GOG"})
		g.LowestPrice = game.Available(game.PriceRecord{Price: p[1], Currency: "USD"})
	}
	if f.fail {
		return pricing.Outcome{Failures: []pricing.Failure{{Client: "steam", Err: errors.New("down")}}}
	}
	return pricing.Outcome{}
}

type fakeNotifier struct {
	digests []notify.Digest
	err     error
}

func (f *fakeNotifier) Notify(ctx context.Context, digest notify.Digest) error {
	if f.err != nil {
		return f.err
	}
	f.digests = append(f.digests, digest)
	return nil
}

type fakeCron struct {
	spec     string
	callback func()
}

func (f *fakeCron) Cron(spec string, callback func()) error {
	f.spec = spec
	f.callback = callback
	return nil
}

func TestAtHistoricalLow(t *testing.T) {
	g := &game.Game{
		ItadPrice:   game.Available(game.PriceRecord{Price: 1, Currency: "USD"}),
		LowestPrice: game.Available(game.PriceRecord{Price: 1, Currency: "USD"}),
	}
	_, _, ok := AtHistoricalLow(g)
	require.True(t, ok)

	g.LowestPrice = game.Available(game.PriceRecord{Price: 1, Currency: "EUR"})
	_, _, ok = AtHistoricalLow(g)
	require.False(t, ok, "prices in different currencies are not compared")

	g.LowestPrice = game.Available(game.PriceRecord{Price: 0.5, Currency: "USD"})
	_, _, ok = AtHistoricalLow(g)
	require.False(t, ok)

	g.LowestPrice = game.Unavailable[game.PriceRecord]()
	_, _, ok = AtHistoricalLow(g)
	require.False(t, ok)
}

func TestRefresh(t *testing.T) {
	pages := fakePages{
		"offer-1": {
			{ItemID: "1", Title: "At low"},
			{ItemID: "2", Title: "Above low"},
		},
		"offer-2": {
			{ItemID: "3", Title: "Below low"},
			{ItemID: "4", Title: "No prices"},
		},
	}
	resolver := fakeResolver{prices: map[string][2]float64{
		"1": {1.99, 1.99},
		"2": {5, 1},
		"3": {0.5, 0.99},
	}}
	notifier := &fakeNotifier{}
	clock := chrono.NewManualTime(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	watcher := NewWatcher(
		Config{Targets: []string{"offer-1", "offer-2", "missing"}},
		pages, resolver, notifier, clock, telemetry.NewRecorder(),
	)

	digest, err := watcher.Refresh(context.Background())
	require.ErrorContains(t, err, "load missing")
	require.Len(t, digest.Alerts, 2)
	require.Equal(t, "At low", digest.Alerts[0].Title)
	require.Equal(t, "offer-2", digest.Alerts[1].Page)
	require.Equal(t, clock.Now(), digest.GeneratedAt)
	require.Len(t, notifier.digests, 1)

	// the same deals are not mailed twice
	digest, _ = watcher.Refresh(context.Background())
	require.Empty(t, digest.Alerts)
}

func TestRefreshNotifyFailure(t *testing.T) {
	pages := fakePages{"offer": {{ItemID: "1", Title: "At low"}}}
	resolver := fakeResolver{prices: map[string][2]float64{"1": {1, 1}}, fail: true}
	notifier := &fakeNotifier{err: errors.New("smtp down")}

	watcher := NewWatcher(
		Config{Targets: []string{"offer"}},
		pages, resolver, notifier, chrono.NewStandardTime(), telemetry.NewRecorder(),
	)

	_, err := watcher.Refresh(context.Background())
	require.ErrorContains(t, err, "smtp down")
	require.ErrorContains(t, err, "steam")

	// the alert was not delivered, so it is retried
	notifier.err = nil
	digest, err := watcher.Refresh(context.Background())
	require.ErrorContains(t, err, "steam")
	require.Len(t, digest.Alerts, 1)
}

func TestStart(t *testing.T) {
	notifier := &fakeNotifier{}
	cron := &fakeCron{}

	watcher := NewWatcher(Config{}, fakePages{}, fakeResolver{}, notifier, chrono.NewStandardTime(), telemetry.NewRecorder())
	require.Error(t, watcher.Start(context.Background(), cron), "no targets")

	tel := telemetry.NewRecorder()
	watcher = NewWatcher(
		Config{Targets: []string{"offer"}},
		fakePages{"offer": {{ItemID: "1"}}},
		fakeResolver{prices: map[string][2]float64{"1": {1, 1}}},
		notifier, chrono.NewStandardTime(), tel,
	)
	require.NoError(t, watcher.Start(context.Background(), cron))
	require.Equal(t, DefaultCron, cron.spec)

	cron.callback()
	require.Len(t, notifier.digests, 1)
	require.Empty(t, tel.Reports("broken", report_watcher_refresh))
}

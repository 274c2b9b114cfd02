package report

import (
	"bytes"
	"errors"
	"testing"

	"barter-enhancer/internal/game"
	"barter-enhancer/internal/pricing"
	"barter-enhancer/internal/stats"

	"github.com/stretchr/testify/require"
)

func TestSteamPriceCell(t *testing.T) {
	testCases := []struct {
		name   string
		field  game.PriceField
		expect string
	}{
		{name: "unresolved", field: game.PriceField{}, expect: "fetch failed"},
		{name: "unavailable", field: game.Unavailable[game.PriceRecord](), expect: "N/A"},
		{
			name:   "free",
			field:  game.Available(game.PriceRecord{Price: 0, PriceOld: 19.99, DiscountPercent: 100, Currency: "USD"}),
			expect: "Free",
		},
		{
			name:   "discounted",
			field:  game.Available(game.PriceRecord{Price: 4.99, PriceOld: 19.99, DiscountPercent: 75, Currency: "USD"}),
			expect: "4.99 USD (75% off)",
		},
		{
			name:   "full price",
			field:  game.Available(game.PriceRecord{Price: 19.99, PriceOld: 19.99, Currency: "EUR"}),
			expect: "19.99 EUR",
		},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, SteamPriceCell(test.field), test.name)
	}
}

func TestShopPriceCell(t *testing.T) {
	require.Equal(t, "fetch failed", ShopPriceCell(game.PriceField{}))
	require.Equal(t, "N/A", ShopPriceCell(game.Unavailable[game.PriceRecord]()))
	require.Equal(t, "GOG: 1.50 USD", ShopPriceCell(game.Available(game.PriceRecord{
		Price: 1.5, Currency: "USD", ShopID: "gog", ShopName: "GOG",
	})))
	require.Equal(t, "0.00 USD", ShopPriceCell(game.Available(game.PriceRecord{Currency: "USD"})))
}

func TestGameCells(t *testing.T) {
	g := &game.Game{Tradable: 10, Wishlist: 30, BundlesAll: 2, BundlesAvailable: 1}
	require.Equal(t, "3.0 (10 : 30)", TradabilityCell(g))
	require.Equal(t, "2 (1 current)", BundlesCell(g))
	require.Equal(t, "none", BundlesCell(&game.Game{}))
	require.Equal(t, "0.0 (0:0)", TradabilityCell(&game.Game{}))
}

func TestRender(t *testing.T) {
	games := []*game.Game{
		{
			ItemID:     "12",
			Title:      "Half-Life 2",
			Direction:  game.DirectionTo,
			Tradable:   10,
			Wishlist:   30,
			SteamPrice: game.Available(game.PriceRecord{Price: 9.99, PriceOld: 9.99, Currency: "USD"}),
			ItadPrice:  game.Unavailable[game.PriceRecord](),
		},
	}

	var out bytes.Buffer
	RenderGames(&out, "You receive", games)
	require.Contains(t, out.String(), "Half-Life 2")
	require.Contains(t, out.String(), "9.99 USD")
	require.Contains(t, out.String(), "fetch failed")

	gameStats, err := stats.CalculateGameStats(games)
	require.NoError(t, err)
	prices := stats.CalculatePriceStats(games)

	out.Reset()
	RenderTradeSummary(&out, "to", gameStats, prices.To, prices.Currency)
	require.Contains(t, out.String(), "Total price on Steam")
	require.NotContains(t, out.String(), "Average price per game", "single game sides have no averages")

	out.Reset()
	RenderFailures(&out, nil)
	require.Empty(t, out.String())

	RenderFailures(&out, []pricing.Failure{{Client: "itad", Err: errors.New("service down")}})
	require.Contains(t, out.String(), "service down")
}

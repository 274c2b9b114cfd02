package stats

import (
	"math/rand/v2"
	"testing"

	"barter-enhancer/internal/game"

	"github.com/google/go-cmp/cmp"
	"github.com/mazen160/go-random"
	"github.com/stretchr/testify/require"
)

func TestTradeRatio(t *testing.T) {
	testCases := []struct {
		tradable  int
		wishlist  int
		expect    Ratio
		expectErr bool
	}{
		{tradable: 0, wishlist: 0, expect: ZeroRatio},
		{tradable: 10, wishlist: 30, expect: Ratio{Real: "10 : 30", Index: "3.0", Summary: "0.3 : 1 (10 : 30)"}},
		{tradable: 3, wishlist: 1, expect: Ratio{Real: "3 : 1", Index: "0.3", Summary: "3.0 : 1 (3 : 1)"}},
		{tradable: 0, wishlist: 5, expect: Ratio{Real: "0 : 5", Index: "inf", Summary: "0.0 : 1 (0 : 5)"}},
		{tradable: 7, wishlist: 0, expect: Ratio{Real: "7 : 0", Index: "0.0", Summary: "inf : 1 (7 : 0)"}},
		{tradable: -1, wishlist: 3, expectErr: true},
		{tradable: 1, wishlist: -3, expectErr: true},
	}

	for _, test := range testCases {
		ratio, err := TradeRatio(test.tradable, test.wishlist)
		if test.expectErr {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Empty(t, cmp.Diff(test.expect, ratio), "%d : %d", test.tradable, test.wishlist)
	}
}

func TestZeroRatioIsStable(t *testing.T) {
	for i := 0; i < 3; i++ {
		ratio, err := TradeRatio(0, 0)
		require.NoError(t, err)
		require.Equal(t, ZeroRatio, ratio)
	}
	require.Equal(t, 0.0, RelativeValue(1999, 0, 0))
}

func TestRelativeValue(t *testing.T) {
	require.InDelta(t, 19.99, RelativeValue(1999, 5, 5), 1e-9)
	require.InDelta(t, 39.98, RelativeValue(1999, 0, 5), 1e-9)
	require.InDelta(t, 0, RelativeValue(1999, 5, 0), 1e-9)
	require.InDelta(t, 15, RelativeValue(1000, 1, 3), 1e-9)
}

func TestFormatting(t *testing.T) {
	require.Equal(t, "12.35 USD", FormatMoney(12.345001, "USD"))
	require.Equal(t, "0.00", FormatMoney(0, ""))
	require.Equal(t, "97", FormatRounded(96.6))
	require.Equal(t, "4.0", FormatRatio(4))
	require.Equal(t, "0.3", FormatRatio(1.0/3))
}

func TestCalculateGameStats(t *testing.T) {
	games := []*game.Game{
		{ItemID: "1", Tradable: 10, Wishlist: 40, ReviewPositive: 90, ReviewTotal: 1000, BundlesAll: 2},
		{ItemID: "2", Tradable: 5, Wishlist: 5, ReviewPositive: 60, ReviewTotal: 3000},
		{ItemID: "3", Tradable: 1, Wishlist: 3, ReviewTotal: 0, BundlesAll: 1},
	}

	stats, err := CalculateGameStats(games)
	require.NoError(t, err)

	require.Equal(t, 3, stats.Games)
	require.Equal(t, 16, stats.TotalTradable)
	require.Equal(t, 48, stats.TotalWishlist)
	require.Equal(t, 1, stats.ZeroReviewGames)
	require.Equal(t, 4000, stats.VoteCount)
	require.Equal(t, 150, stats.PositiveVoteCount)
	require.Equal(t, 2, stats.GamesInBundles)
	require.Equal(t, 3, stats.TotalBundles)
	require.Equal(t, "16 : 48", stats.Ratios.Real)
	require.Equal(t, "3.0", stats.Ratios.Index)

	average, ok := stats.AverageReviewScore()
	require.True(t, ok)
	require.Equal(t, 75.0, average, "the unreviewed game is not part of the average")

	weighted, ok := stats.AverageWeightedReviewScore()
	require.True(t, ok)
	require.Equal(t, 67.5, weighted)
	require.Equal(t, "68", FormatRounded(weighted))

	require.InDelta(t, 11.965784, stats.VoteCountLog2(), 1e-6)
}

func TestCalculateGameStatsEmpty(t *testing.T) {
	stats, err := CalculateGameStats(nil)
	require.NoError(t, err)
	require.Equal(t, ZeroRatio, stats.Ratios)

	_, ok := stats.AverageReviewScore()
	require.False(t, ok)
	_, ok = stats.AverageWeightedReviewScore()
	require.False(t, ok)
	require.Equal(t, 0.0, stats.VoteCountLog2())

	_, err = CalculateGameStats([]*game.Game{{ItemID: "1", Tradable: -2}})
	require.Error(t, err)
}

func TestCalculateGameStatsZeroReviewGame(t *testing.T) {
	stats, err := CalculateGameStats([]*game.Game{{ItemID: "1", ReviewTotal: 0}})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Games)
	require.Equal(t, 0, stats.ReviewedGames())
	_, ok := stats.AverageReviewScore()
	require.False(t, ok)
}

func TestTotalBundlesIsTheSumOfBundles(t *testing.T) {
	for round := 0; round < 50; round++ {
		n := rand.IntN(30)
		games := make([]*game.Game, n)
		expectedBundles := 0
		expectedInBundles := 0
		expectedZeroReviews := 0
		for i := range games {
			id, err := random.String(12)
			require.NoError(t, err)

			g := &game.Game{
				ItemID:      id,
				Tradable:    rand.IntN(100),
				Wishlist:    rand.IntN(100),
				BundlesAll:  rand.IntN(4),
				ReviewTotal: rand.IntN(3) * rand.IntN(5000),
			}
			if g.ReviewTotal > 0 {
				g.ReviewPositive = rand.IntN(101)
			} else {
				expectedZeroReviews++
			}
			expectedBundles += g.BundlesAll
			if g.BundlesAll > 0 {
				expectedInBundles++
			}
			games[i] = g
		}

		stats, err := CalculateGameStats(games)
		require.NoError(t, err)
		require.Equal(t, expectedBundles, stats.TotalBundles)
		require.Equal(t, expectedInBundles, stats.GamesInBundles)
		require.Equal(t, n, stats.Games)
		require.Equal(t, expectedZeroReviews, stats.ZeroReviewGames)
	}
}

func priced(price, old float64, currency string) game.PriceField {
	return game.Available(game.PriceRecord{Price: price, PriceOld: old, Currency: currency})
}

func TestCalculatePriceStats(t *testing.T) {
	games := []*game.Game{
		{
			ItemID:      "1",
			Direction:   game.DirectionTo,
			SteamPrice:  priced(4.99, 19.99, "USD"),
			ItadPrice:   priced(3.5, 19.99, "USD"),
			LowestPrice: priced(1, 0, "USD"),
		},
		{
			ItemID:      "2",
			Direction:   game.DirectionTo,
			SteamPrice:  game.Unavailable[game.PriceRecord](),
			LowestPrice: priced(2, 0, "EUR"),
		},
		{
			ItemID:     "3",
			Direction:  game.DirectionFrom,
			SteamPrice: priced(10, 10, "USD"),
		},
		{ItemID: "4"},
	}

	stats := CalculatePriceStats(games)
	require.Equal(t, "USD", stats.Currency)
	require.True(t, stats.MixedCurrencies)

	require.Equal(t, 2, stats.To.NGames)
	require.InDelta(t, 4.99, stats.To.SteamTotal, 1e-9)
	require.InDelta(t, 19.99, stats.To.SteamTotalOld, 1e-9)
	require.InDelta(t, 3.5, stats.To.ItadTotal, 1e-9)
	require.InDelta(t, 3, stats.To.LowestTotal, 1e-9)
	require.Equal(t, 1, stats.To.SteamPriced)
	require.Equal(t, 2, stats.To.LowestPriced)
	require.InDelta(t, 2.495, stats.To.SteamAverage(), 1e-9)

	require.Equal(t, 1, stats.From.NGames)
	require.InDelta(t, 10, stats.From.SteamTotal, 1e-9)
	require.Equal(t, 0.0, stats.From.ItadAverage())

	require.Equal(t, 4, stats.All.NGames)
	require.InDelta(t, 14.99, stats.All.SteamTotal, 1e-9)
}

package stats

import (
	"math"

	"barter-enhancer/internal/game"
)

// GameStats aggregates the trade counts, reviews and bundles of a list of games.
type GameStats struct {
	Games         int
	TotalTradable int
	TotalWishlist int

	// ZeroReviewGames are excluded from both review averages.
	ZeroReviewGames   int
	VoteCount         int
	PositiveVoteCount int
	// WeightedScoreAccumulator is the sum of review percentage * review count.
	WeightedScoreAccumulator int

	GamesInBundles int
	TotalBundles   int

	Ratios Ratio
}

// CalculateGameStats folds games into a GameStats. It fails only on negative trade counts.
func CalculateGameStats(games []*game.Game) (GameStats, error) {
	var stats GameStats
	for _, g := range games {
		stats.TotalTradable += g.Tradable
		stats.TotalWishlist += g.Wishlist
		if g.ReviewTotal == 0 {
			stats.ZeroReviewGames++
		} else {
			stats.WeightedScoreAccumulator += g.ReviewPositive * g.ReviewTotal
			stats.PositiveVoteCount += g.ReviewPositive
			stats.VoteCount += g.ReviewTotal
		}
		if g.BundlesAll > 0 {
			stats.GamesInBundles++
		}
		stats.TotalBundles += g.BundlesAll
		stats.Games++
	}

	ratios, err := TradeRatio(stats.TotalTradable, stats.TotalWishlist)
	if err != nil {
		return GameStats{}, err
	}
	stats.Ratios = ratios
	return stats, nil
}

// ReviewedGames is the number of games with at least one review.
func (s GameStats) ReviewedGames() int {
	return s.Games - s.ZeroReviewGames
}

// AverageReviewScore is the mean review percentage of the reviewed games, ok is false when
// no game has reviews.
func (s GameStats) AverageReviewScore() (float64, bool) {
	if s.VoteCount == 0 || s.ReviewedGames() == 0 {
		return 0, false
	}
	return float64(s.PositiveVoteCount) / float64(s.ReviewedGames()), true
}

// AverageWeightedReviewScore is the review percentage weighted by each game's review count.
func (s GameStats) AverageWeightedReviewScore() (float64, bool) {
	if s.VoteCount == 0 {
		return 0, false
	}
	return float64(s.WeightedScoreAccumulator) / float64(s.VoteCount), true
}

// VoteCountLog2 is log2 of the vote count, 0 when there are no votes.
func (s GameStats) VoteCountLog2() float64 {
	if s.VoteCount == 0 {
		return 0
	}
	return math.Log2(float64(s.VoteCount))
}

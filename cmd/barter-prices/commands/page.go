package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"barter-enhancer/internal/game"
	"barter-enhancer/internal/pricing"
	"barter-enhancer/internal/report"
	"barter-enhancer/internal/scrapers/barter"
	"barter-enhancer/internal/stats"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(offerCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(pageCmd)
}

var offerCmd = &cobra.Command{
	Use:   "offer <offer url>",
	Short: "Prints the prices and trade statistics of both sides of an offer.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offer, err := current.barter.FetchOffer(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderPage(cmd.Context(), os.Stdout, current.coordinator, barter.Page{
			Kind:  barter.PageOffer,
			Url:   offer.Url,
			Games: offer.Games,
		})
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <tradelist or wishlist match url>",
	Short: "Prints the prices of the games linked on a match page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		match, err := current.barter.FetchMatch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderPage(cmd.Context(), os.Stdout, current.coordinator, barter.Page{
			Kind:  barter.PageMatch,
			Url:   match.Url,
			Games: match.Games,
		})
	},
}

var pageCmd = &cobra.Command{
	Use:   "page <barter.vg url>",
	Short: "Detects whether the url is an offer or a match page and prints it accordingly.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := current.barter.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderPage(cmd.Context(), os.Stdout, current.coordinator, page)
	},
}

type resolver interface {
	ResolveAll(ctx context.Context, games []*game.Game) pricing.Outcome
}

func renderPage(ctx context.Context, w io.Writer, prices resolver, page barter.Page) error {
	games := page.Games.All()
	outcome := prices.ResolveAll(ctx, games)

	switch page.Kind {
	case barter.PageOffer:
		priceStats := stats.CalculatePriceStats(games)
		sides := []struct {
			title     string
			direction game.Direction
			prices    stats.DirectionPrices
		}{
			{"You receive", game.DirectionTo, priceStats.To},
			{"You give", game.DirectionFrom, priceStats.From},
		}
		for _, side := range sides {
			sideGames := page.Games.InDirection(side.direction)
			report.RenderGames(w, side.title, sideGames)
			gameStats, err := stats.CalculateGameStats(sideGames)
			if err != nil {
				return err
			}
			report.RenderTradeSummary(w, side.title+" (summary)", gameStats, side.prices, priceStats.Currency)
		}
		if priceStats.MixedCurrencies {
			fmt.Fprintln(w, "warning: prices are in more than one currency, totals are not comparable")
		}
	default:
		report.RenderGames(w, page.Url, games)
	}

	report.RenderFailures(w, outcome.Failures)
	return nil
}

// Package report renders games, trade summaries and price totals as terminal tables.
package report

import (
	"fmt"
	"io"

	"barter-enhancer/internal/game"
	"barter-enhancer/internal/pricing"
	"barter-enhancer/internal/stats"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	CellFetchFailed = "fetch failed"
	CellUnavailable = "N/A"
	CellFree        = "Free"
)

func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// SteamPriceCell renders a steam price: "Free", "4.99 USD (75% off)" or "19.99 USD".
func SteamPriceCell(field game.PriceField) string {
	switch field.State() {
	case game.StateUnresolved:
		return CellFetchFailed
	case game.StateUnavailable:
		return CellUnavailable
	}
	price, _ := field.Get()
	if price.Price == 0 {
		return CellFree
	}
	cell := stats.FormatMoney(price.Price, price.Currency)
	if price.DiscountPercent != 0 {
		cell += fmt.Sprintf(" (%d%% off)", price.DiscountPercent)
	}
	return cell
}

// ShopPriceCell renders an itad price with the shop it is at: "GOG: 1.99 USD".
func ShopPriceCell(field game.PriceField) string {
	switch field.State() {
	case game.StateUnresolved:
		return CellFetchFailed
	case game.StateUnavailable:
		return CellUnavailable
	}
	price, _ := field.Get()
	amount := stats.FormatMoney(price.Price, price.Currency)
	if price.ShopName == "" {
		return amount
	}
	return fmt.Sprintf("%s: %s", price.ShopName, amount)
}

// TradabilityCell renders "index (tradable : wishlist)".
func TradabilityCell(g *game.Game) string {
	ratio, err := stats.TradeRatio(g.Tradable, g.Wishlist)
	if err != nil {
		return CellUnavailable
	}
	return fmt.Sprintf("%s (%s)", ratio.Index, ratio.Real)
}

// BundlesCell renders "2 (1 current)", or "none" for a game that was never bundled.
func BundlesCell(g *game.Game) string {
	if g.BundlesAll == 0 {
		return "none"
	}
	return fmt.Sprintf("%d (%d current)", g.BundlesAll, g.BundlesAvailable)
}

// RenderGames writes one row per game.
func RenderGames(w io.Writer, title string, games []*game.Game) {
	t := NewTable(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Item", "Title", "Tradability", "Bundles", "Steam", "ITAD", "Lowest"})
	for _, g := range games {
		t.AppendRow(table.Row{
			g.ItemID,
			g.Title,
			TradabilityCell(g),
			BundlesCell(g),
			SteamPriceCell(g.SteamPrice),
			ShopPriceCell(g.ItadPrice),
			ShopPriceCell(g.LowestPrice),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: 40},
		{Name: "Steam", Align: text.AlignRight},
		{Name: "ITAD", Align: text.AlignRight},
		{Name: "Lowest", Align: text.AlignRight},
	})
	t.Render()
}

func reviewScore(v float64, ok bool) string {
	if !ok {
		return CellUnavailable
	}
	return stats.FormatRounded(v) + "%"
}

// RenderTradeSummary writes the summary of one side of a trade. Averages are left out when the
// side has a single game.
func RenderTradeSummary(w io.Writer, title string, gameStats stats.GameStats, prices stats.DirectionPrices, currency string) {
	t := NewTable(w)
	t.SetTitle(title)

	average, averageOk := gameStats.AverageReviewScore()
	weighted, weightedOk := gameStats.AverageWeightedReviewScore()

	t.AppendRows([]table.Row{
		{"Games", gameStats.Games},
		{"Games that have been bundled", gameStats.GamesInBundles},
		{"Total bundles", gameStats.TotalBundles},
		{"Average review score (weighted)", fmt.Sprintf("%s (%s)", reviewScore(average, averageOk), reviewScore(weighted, weightedOk))},
		{"Number of reviews (log2)", fmt.Sprintf("%d (%.2f)", gameStats.VoteCount, gameStats.VoteCountLog2())},
		{"Tradability (H : W)", fmt.Sprintf("%s (%s)", gameStats.Ratios.Index, gameStats.Ratios.Real)},
		{"Total price on Steam", fmt.Sprintf(
			"%s (%s)",
			stats.FormatMoney(prices.SteamTotal, currency),
			stats.FormatMoney(prices.SteamTotalOld, currency),
		)},
		{"Best price on ITAD", stats.FormatMoney(prices.ItadTotal, currency)},
		{"Historical low", stats.FormatMoney(prices.LowestTotal, currency)},
	})
	if prices.NGames != 1 {
		t.AppendRows([]table.Row{
			{"Average price per game on Steam", fmt.Sprintf(
				"%s (%s)",
				stats.FormatMoney(prices.SteamAverage(), currency),
				stats.FormatMoney(prices.SteamAverageOld(), currency),
			)},
			{"Average best price on ITAD", stats.FormatMoney(prices.ItadAverage(), currency)},
		})
	}
	t.Render()
}

// RenderFailures lists the price clients that failed, nothing is written if none did.
func RenderFailures(w io.Writer, failures []pricing.Failure) {
	if len(failures) == 0 {
		return
	}
	t := NewTable(w)
	t.SetTitle("Failed lookups")
	t.AppendHeader(table.Row{"Source", "Error"})
	for _, failure := range failures {
		t.AppendRow(table.Row{failure.Client, failure.Err.Error()})
	}
	t.SortBy([]table.SortBy{{Name: "Source", Mode: table.Asc}})
	t.Render()
}

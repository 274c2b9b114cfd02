package stats

import "barter-enhancer/internal/game"

// DirectionPrices totals the prices of the games on one side of a trade.
type DirectionPrices struct {
	NGames        int
	SteamTotal    float64
	SteamTotalOld float64
	ItadTotal     float64
	LowestTotal   float64

	SteamPriced  int
	ItadPriced   int
	LowestPriced int
}

func average(total float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Averages are over every game on the side, priced or not.
func (d DirectionPrices) SteamAverage() float64 {
	return average(d.SteamTotal, d.NGames)
}

func (d DirectionPrices) SteamAverageOld() float64 {
	return average(d.SteamTotalOld, d.NGames)
}

func (d DirectionPrices) ItadAverage() float64 {
	return average(d.ItadTotal, d.NGames)
}

func (d DirectionPrices) LowestAverage() float64 {
	return average(d.LowestTotal, d.NGames)
}

type PriceStats struct {
	To   DirectionPrices
	From DirectionPrices
	// All includes the games that have no direction.
	All DirectionPrices
	// Currency is the first currency seen, every total is assumed to be in it.
	Currency string
	// MixedCurrencies is true when some price was in another currency than Currency.
	MixedCurrencies bool
}

func (p *PriceStats) sides(g *game.Game) []*DirectionPrices {
	switch g.Direction {
	case game.DirectionTo:
		return []*DirectionPrices{&p.All, &p.To}
	case game.DirectionFrom:
		return []*DirectionPrices{&p.All, &p.From}
	}
	return []*DirectionPrices{&p.All}
}

func (p *PriceStats) seeCurrency(currency string) {
	if currency == "" {
		return
	}
	if p.Currency == "" {
		p.Currency = currency
		return
	}
	if p.Currency != currency {
		p.MixedCurrencies = true
	}
}

// CalculatePriceStats totals the available prices of games, unavailable and unresolved prices
// add nothing.
func CalculatePriceStats(games []*game.Game) PriceStats {
	var stats PriceStats
	for _, g := range games {
		sides := stats.sides(g)
		for _, side := range sides {
			side.NGames++
		}

		if price, ok := g.SteamPrice.Get(); ok {
			for _, side := range sides {
				side.SteamTotal += price.Price
				side.SteamTotalOld += price.PriceOld
				side.SteamPriced++
			}
			stats.seeCurrency(price.Currency)
		}
		if price, ok := g.ItadPrice.Get(); ok {
			for _, side := range sides {
				side.ItadTotal += price.Price
				side.ItadPriced++
			}
			stats.seeCurrency(price.Currency)
		}
		if price, ok := g.LowestPrice.Get(); ok {
			for _, side := range sides {
				side.LowestTotal += price.Price
				side.LowestPriced++
			}
			stats.seeCurrency(price.Currency)
		}
	}
	return stats
}

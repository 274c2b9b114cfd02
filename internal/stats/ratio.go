// Package stats computes trade ratios, review and bundle aggregates, and price totals over a
// list of games. Nothing here does I/O or modifies its input.
package stats

import (
	"fmt"
	"math"
	"strconv"
)

// Ratio describes how wanted an item is compared to how available it is.
type Ratio struct {
	// Real is "tradable : wishlist".
	Real string
	// Index is wishlist / tradable to one decimal, "inf" when nobody trades a wanted item.
	Index string
	// Summary is "<tradable / wishlist> : 1 (tradable : wishlist)".
	Summary string
}

// ZeroRatio is the ratio of an item nobody trades or wants.
var ZeroRatio = Ratio{Real: "0:0", Index: "0.0", Summary: "0:0"}

func formatQuotient(a, b int) string {
	if b == 0 {
		return "inf"
	}
	return FormatRatio(float64(a) / float64(b))
}

// TradeRatio computes the ratio of the given counts, negative counts are an error.
func TradeRatio(tradable, wishlist int) (Ratio, error) {
	if tradable < 0 || wishlist < 0 {
		return Ratio{}, fmt.Errorf("invalid trade counts %d : %d", tradable, wishlist)
	}
	if tradable == 0 && wishlist == 0 {
		return ZeroRatio, nil
	}

	counts := fmt.Sprintf("%d : %d", tradable, wishlist)
	return Ratio{
		Real:    counts,
		Index:   formatQuotient(wishlist, tradable),
		Summary: fmt.Sprintf("%s : 1 (%s)", formatQuotient(tradable, wishlist), counts),
	}, nil
}

// RelativeValue scales a price in cents by demand against supply:
// price * (1 + (wishlist - tradable) / (wishlist + tradable)).
func RelativeValue(priceCents float64, tradable, wishlist int) float64 {
	if tradable+wishlist <= 0 {
		return 0
	}
	demand := float64(wishlist-tradable) / float64(wishlist+tradable)
	return priceCents / 100 * (1 + demand)
}

// FormatRatio formats to one decimal.
func FormatRatio(v float64) string {
	if math.IsInf(v, 0) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatMoney formats to two decimals followed by the currency, if there is one.
func FormatMoney(v float64, currency string) string {
	amount := strconv.FormatFloat(v, 'f', 2, 64)
	if currency == "" {
		return amount
	}
	return amount + " " + currency
}

// FormatRounded formats percentages and averages, rounded to the nearest integer.
func FormatRounded(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

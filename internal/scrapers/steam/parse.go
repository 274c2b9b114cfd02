package steam

import (
	"bytes"
	"encoding/json"
	"fmt"

	"barter-enhancer/internal/game"
)

// appDetails is one entry of the appdetails response:
//
//	"1085660": {"success": true, "data": []}
//	"620": {"success": true, "data": {"price_overview": {...}}}
type appDetails struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type priceOverview struct {
	Currency        string `json:"currency"`
	Initial         int    `json:"initial"`
	Final           int    `json:"final"`
	DiscountPercent int    `json:"discount_percent"`
}

// parseEntry turns an appdetails entry into a resolved price field, any shape other than the
// documented ones is an error.
func parseEntry(raw json.RawMessage) (game.PriceField, error) {
	var entry appDetails
	err := json.Unmarshal(raw, &entry)
	if err != nil {
		return game.PriceField{}, fmt.Errorf("decode entry: %w", err)
	}
	if entry.Success == nil {
		return game.PriceField{}, fmt.Errorf("entry has no success flag")
	}
	if !*entry.Success {
		return game.Unavailable[game.PriceRecord](), nil
	}

	data := bytes.TrimSpace(entry.Data)
	if len(data) == 0 {
		return game.PriceField{}, fmt.Errorf("successful entry has no data")
	}
	// an empty array means the game is not sold
	if data[0] == '[' {
		var list []json.RawMessage
		err := json.Unmarshal(data, &list)
		if err != nil {
			return game.PriceField{}, fmt.Errorf("decode data: %w", err)
		}
		return game.Unavailable[game.PriceRecord](), nil
	}

	var details struct {
		PriceOverview *priceOverview `json:"price_overview"`
	}
	err = json.Unmarshal(data, &details)
	if err != nil {
		return game.PriceField{}, fmt.Errorf("decode data: %w", err)
	}
	// free games have no price overview
	if details.PriceOverview == nil {
		return game.Unavailable[game.PriceRecord](), nil
	}
	overview := details.PriceOverview
	if overview.Currency == "" {
		return game.PriceField{}, fmt.Errorf("price overview has no currency")
	}

	return game.Available(game.PriceRecord{
		Price:           float64(overview.Final) / 100,
		PriceOld:        float64(overview.Initial) / 100,
		DiscountPercent: overview.DiscountPercent,
		Currency:        overview.Currency,
		ShopID:          Store,
		ShopName:        "Steam",
	}), nil
}

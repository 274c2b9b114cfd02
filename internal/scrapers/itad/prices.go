package itad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"barter-enhancer/internal/game"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type shop struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// priceKind is one of the two price lookups, each with its own endpoint, cache store and
// game field.
type priceKind struct {
	name     string
	store    string
	endpoint string
	field    func(*game.Game) *game.PriceField
	parse    func(raw json.RawMessage, currency string) (game.PriceField, error)
}

var currentPrices = priceKind{
	name:     "current",
	store:    StoreCurrent,
	endpoint: "/v01/game/prices/",
	field:    func(g *game.Game) *game.PriceField { return &g.ItadPrice },
	parse:    parseCurrent,
}

var lowestPrices = priceKind{
	name:     "lowest",
	store:    StoreLowest,
	endpoint: "/v01/game/lowest/",
	field:    func(g *game.Game) *game.PriceField { return &g.LowestPrice },
	parse:    parseLowest,
}

// a price of 0 is reported with whatever cut itad has, it is always a full discount.
func discount(price float64, cut int) int {
	if price == 0 {
		return 100
	}
	return cut
}

// parseCurrent reads a prices entry, only the first (best) offer is kept:
//
//	{"list": [{"price_new": 0.89, "price_old": 2.99, "price_cut": 70, "shop": {"id": "itchio", "name": "Itch.io"}}]}
func parseCurrent(raw json.RawMessage, currency string) (game.PriceField, error) {
	var entry struct {
		List []struct {
			PriceNew *float64 `json:"price_new"`
			PriceOld float64  `json:"price_old"`
			PriceCut int      `json:"price_cut"`
			Shop     shop     `json:"shop"`
		} `json:"list"`
	}
	err := json.Unmarshal(raw, &entry)
	if err != nil {
		return game.PriceField{}, fmt.Errorf("decode entry: %w", err)
	}
	if entry.List == nil {
		return game.PriceField{}, fmt.Errorf("entry has no list")
	}
	if len(entry.List) == 0 {
		return game.Unavailable[game.PriceRecord](), nil
	}

	best := entry.List[0]
	if best.PriceNew == nil {
		return game.PriceField{}, fmt.Errorf("best offer has no price")
	}
	return game.Available(game.PriceRecord{
		Price:           *best.PriceNew,
		PriceOld:        best.PriceOld,
		DiscountPercent: discount(*best.PriceNew, best.PriceCut),
		Currency:        currency,
		ShopID:          best.Shop.ID,
		ShopName:        best.Shop.Name,
	}), nil
}

// parseLowest reads a lowest entry, an object with a price is the historical low, anything
// else (an empty list, an object without a price) means there is no price history:
//
//	{"shop": {"id": "nuuvem", "name": "Nuuvem"}, "price": 4.26, "cut": 80, "added": 1419894191}
func parseLowest(raw json.RawMessage, currency string) (game.PriceField, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []json.RawMessage
		err := json.Unmarshal(trimmed, &list)
		if err != nil {
			return game.PriceField{}, fmt.Errorf("decode entry: %w", err)
		}
		if len(list) == 0 {
			return game.Unavailable[game.PriceRecord](), nil
		}
		trimmed = list[0]
	}

	var entry struct {
		Price *float64 `json:"price"`
		Cut   int      `json:"cut"`
		Shop  shop     `json:"shop"`
	}
	err := json.Unmarshal(trimmed, &entry)
	if err != nil {
		return game.PriceField{}, fmt.Errorf("decode entry: %w", err)
	}
	if entry.Price == nil {
		return game.Unavailable[game.PriceRecord](), nil
	}

	return game.Available(game.PriceRecord{
		Price:           *entry.Price,
		DiscountPercent: discount(*entry.Price, entry.Cut),
		Currency:        currency,
		ShopID:          entry.Shop.ID,
		ShopName:        entry.Shop.Name,
	}), nil
}

func (c *Client) resolveKind(ctx context.Context, games []*game.Game, kind priceKind) error {
	ctx, span := tracer.Start(ctx, "client:resolveKind")
	defer span.End()
	span.SetAttributes(attribute.String("custom.kind", kind.name))

	pending := c.cache.FillPrices(ctx, kind.store, games, kind.field)

	byPlain := map[string][]*game.Game{}
	var plains []string
	for _, g := range pending {
		switch g.ItadID.State() {
		case game.StateUnresolved:
			// the mapping failed, the price stays unresolved
			continue
		case game.StateUnavailable:
			*kind.field(g) = game.Unavailable[game.PriceRecord]()
			continue
		}
		plain, _ := g.ItadID.Get()
		if _, seen := byPlain[plain]; !seen {
			plains = append(plains, plain)
		}
		byPlain[plain] = append(byPlain[plain], g)
	}
	span.SetAttributes(attribute.Int("custom.requested", len(plains)))
	if len(plains) == 0 {
		return nil
	}

	params := map[string]string{"plains": joinKeys(plains)}
	if c.region != "" {
		params["region"] = c.region
	}
	if c.country != "" {
		params["country"] = c.country
	}

	res, err := c.get(ctx, kind.endpoint, params)
	if err == nil && res.Meta.Currency == "" {
		err = fmt.Errorf("%s: response has no currency", kind.endpoint)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch prices")
		c.tel.ReportBroken(report_client_resolve_prices, err, kind.name, len(plains))
		return fmt.Errorf("resolve %s prices: %w", kind.name, err)
	}

	resolved := 0
	for _, plain := range plains {
		raw, ok := res.Data[plain]
		if !ok {
			c.tel.ReportWarning(report_client_parse_entry, fmt.Errorf("no %s entry for %s", kind.name, plain))
			continue
		}
		price, err := kind.parse(raw, res.Meta.Currency)
		if err != nil {
			c.tel.ReportWarning(report_client_parse_entry, fmt.Errorf("%s price of %s: %w", kind.name, plain, err))
			continue
		}

		for _, g := range byPlain[plain] {
			*kind.field(g) = price
			err := c.cache.SetPrice(ctx, kind.store, g.ItemID, price)
			if err != nil {
				c.tel.ReportBroken(report_client_cache, err, g.ItemID)
			}
		}
		resolved++
	}
	c.tel.ReportCount(report_client_resolve_prices+"."+kind.name, int64(resolved))

	return nil
}

package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"barter-enhancer/internal/components/assert"
	"barter-enhancer/internal/components/telemetry"
	"barter-enhancer/internal/game"
	"barter-enhancer/internal/pricecache"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("scrapers/steam")

const (
	report_client_resolve_prices = "client.resolve-prices"
	report_client_parse_entry    = "client.parse-entry"
	report_client_cache_price    = "client.cache-price"
)

// Store is the price cache store of steam prices.
const Store = "steam"

const DefaultBaseUrl = "https://store.steampowered.com"

type Options struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// Country is the optional `cc` the prices are quoted for.
	Country string
}

// Client resolves Game.SteamPrice, it owns no other field.
type Client struct {
	http    *resty.Client
	cache   pricecache.Cache
	tel     telemetry.API
	country string
}

func NewClient(opts Options, cache pricecache.Cache, tel telemetry.API) *Client {
	assert.NotNil(tel, "telemetry")
	tel = telemetry.NewScopedAPI("steam_client", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl)
	httpClient.SetHeader("user-agent", "barter-enhancer (+https://barter.vg)")
	httpClient.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(httpClient, tel)

	return &Client{
		http:    httpClient,
		cache:   cache,
		tel:     tel,
		country: opts.Country,
	}
}

func (c *Client) Name() string {
	return Store
}

// Eligible is true for games the steam store can price.
func Eligible(g *game.Game) bool {
	return g.Platform == game.PlatformSteam && g.StoreSku != ""
}

func steamPrice(g *game.Game) *game.PriceField {
	return &g.SteamPrice
}

// ResolvePrices sets the steam price of every game that does not have one, using the cache
// first and then a single appdetails request for the rest. When the request fails the affected
// games stay unresolved and the error is returned. A malformed entry only leaves its own games
// unresolved.
func (c *Client) ResolvePrices(ctx context.Context, games []*game.Game) error {
	ctx, span := tracer.Start(ctx, "client:ResolvePrices")
	defer span.End()

	pending := c.cache.FillPrices(ctx, Store, games, steamPrice)

	bySku := map[string][]*game.Game{}
	var skus []string
	for _, g := range pending {
		if !Eligible(g) {
			g.SteamPrice = game.Unavailable[game.PriceRecord]()
			continue
		}
		if _, seen := bySku[g.StoreSku]; !seen {
			skus = append(skus, g.StoreSku)
		}
		bySku[g.StoreSku] = append(bySku[g.StoreSku], g)
	}
	span.SetAttributes(attribute.Int("custom.requested", len(skus)))
	if len(skus) == 0 {
		return nil
	}

	entries, err := c.fetchAppDetails(ctx, skus)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch appdetails")
		c.tel.ReportBroken(report_client_resolve_prices, err, len(skus))
		return fmt.Errorf("steam: resolve prices: %w", err)
	}

	resolved := 0
	for _, sku := range skus {
		raw, ok := entries[sku]
		if !ok {
			c.tel.ReportWarning(report_client_parse_entry, fmt.Errorf("no entry for app %s", sku))
			continue
		}
		price, err := parseEntry(raw)
		if err != nil {
			c.tel.ReportWarning(report_client_parse_entry, fmt.Errorf("app %s: %w", sku, err))
			continue
		}

		for _, g := range bySku[sku] {
			g.SteamPrice = price
			err := c.cache.SetPrice(ctx, Store, g.ItemID, price)
			if err != nil {
				c.tel.ReportBroken(report_client_cache_price, err, g.ItemID)
			}
		}
		resolved++
	}
	c.tel.ReportCount(report_client_resolve_prices, int64(resolved))

	return nil
}

func (c *Client) fetchAppDetails(ctx context.Context, skus []string) (map[string]json.RawMessage, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("filters", "price_overview").
		SetQueryParam("appids", strings.Join(skus, ","))
	if c.country != "" {
		req.SetQueryParam("cc", c.country)
	}

	res, err := req.Get("/api/appdetails/")
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("appdetails: unexpected status %s", res.Status())
	}

	var entries map[string]json.RawMessage
	err = json.Unmarshal(res.Body(), &entries)
	if err != nil {
		return nil, fmt.Errorf("appdetails: decode: %w", err)
	}
	return entries, nil
}

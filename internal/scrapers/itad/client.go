package itad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"barter-enhancer/internal/components/assert"
	"barter-enhancer/internal/components/telemetry"
	"barter-enhancer/internal/game"
	"barter-enhancer/internal/pricecache"

	"github.com/go-resty/resty/v2"
)

var tracer = telemetry.Tracer("scrapers/itad")

const (
	report_client_resolve_plains = "client.resolve-plains"
	report_client_resolve_prices = "client.resolve-prices"
	report_client_parse_entry    = "client.parse-entry"
	report_client_plain_mismatch = "client.plain-mismatch"
	report_client_cache          = "client.cache"
)

const (
	// StoreCurrent is the price cache store of current best prices.
	StoreCurrent = "itad"
	// StoreLowest is the price cache store of historical lows.
	StoreLowest = "lowest"
)

const DefaultBaseUrl = "https://api.isthereanydeal.com"

type Options struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	ApiKey  string
	// Region and Country are optional and passed through to the price endpoints.
	Region  string
	Country string
}

// Client resolves Game.ItadID, Game.ItadPrice and Game.LowestPrice, it owns no other field.
type Client struct {
	http    *resty.Client
	cache   pricecache.Cache
	tel     telemetry.API
	apiKey  string
	region  string
	country string
}

func NewClient(opts Options, cache pricecache.Cache, tel telemetry.API) *Client {
	assert.NotNil(tel, "telemetry")
	assert.NotEmptyStr(opts.ApiKey, "itad api key")
	tel = telemetry.NewScopedAPI("itad_client", tel)

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
		apiKey:  opts.ApiKey,
		region:  opts.Region,
		country: opts.Country,
	}
}

func (c *Client) Name() string {
	return StoreCurrent
}

// ResolvePrices resolves plains first and then, concurrently, the current and the lowest
// prices of every game with a plain. Games whose plain could not be resolved keep unresolved
// prices. Every failure is returned joined, partial results stay on the games.
func (c *Client) ResolvePrices(ctx context.Context, games []*game.Game) error {
	ctx, span := tracer.Start(ctx, "client:ResolvePrices")
	defer span.End()

	var errlist []error
	err := c.ResolvePlains(ctx, games)
	if err != nil {
		errlist = append(errlist, err)
	}

	var mutex sync.Mutex
	var wg sync.WaitGroup
	for _, kind := range []priceKind{currentPrices, lowestPrices} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.resolveKind(ctx, games, kind)
			if err != nil {
				mutex.Lock()
				errlist = append(errlist, err)
				mutex.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(errlist) > 0 {
		return fmt.Errorf("itad: %w", errors.Join(errlist...))
	}
	return nil
}

// response is the envelope shared by the v01 endpoints.
type response struct {
	Meta struct {
		Currency string `json:"currency"`
	} `json:".meta"`
	Data map[string]json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, endpoint string, params map[string]string) (response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetQueryParams(params)

	res, err := req.Get(endpoint)
	if err != nil {
		return response{}, err
	}
	if res.StatusCode() != 200 {
		return response{}, fmt.Errorf("%s: unexpected status %s", endpoint, res.Status())
	}

	var out response
	err = json.Unmarshal(res.Body(), &out)
	if err != nil {
		return response{}, fmt.Errorf("%s: decode: %w", endpoint, err)
	}
	if out.Data == nil {
		return response{}, fmt.Errorf("%s: response has no data", endpoint)
	}
	return out, nil
}

func joinKeys(keys []string) string {
	return strings.Join(keys, ",")
}

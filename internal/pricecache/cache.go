// Package pricecache stores resolved price fields and itad plains in the kv store, each entry
// expiring lazily when it is read.
package pricecache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"barter-enhancer/internal/components/assert"
	"barter-enhancer/internal/components/chrono"
	"barter-enhancer/internal/components/kvstore"
	"barter-enhancer/internal/components/telemetry"
	"barter-enhancer/internal/game"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("pricecache")

const (
	report_cache_get   = "price_cache.get"
	report_cache_clear = "price_cache.clear-all"
)

var ErrNotFound = errors.New("cache entry not found")

const (
	// FieldPrice is the field under which every price store keeps its price records.
	FieldPrice = "price"
	// FieldPlain is the field of the itad id mapping.
	FieldPlain = "plain"

	// StorePlain is the store that owns the plain mappings.
	StorePlain = "itad"
)

const (
	DefaultPriceExpiry = 24 * time.Hour
	DefaultPlainExpiry = 7 * 24 * time.Hour
)

type Options struct {
	// PriceExpiry applies to every entry that is not a plain, defaults to DefaultPriceExpiry.
	PriceExpiry time.Duration
	// PlainExpiry applies only to `null` plains, positive plains never expire. Defaults to
	// DefaultPlainExpiry.
	PlainExpiry time.Duration
}

type entry struct {
	// Ts is the unix time in milliseconds the entry was written at.
	Ts    int64           `json:"ts"`
	Value json.RawMessage `json:"value"`
}

// Cache is the only thing that reads or writes the kv store.
type Cache struct {
	kv          kvstore.Store
	time        chrono.TimeAPI
	tel         telemetry.API
	priceExpiry time.Duration
	plainExpiry time.Duration
}

func NewCache(kv kvstore.Store, time chrono.TimeAPI, tel telemetry.API, opts Options) Cache {
	assert.NotNil(kv, "kv store")
	assert.NotNil(time, "time api")
	assert.NotNil(tel, "telemetry")

	if opts.PriceExpiry <= 0 {
		opts.PriceExpiry = DefaultPriceExpiry
	}
	if opts.PlainExpiry <= 0 {
		opts.PlainExpiry = DefaultPlainExpiry
	}

	return Cache{
		kv:          kv,
		time:        time,
		tel:         tel,
		priceExpiry: opts.PriceExpiry,
		plainExpiry: opts.PlainExpiry,
	}
}

// Key returns the kv key of an entry, `<store>:<field>:<itemId>`.
func Key(store, field, itemId string) string {
	return fmt.Sprintf("%s:%s:%s", store, field, itemId)
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

// expiry returns how long an entry lives, ok is false if it never expires.
func (c Cache) expiry(field string, value json.RawMessage) (time.Duration, bool) {
	if field == FieldPlain {
		if isNull(value) {
			return c.plainExpiry, true
		}
		return 0, false
	}
	return c.priceExpiry, true
}

// Get returns the cached value, or ErrNotFound if there is none or it has expired. Expired and
// corrupt entries are deleted.
func (c Cache) Get(ctx context.Context, store, field, itemId string) (json.RawMessage, error) {
	key := Key(store, field, itemId)

	ctx, span := tracer.Start(ctx, "cache:get")
	defer span.End()
	span.SetAttributes(attribute.String("custom.cache_key", key))

	serialized, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read kv store")
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	var cached entry
	err = json.Unmarshal([]byte(serialized), &cached)
	if err == nil && cached.Value == nil {
		err = fmt.Errorf("entry has no value")
	}
	if err != nil {
		c.tel.ReportWarning(report_cache_get, fmt.Errorf("corrupt entry %s: %w", key, err))
		c.evict(ctx, key)
		return nil, ErrNotFound
	}

	lifetime, expires := c.expiry(field, cached.Value)
	if expires {
		age := c.time.Now().Sub(time.UnixMilli(cached.Ts))
		if age > lifetime {
			c.tel.ReportDebug("cache entry expired", key, age.String())
			c.evict(ctx, key)
			return nil, ErrNotFound
		}
	}

	return cached.Value, nil
}

func (c Cache) evict(ctx context.Context, key string) {
	err := c.kv.Delete(ctx, key)
	if err != nil {
		c.tel.ReportBroken(report_cache_get, fmt.Errorf("evict %s: %w", key, err))
	}
}

// Set writes value with the current time.
func (c Cache) Set(ctx context.Context, store, field, itemId string, value any) error {
	return c.SetAt(ctx, store, field, itemId, value, c.time.Now())
}

// SetAt writes value as if it was written at ts.
func (c Cache) SetAt(ctx context.Context, store, field, itemId string, value any, ts time.Time) error {
	key := Key(store, field, itemId)

	ctx, span := tracer.Start(ctx, "cache:set")
	defer span.End()
	span.SetAttributes(attribute.String("custom.cache_key", key))

	serializedValue, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize value")
		return fmt.Errorf("serialize %s: %w", key, err)
	}
	serialized, err := json.Marshal(entry{
		Ts:    ts.UnixMilli(),
		Value: serializedValue,
	})
	if err != nil {
		return fmt.Errorf("serialize %s: %w", key, err)
	}

	err = c.kv.Set(ctx, key, string(serialized))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write kv store")
		return err
	}
	return nil
}

// Keys returns every key currently in the cache, expired entries included.
func (c Cache) Keys(ctx context.Context) ([]string, error) {
	return c.kv.ListKeys(ctx)
}

// ClearAll deletes every entry, it returns the number of entries deleted.
func (c Cache) ClearAll(ctx context.Context) (int, error) {
	keys, err := c.kv.ListKeys(ctx)
	if err != nil {
		return 0, err
	}

	var errlist []error
	deleted := 0
	for _, key := range keys {
		err := c.kv.Delete(ctx, key)
		if err != nil {
			errlist = append(errlist, fmt.Errorf("delete %s: %w", key, err))
			continue
		}
		deleted++
	}
	if len(errlist) > 0 {
		err := errors.Join(errlist...)
		c.tel.ReportBroken(report_cache_clear, err)
		return deleted, err
	}
	c.tel.ReportCount(report_cache_clear, int64(deleted))
	return deleted, nil
}

// Stats counts the keys per store.
func (c Cache) Stats(ctx context.Context) (map[string]int, error) {
	keys, err := c.kv.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, key := range keys {
		store, _, _ := strings.Cut(key, ":")
		counts[store]++
	}
	return counts, nil
}

// GetPrice returns the cached price field of a store, an unresolved field is returned along
// with ErrNotFound on a miss.
func (c Cache) GetPrice(ctx context.Context, store, itemId string) (game.PriceField, error) {
	return getField[game.PriceRecord](ctx, c, store, FieldPrice, itemId)
}

// SetPrice caches a resolved price field, unresolved fields are never cached.
func (c Cache) SetPrice(ctx context.Context, store, itemId string, price game.PriceField) error {
	if !price.Resolved() {
		return fmt.Errorf("refusing to cache unresolved price of %s", itemId)
	}
	return c.Set(ctx, store, FieldPrice, itemId, price)
}

func (c Cache) GetPlain(ctx context.Context, itemId string) (game.PlainField, error) {
	return getField[string](ctx, c, StorePlain, FieldPlain, itemId)
}

func (c Cache) SetPlain(ctx context.Context, itemId string, plain game.PlainField) error {
	if !plain.Resolved() {
		return fmt.Errorf("refusing to cache unresolved plain of %s", itemId)
	}
	return c.Set(ctx, StorePlain, FieldPlain, itemId, plain)
}

func getField[T any](ctx context.Context, c Cache, store, field, itemId string) (game.Field[T], error) {
	value, err := c.Get(ctx, store, field, itemId)
	if err != nil {
		return game.Field[T]{}, err
	}
	var out game.Field[T]
	err = json.Unmarshal(value, &out)
	if err != nil {
		key := Key(store, field, itemId)
		c.tel.ReportWarning(report_cache_get, fmt.Errorf("corrupt value %s: %w", key, err))
		c.evict(ctx, key)
		return game.Field[T]{}, ErrNotFound
	}
	return out, nil
}

// FillPrices loads the cached price of every unresolved game from store into the field
// selected by `field`, it returns the games that are still unresolved.
func (c Cache) FillPrices(ctx context.Context, store string, games []*game.Game, field func(*game.Game) *game.PriceField) []*game.Game {
	var pending []*game.Game
	for _, g := range games {
		target := field(g)
		if target.Resolved() {
			continue
		}
		price, err := c.GetPrice(ctx, store, g.ItemID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				c.tel.ReportBroken(report_cache_get, err, store, g.ItemID)
			}
			pending = append(pending, g)
			continue
		}
		*target = price
	}
	return pending
}

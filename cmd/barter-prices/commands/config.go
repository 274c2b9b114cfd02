package commands

import (
	"time"

	"barter-enhancer/internal/components/kvstore"
	"barter-enhancer/internal/components/telemetry"
	"barter-enhancer/internal/notify"
	"barter-enhancer/internal/pricecache"
	"barter-enhancer/internal/watch"
)

type ItadConfig struct {
	ApiKey  string `json:"api_key"`
	BaseUrl string `json:"base_url"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

type SteamConfig struct {
	BaseUrl string `json:"base_url"`
	Country string `json:"country"`
}

type BarterConfig struct {
	BaseUrl           string  `json:"base_url"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

type CacheConfig struct {
	// PriceExpiryHours and PlainExpiryDays fall back to the cache defaults when zero.
	PriceExpiryHours int `json:"price_expiry_hours"`
	PlainExpiryDays  int `json:"plain_expiry_days"`
}

func (c CacheConfig) options() pricecache.Options {
	return pricecache.Options{
		PriceExpiry: time.Duration(c.PriceExpiryHours) * time.Hour,
		PlainExpiry: time.Duration(c.PlainExpiryDays) * 24 * time.Hour,
	}
}

type Config struct {
	Itad      ItadConfig        `json:"itad"`
	Steam     SteamConfig       `json:"steam"`
	Barter    BarterConfig      `json:"barter"`
	Database  kvstore.Config    `json:"database"`
	Cache     CacheConfig       `json:"cache"`
	Telemetry telemetry.Config  `json:"telemetry"`
	Watch     watch.Config      `json:"watch"`
	Smtp      notify.SMTPConfig `json:"smtp"`
}

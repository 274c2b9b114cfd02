package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"barter-enhancer/internal/components/chrono"
	"barter-enhancer/internal/components/kvstore"
	"barter-enhancer/internal/components/telemetry"
	"barter-enhancer/internal/pricecache"
	"barter-enhancer/internal/pricing"
	"barter-enhancer/internal/scrapers/barter"
	"barter-enhancer/internal/scrapers/itad"
	"barter-enhancer/internal/scrapers/steam"
	"barter-enhancer/lib/configutil"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// app is everything the commands share, built once before any of them runs.
type app struct {
	config      Config
	tel         telemetry.API
	otel        telemetry.Telemetry
	time        chrono.TimeAPI
	cache       pricecache.Cache
	barter      *barter.Client
	coordinator pricing.Coordinator
	closeDb     func() error
}

var current *app

var rootCmd = &cobra.Command{
	Use:   "barter-prices",
	Short: "barter-prices resolves the Steam and IsThereAnyDeal prices of barter.vg offers and match pages.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		config, err := configutil.ReadRecursively[Config](configPath)
		if err != nil {
			return fmt.Errorf("read config %s: %w", configPath, err)
		}
		current, err = newApp(cmd.Context(), config)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current == nil {
			return nil
		}
		return current.close(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json5", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug information")
}

func newApp(ctx context.Context, config Config) (*app, error) {
	otel, err := telemetry.Setup(ctx, "barter-prices", config.Telemetry)
	if err != nil {
		return nil, err
	}
	tel := telemetry.NewSlogAPI()
	clock := chrono.NewStandardTime()

	db, err := config.Database.OpenDB()
	if err != nil {
		return nil, err
	}
	kv, err := kvstore.NewSQLStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	cache := pricecache.NewCache(kv, clock, tel, config.Cache.options())

	barterClient, err := barter.NewClient(barter.Options{
		BaseUrl:           config.Barter.BaseUrl,
		RequestsPerSecond: config.Barter.RequestsPerSecond,
	}, tel)
	if err != nil {
		db.Close()
		return nil, err
	}

	clients := []pricing.PriceClient{
		steam.NewClient(steam.Options{
			BaseUrl: config.Steam.BaseUrl,
			Country: config.Steam.Country,
		}, cache, tel),
	}
	if config.Itad.ApiKey != "" {
		clients = append(clients, itad.NewClient(itad.Options{
			BaseUrl: config.Itad.BaseUrl,
			ApiKey:  config.Itad.ApiKey,
			Region:  config.Itad.Region,
			Country: config.Itad.Country,
		}, cache, tel))
	} else {
		slog.Warn("itad.api_key is not set, IsThereAnyDeal prices are skipped")
	}

	return &app{
		config:      config,
		tel:         tel,
		otel:        otel,
		time:        clock,
		cache:       cache,
		barter:      barterClient,
		coordinator: pricing.NewCoordinator(tel, clients...),
		closeDb:     db.Close,
	}, nil
}

func (a *app) close(ctx context.Context) error {
	err := a.closeDb()
	if shutdownErr := a.otel.Shutdown(ctx); shutdownErr != nil {
		slog.Warn("failed to shutdown telemetry", "err", shutdownErr)
	}
	return err
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

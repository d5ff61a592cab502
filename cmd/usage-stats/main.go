// Command usage-stats walks the Format Library event gallery for a format,
// downloads every top-cut deck, and writes the aggregated card usage
// document as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"goatstats/internal/config"
	"goatstats/internal/export"
	"goatstats/internal/formatlibrary"
	"goatstats/internal/storage"
	"goatstats/internal/usage"
	"goatstats/internal/version"

	"golang.org/x/time/rate"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to config.toml (default: ~/.goat-usage/config.toml)")
		format      = flag.String("format", "", "Gallery format slug (overrides config)")
		outPath     = flag.String("out", "usage_aggregates.json", "Output JSON path")
		limitEvents = flag.Int("limit-events", 0, "Process only the first N events (0 = all)")
		sleep       = flag.Duration("sleep", 0, "Minimum gap between API requests (overrides config)")
		noCache     = flag.Bool("no-cache", false, "Disable the local payload cache")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetVersion())
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if *format != "" {
		cfg.API.Format = *format
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	clientConfig, err := buildClientConfig(cfg, *sleep)
	if err != nil {
		log.Fatalf("Failed to build client config: %v", err)
	}

	var cache formatlibrary.Cache
	if cfg.Cache.Enabled && !*noCache {
		dbPath, err := cfg.CachePath()
		if err != nil {
			log.Fatalf("Failed to resolve cache path: %v", err)
		}
		db, err := storage.Open(storage.DefaultConfig(dbPath))
		if err != nil {
			log.Fatalf("Failed to open cache database: %v", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Warn("close cache database", "error", err)
			}
		}()

		ttl, err := cfg.GetCacheTTL()
		if err != nil {
			log.Fatalf("Failed to parse cache TTL: %v", err)
		}
		payloadCache := storage.NewPayloadCache(db, ttl)
		if purged, err := payloadCache.Purge(ctx); err != nil {
			logger.Warn("purge cache", "error", err)
		} else if purged > 0 {
			logger.Info("purged stale cache entries", "count", purged)
		}
		cache = payloadCache
	}

	client := formatlibrary.NewClient(clientConfig, cache, logger)
	runner := usage.NewRunner(client, usage.RunnerConfig{
		LimitEvents: *limitEvents,
		Logger:      logger,
	})

	start := time.Now()
	if err := runner.Run(ctx); err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	source := usage.Source{
		GalleryEndpoint:      client.GalleryURL(),
		EventEndpointPattern: client.EventURLPattern(),
		DeckDownloadPattern:  client.DeckURLPattern(),
	}
	agg := runner.Accumulator().Export(source, time.Now())

	exporter := export.NewExporter(export.Options{
		FilePath:   *outPath,
		PrettyJSON: true,
		Overwrite:  true,
	})
	if err := exporter.Export(agg); err != nil {
		log.Fatalf("Failed to write aggregates: %v", err)
	}

	log.Printf("Wrote %s (%d cards, %d archetypes) in %s",
		*outPath, len(agg.PerCardTotal), len(agg.PerArchetypeTotal), time.Since(start).Round(time.Second))
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func buildClientConfig(cfg *config.Config, sleepOverride time.Duration) (*formatlibrary.Config, error) {
	sleep, err := cfg.GetSleep()
	if err != nil {
		return nil, err
	}
	if sleepOverride > 0 {
		sleep = sleepOverride
	}
	backoff, err := cfg.GetRetryBackoff()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.GetRequestTimeout()
	if err != nil {
		return nil, err
	}

	return &formatlibrary.Config{
		BaseURL:        cfg.API.BaseURL,
		Format:         cfg.API.Format,
		Throttle:       rate.Every(sleep),
		RequestTimeout: timeout,
		MaxRetries:     cfg.API.MaxRetries,
		RetryBackoff:   backoff,
	}, nil
}

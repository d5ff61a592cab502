// Command usage-sheets publishes an aggregates JSON document to Google
// Sheets: per-card totals, by-cut tables, the interactive overview, and
// optionally the archetype cross-tabulations. With -watch it republishes
// whenever the JSON file changes.
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
	"goatstats/internal/sheets"
	"goatstats/internal/version"

	"github.com/fsnotify/fsnotify"
)

func main() {
	var (
		configPath    = flag.String("config", "", "Path to config.toml (default: ~/.goat-usage/config.toml)")
		jsonPath      = flag.String("json", "usage_aggregates.json", "Aggregates JSON to publish")
		credsPath     = flag.String("creds", "", "Service account JSON key (overrides config)")
		spreadsheetID = flag.String("spreadsheet-id", "", "Existing spreadsheet ID (overrides config)")
		title         = flag.String("title", "", "Title for a new spreadsheet when no ID is given")
		archetypes    = flag.Bool("archetypes", true, "Also publish the archetype cross-tab sheets")
		watch         = flag.Bool("watch", false, "Republish whenever the JSON file changes")
		showVersion   = flag.Bool("version", false, "Print version and exit")
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
	if *credsPath != "" {
		cfg.Sheets.CredentialsPath = *credsPath
	}
	if *spreadsheetID != "" {
		cfg.Sheets.SpreadsheetID = *spreadsheetID
	}
	if *title != "" {
		cfg.Sheets.Title = *title
	}
	if cfg.Sheets.CredentialsPath == "" {
		log.Fatal("No service account credentials configured (use -creds or config.toml)")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	credentials, err := os.ReadFile(cfg.Sheets.CredentialsPath)
	if err != nil {
		log.Fatalf("Failed to read credentials: %v", err)
	}

	svc, err := sheets.NewService(ctx, credentials, logger)
	if err != nil {
		log.Fatalf("Failed to create sheets service: %v", err)
	}

	ss, err := openSpreadsheet(ctx, svc, cfg)
	if err != nil {
		log.Fatalf("Failed to open spreadsheet: %v", err)
	}
	log.Printf("Using spreadsheet: %s", ss.URL())

	if err := publish(ctx, ss, *jsonPath, *archetypes, logger); err != nil {
		log.Fatalf("Publish failed: %v", err)
	}

	if !*watch {
		log.Printf("Done. Open: %s", ss.URL())
		return
	}

	if err := watchAndRepublish(ctx, ss, *jsonPath, *archetypes, logger); err != nil {
		log.Fatalf("Watch failed: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func openSpreadsheet(ctx context.Context, svc *sheets.Service, cfg *config.Config) (*sheets.Spreadsheet, error) {
	if cfg.Sheets.SpreadsheetID != "" {
		return svc.Open(ctx, cfg.Sheets.SpreadsheetID)
	}
	return svc.Create(ctx, cfg.Sheets.Title)
}

func publish(ctx context.Context, ss *sheets.Spreadsheet, jsonPath string, archetypes bool, logger *slog.Logger) error {
	agg, err := export.Load(jsonPath)
	if err != nil {
		return err
	}

	if err := sheets.PublishUsage(ctx, ss, agg, logger); err != nil {
		return err
	}
	if archetypes {
		if err := sheets.PublishArchetypes(ctx, ss, agg, logger); err != nil {
			return err
		}
	}
	return nil
}

// watchAndRepublish republishes on every write to the JSON file. Writes
// are debounced because exporters produce several events per save.
func watchAndRepublish(ctx context.Context, ss *sheets.Spreadsheet, jsonPath string, archetypes bool, logger *slog.Logger) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := watcher.Add(jsonPath); err != nil {
		return fmt.Errorf("watch %s: %w", jsonPath, err)
	}
	log.Printf("Watching %s for changes", jsonPath)

	const debounce = 2 * time.Second
	var pending *time.Timer
	var pendingC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(debounce)
				pendingC = pending.C
			} else {
				pending.Reset(debounce)
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", watchErr)
		case <-pendingC:
			pending = nil
			pendingC = nil
			log.Printf("Change detected, republishing")
			if err := publish(ctx, ss, jsonPath, archetypes, logger); err != nil {
				logger.Error("republish failed", "error", err)
				continue
			}
			log.Printf("Republished to %s", ss.URL())
		}
	}
}

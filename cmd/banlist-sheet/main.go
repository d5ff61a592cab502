// Command banlist-sheet fetches a Format Library banlist and writes the
// limited and semi-limited cards to a worksheet.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"goatstats/internal/banlist"
	"goatstats/internal/config"
	"goatstats/internal/formatlibrary"
	"goatstats/internal/sheets"
	"goatstats/internal/version"
)

func main() {
	var (
		configPath    = flag.String("config", "", "Path to config.toml (default: ~/.goat-usage/config.toml)")
		credsPath     = flag.String("creds", "", "Service account JSON key (overrides config)")
		spreadsheetID = flag.String("spreadsheet-id", "", "Existing spreadsheet ID (overrides config)")
		title         = flag.String("title", "", "Title for a new spreadsheet when no ID is given")
		sheetName     = flag.String("sheet-name", "ban", "Worksheet name to write")
		banlistName   = flag.String("banlist", "April 2005", "Banlist name")
		category      = flag.String("category", "TCG", "Banlist category")
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

	client := formatlibrary.NewClient(formatlibrary.DefaultConfig(cfg.API.Format), nil, logger)
	payload, err := client.Banlist(ctx, *banlistName, *category)
	if err != nil {
		log.Fatalf("Failed to fetch banlist: %v", err)
	}

	entries := banlist.ExtractCards(payload)
	if len(entries) == 0 {
		log.Printf("Banlist %q (%s) has no limited or semi-limited cards", *banlistName, *category)
	}

	credentials, err := os.ReadFile(cfg.Sheets.CredentialsPath)
	if err != nil {
		log.Fatalf("Failed to read credentials: %v", err)
	}

	svc, err := sheets.NewService(ctx, credentials, logger)
	if err != nil {
		log.Fatalf("Failed to create sheets service: %v", err)
	}

	var ss *sheets.Spreadsheet
	if cfg.Sheets.SpreadsheetID != "" {
		ss, err = svc.Open(ctx, cfg.Sheets.SpreadsheetID)
	} else {
		ss, err = svc.Create(ctx, cfg.Sheets.Title)
	}
	if err != nil {
		log.Fatalf("Failed to open spreadsheet: %v", err)
	}
	log.Printf("Using spreadsheet: %s", ss.URL())

	if err := sheets.PublishBanlist(ctx, ss, *sheetName, entries); err != nil {
		log.Fatalf("Failed to write banlist: %v", err)
	}

	log.Printf("Wrote %d rows to %q in %s", len(entries), *sheetName, ss.URL())
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

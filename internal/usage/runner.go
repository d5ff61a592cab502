package usage

import (
	"context"
	"log/slog"

	"goatstats/internal/deck"
	"goatstats/internal/formatlibrary"
)

// Fetcher supplies tournament data to the runner. Implementations own
// retries and throttling; the runner only sees terminal success or
// failure, and a terminal failure aborts the whole run without flushing
// partial results.
type Fetcher interface {
	EventGallery(ctx context.Context) ([]formatlibrary.GalleryEvent, error)
	EventDetail(ctx context.Context, slug string) (*formatlibrary.EventDetail, error)
	DeckPayload(ctx context.Context, deckID string) ([]byte, error)
}

// RunnerConfig configures a single aggregation run.
type RunnerConfig struct {
	// LimitEvents caps how many gallery events are processed. Zero means
	// all of them.
	LimitEvents int

	// Logger receives progress and skip logging. nil uses slog.Default.
	Logger *slog.Logger
}

// Runner drives one aggregation run: events one at a time, entries one at
// a time, each feeding the accumulator it exclusively owns.
type Runner struct {
	fetcher Fetcher
	acc     *Accumulator
	limit   int
	logger  *slog.Logger
}

// NewRunner creates a runner over a fresh accumulator.
func NewRunner(fetcher Fetcher, config RunnerConfig) *Runner {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		fetcher: fetcher,
		acc:     NewAccumulator(),
		limit:   config.LimitEvents,
		logger:  logger,
	}
}

// Accumulator exposes the run state; read it only after Run returns.
func (r *Runner) Accumulator() *Accumulator {
	return r.acc
}

// Run consumes the full event gallery. Records missing identifying fields
// are skipped and the run continues; fetch failures are fatal.
func (r *Runner) Run(ctx context.Context) error {
	events, err := r.fetcher.EventGallery(ctx)
	if err != nil {
		return err
	}
	if r.limit > 0 && len(events) > r.limit {
		events = events[:r.limit]
	}

	processed := 0
	for i := range events {
		slug := events[i].ResolveSlug()
		if slug == "" {
			r.logger.Warn("event has no slug, skipping", "name", events[i].Name)
			continue
		}

		detail, err := r.fetcher.EventDetail(ctx, slug)
		if err != nil {
			return err
		}
		if len(detail.TopDecks) == 0 {
			continue
		}

		bracketSize := InferBracketSize(len(detail.TopDecks))
		if err := r.processEntries(ctx, detail.TopDecks, bracketSize); err != nil {
			return err
		}

		processed++
		r.logger.Info("processed event", "slug", slug, "count", processed)
	}

	return nil
}

func (r *Runner) processEntries(ctx context.Context, entries []formatlibrary.TopDeckEntry, bracketSize int) error {
	for i := range entries {
		entry := &entries[i]

		placement, ok := entry.Placement()
		if !ok {
			placement = PlacementUnknown
		}
		archetype := entry.ResolveArchetype()

		deckID := entry.ResolveDeckID()
		if deckID == "" {
			r.logger.Warn("entry has no deck id, skipping", "archetype", archetype)
			continue
		}

		payload, err := r.fetcher.DeckPayload(ctx, deckID)
		if err != nil {
			return err
		}

		// Deck-level placement and archetype take priority over the
		// event entry when present.
		overrides := formatlibrary.ParseOverrides(payload)
		if p, ok := overrides.PlacementValue(); ok {
			placement = p
		}
		if overrides.DeckTypeName != "" {
			archetype = overrides.DeckTypeName
		}

		d := deck.Parse(payload)
		if d.TotalCards() == 0 {
			r.logger.Warn("deck payload yielded no cards", "deck_id", deckID)
		}

		r.acc.Observe(d, placement, archetype, bracketSize)
	}
	return nil
}

package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"goatstats/internal/formatlibrary"
)

// fakeFetcher serves canned gallery/event/deck payloads.
type fakeFetcher struct {
	gallery    []formatlibrary.GalleryEvent
	events     map[string]*formatlibrary.EventDetail
	decks      map[string][]byte
	deckErr    error
	deckCalls  []string
	eventCalls []string
}

func (f *fakeFetcher) EventGallery(ctx context.Context) ([]formatlibrary.GalleryEvent, error) {
	return f.gallery, nil
}

func (f *fakeFetcher) EventDetail(ctx context.Context, slug string) (*formatlibrary.EventDetail, error) {
	f.eventCalls = append(f.eventCalls, slug)
	detail, ok := f.events[slug]
	if !ok {
		return nil, fmt.Errorf("unknown event %s", slug)
	}
	return detail, nil
}

func (f *fakeFetcher) DeckPayload(ctx context.Context, deckID string) ([]byte, error) {
	if f.deckErr != nil {
		return nil, f.deckErr
	}
	f.deckCalls = append(f.deckCalls, deckID)
	payload, ok := f.decks[deckID]
	if !ok {
		return nil, fmt.Errorf("unknown deck %s", deckID)
	}
	return payload, nil
}

func entry(t *testing.T, raw string) formatlibrary.TopDeckEntry {
	t.Helper()
	var e formatlibrary.TopDeckEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("bad entry fixture: %v", err)
	}
	return e
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunnerAggregatesEvents(t *testing.T) {
	fetcher := &fakeFetcher{
		gallery: []formatlibrary.GalleryEvent{
			{Slug: "goat-weekly-1"},
			{Name: "Goat Monthly #2!"}, // slug derived from the name
		},
		events: map[string]*formatlibrary.EventDetail{
			"goat-weekly-1": {TopDecks: []formatlibrary.TopDeckEntry{
				entry(t, `{"placing": 1, "deckId": "d1", "deckType": "Chaos"}`),
				entry(t, `{"placing": "2", "id": 42, "archetype": "Goat Control"}`),
			}},
			"GoatMonthly2": {TopDecks: []formatlibrary.TopDeckEntry{
				entry(t, `{"rank": 1, "deckSlug": "d3", "name": "Warrior"}`),
			}},
		},
		decks: map[string][]byte{
			"d1": []byte(`{"main":[{"name":"Black Luster Soldier - Envoy of the Beginning"}],"side":[],"extra":[]}`),
			"42": []byte(`{"main":[{"name":"Scapegoat"},{"name":"Scapegoat"}],"side":[],"extra":[]}`),
			"d3": []byte(`{"main":[{"name":"Gearfried the Iron Knight"}],"side":[],"extra":[]}`),
		},
	}

	r := NewRunner(fetcher, RunnerConfig{Logger: quietLogger()})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	agg := r.Accumulator().Export(Source{}, time.Unix(0, 0))

	// Both events were fetched, the second via the derived slug.
	if len(fetcher.eventCalls) != 2 || fetcher.eventCalls[1] != "GoatMonthly2" {
		t.Errorf("event calls = %v", fetcher.eventCalls)
	}

	// Both brackets have 1-2 entries, so each infers a small bracket.
	if agg.PerArchetypeTotal["Chaos"] != 1 || agg.PerArchetypeTotal["Goat Control"] != 1 || agg.PerArchetypeTotal["Warrior"] != 1 {
		t.Errorf("archetype totals = %v", agg.PerArchetypeTotal)
	}

	// Chaos won a 2-entry event: Winner and Finalist tiers.
	chaos := agg.PerArchetypeByCut["Chaos"]
	if chaos["Winner"] != 1 || chaos["Finalist"] != 1 {
		t.Errorf("Chaos by cut = %v", chaos)
	}
	// Goat Control placed 2nd: Finalist only.
	gc := agg.PerArchetypeByCut["Goat Control"]
	if gc["Winner"] != 0 || gc["Finalist"] != 1 {
		t.Errorf("Goat Control by cut = %v", gc)
	}

	if agg.PerCardQtyByCut["Scapegoat"]["Finalist"] != 2 {
		t.Errorf("Scapegoat qty by cut = %v", agg.PerCardQtyByCut["Scapegoat"])
	}
}

func TestRunnerDeckOverrides(t *testing.T) {
	fetcher := &fakeFetcher{
		gallery: []formatlibrary.GalleryEvent{{Slug: "ev"}},
		events: map[string]*formatlibrary.EventDetail{
			"ev": {TopDecks: []formatlibrary.TopDeckEntry{
				entry(t, `{"placing": 5, "deckId": "d1", "deckType": "Gallery Label"}`),
			}},
		},
		decks: map[string][]byte{
			// The deck payload's own placement and archetype win.
			"d1": []byte(`{"placement": 1, "deckTypeName": "Self Reported", "main":[{"name":"Sangan"}],"side":[],"extra":[]}`),
		},
	}

	r := NewRunner(fetcher, RunnerConfig{Logger: quietLogger()})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	agg := r.Accumulator().Export(Source{}, time.Unix(0, 0))

	if agg.PerArchetypeTotal["Self Reported"] != 1 {
		t.Errorf("archetype totals = %v, want Self Reported", agg.PerArchetypeTotal)
	}
	if agg.PerArchetypeByCut["Self Reported"]["Winner"] != 1 {
		t.Errorf("by cut = %v, want Winner via overridden placement", agg.PerArchetypeByCut)
	}
}

func TestRunnerSkipsDegenerateRecords(t *testing.T) {
	fetcher := &fakeFetcher{
		gallery: []formatlibrary.GalleryEvent{
			{}, // no slug at all: skipped
			{Slug: "empty"},
			{Slug: "ev"},
		},
		events: map[string]*formatlibrary.EventDetail{
			"empty": {}, // no top decks: skipped
			"ev": {TopDecks: []formatlibrary.TopDeckEntry{
				entry(t, `{"placing": 1}`), // no deck id: skipped
				entry(t, `{"placing": "n/a", "deckId": "d1", "deckType": "Stun"}`),
			}},
		},
		decks: map[string][]byte{
			"d1": []byte(`{"main":[{"name":"Cyber Jar"}],"side":[],"extra":[]}`),
		},
	}

	r := NewRunner(fetcher, RunnerConfig{Logger: quietLogger()})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	agg := r.Accumulator().Export(Source{}, time.Unix(0, 0))

	// Only the parsable entry was observed; its placement is the
	// sentinel, so it reaches no cut tier but still counts in totals.
	if agg.PerArchetypeTotal["Stun"] != 1 || len(agg.PerArchetypeTotal) != 1 {
		t.Errorf("archetype totals = %v", agg.PerArchetypeTotal)
	}
	if len(agg.PerDeckCutTotal) != 0 {
		t.Errorf("deck cut totals = %v, want empty", agg.PerDeckCutTotal)
	}
}

func TestRunnerLimitEvents(t *testing.T) {
	fetcher := &fakeFetcher{
		gallery: []formatlibrary.GalleryEvent{{Slug: "a"}, {Slug: "b"}, {Slug: "c"}},
		events: map[string]*formatlibrary.EventDetail{
			"a": {}, "b": {}, "c": {},
		},
	}

	r := NewRunner(fetcher, RunnerConfig{LimitEvents: 2, Logger: quietLogger()})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(fetcher.eventCalls) != 2 {
		t.Errorf("event calls = %v, want first two only", fetcher.eventCalls)
	}
}

func TestRunnerFetchFailureIsFatal(t *testing.T) {
	wantErr := errors.New("network down")
	fetcher := &fakeFetcher{
		gallery: []formatlibrary.GalleryEvent{{Slug: "ev"}},
		events: map[string]*formatlibrary.EventDetail{
			"ev": {TopDecks: []formatlibrary.TopDeckEntry{
				entry(t, `{"placing": 1, "deckId": "d1"}`),
			}},
		},
		deckErr: wantErr,
	}

	r := NewRunner(fetcher, RunnerConfig{Logger: quietLogger()})
	err := r.Run(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

package formatlibrary

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// GalleryEvent is one event summary from the gallery listing. The gallery
// has shipped several shapes over time, so the slug may live on the entry,
// on a nested event object, or have to be derived from the display name.
type GalleryEvent struct {
	Slug         string `json:"slug"`
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
	Event        *struct {
		Slug string `json:"slug"`
	} `json:"event"`
}

// ResolveSlug returns the event's stable identifier, trying the direct
// slug, the nested event slug, then the abbreviation, and finally the
// display name with all non-alphanumeric characters stripped. An empty
// result means the event cannot be fetched and should be skipped.
func (e *GalleryEvent) ResolveSlug() string {
	if e.Slug != "" {
		return e.Slug
	}
	if e.Event != nil && e.Event.Slug != "" {
		return e.Event.Slug
	}
	if e.Abbreviation != "" {
		return e.Abbreviation
	}
	if name := strings.TrimSpace(e.Name); name != "" {
		return nonAlnum.ReplaceAllString(name, "")
	}
	return ""
}

// EventDetail is the per-event payload. Events without top decks are
// skipped entirely by the caller.
type EventDetail struct {
	TopDecks []TopDeckEntry `json:"topDecks"`
}

// TopDeckEntry is one deck's result within an event. Placement and deck
// identifier fields vary by payload vintage, so each is captured raw and
// resolved through a fallback chain.
type TopDeckEntry struct {
	Placing json.RawMessage `json:"placing"`
	Place   json.RawMessage `json:"place"`
	Rank    json.RawMessage `json:"rank"`

	DeckID   json.RawMessage `json:"deckId"`
	ID       json.RawMessage `json:"id"`
	MongoID  json.RawMessage `json:"_id"`
	DeckSlug json.RawMessage `json:"deckSlug"`

	DeckType  string `json:"deckType"`
	Archetype string `json:"archetype"`
	Name      string `json:"name"`
}

// Placement returns the entry's 1-based final rank. ok is false when no
// placement field parses as an integer; the caller substitutes its
// sentinel in that case.
func (e *TopDeckEntry) Placement() (int, bool) {
	for _, raw := range []json.RawMessage{e.Placing, e.Place, e.Rank} {
		if n, ok := rawInt(raw); ok {
			return n, true
		}
	}
	return 0, false
}

// ResolveDeckID returns the identifier used to fetch the deck payload, or
// an empty string when the entry carries none.
func (e *TopDeckEntry) ResolveDeckID() string {
	for _, raw := range []json.RawMessage{e.DeckID, e.ID, e.MongoID, e.DeckSlug} {
		if s := rawString(raw); s != "" {
			return s
		}
	}
	return ""
}

// ResolveArchetype returns the entry's archetype label, falling back to
// the entry name and finally "Unknown".
func (e *TopDeckEntry) ResolveArchetype() string {
	if e.DeckType != "" {
		return e.DeckType
	}
	if e.Archetype != "" {
		return e.Archetype
	}
	if e.Name != "" {
		return e.Name
	}
	return "Unknown"
}

// DeckOverrides carries deck-level fields that take priority over the
// event-entry values when present: override priority is deck payload over
// gallery entry.
type DeckOverrides struct {
	Placement    json.RawMessage `json:"placement"`
	DeckTypeName string          `json:"deckTypeName"`
}

// ParseOverrides extracts overrides from a raw deck payload. Payloads that
// are not JSON objects carry no overrides.
func ParseOverrides(payload []byte) DeckOverrides {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return DeckOverrides{}
	}
	var ov DeckOverrides
	if err := json.Unmarshal(trimmed, &ov); err != nil {
		return DeckOverrides{}
	}
	return ov
}

// PlacementValue returns the overriding placement if one parses.
func (o DeckOverrides) PlacementValue() (int, bool) {
	return rawInt(o.Placement)
}

// rawInt parses a raw JSON value that may be a number or a numeric string.
func rawInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// rawString renders a raw JSON value as a string identifier: string values
// decode, numeric values keep their literal text.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

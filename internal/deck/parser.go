// Package deck parses deck payloads of varying shapes into per-section
// card counts. The deck API returns three shapes in the wild: a structured
// record with main/extra/side collections, a JSON-encoded string wrapping
// one of the other shapes, and a raw newline-delimited deck list. The
// parse chain tries them in that order.
package deck

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Deck holds the card counts extracted from a single deck payload.
// Main, Side and Extra are populated only for structured payloads; deck-list
// text does not carry section information, so its cards appear only in
// Combined. All card names are normalized.
type Deck struct {
	Main  map[string]int
	Side  map[string]int
	Extra map[string]int

	// Combined counts every card across all sections. For deck-list text
	// payloads this is the only populated map.
	Combined map[string]int
}

// cardRef is one card object inside a structured section. The card's name
// is read from the first populated field.
type cardRef struct {
	Name      string `json:"name"`
	CleanName string `json:"cleanName"`
	CardName  string `json:"cardName"`
}

// structuredPayload detects the structured deck shape. RawMessage fields
// keep presence information: a section key that exists but holds null still
// marks the payload as structured.
type structuredPayload struct {
	Main  json.RawMessage `json:"main"`
	Extra json.RawMessage `json:"extra"`
	Side  json.RawMessage `json:"side"`
	YDK   *string         `json:"ydk"`
}

func newDeck() *Deck {
	return &Deck{
		Main:     make(map[string]int),
		Side:     make(map[string]int),
		Extra:    make(map[string]int),
		Combined: make(map[string]int),
	}
}

// Parse extracts card counts from a raw deck payload. Unrecognized shapes
// yield an empty deck rather than an error: upstream data quality cannot be
// guaranteed, and a deck that cannot be read simply contributes zero cards.
func Parse(data []byte) *Deck {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return newDeck()
	}

	if json.Valid(trimmed) {
		switch trimmed[0] {
		case '{':
			var payload structuredPayload
			if err := json.Unmarshal(trimmed, &payload); err != nil {
				return newDeck()
			}
			if payload.Main != nil || payload.Extra != nil || payload.Side != nil {
				return fromSections(&payload)
			}
			if payload.YDK != nil {
				return fromDeckList(*payload.YDK)
			}
			return newDeck()
		case '"':
			// A JSON string either wraps an encoded payload or is itself
			// deck-list text; re-running the chain on the decoded value
			// covers both.
			var s string
			if err := json.Unmarshal(trimmed, &s); err != nil {
				return newDeck()
			}
			return Parse([]byte(s))
		default:
			// Arrays, numbers, booleans: nothing to extract.
			return newDeck()
		}
	}

	// Not JSON at all: treat the body as a raw deck list.
	return fromDeckList(string(data))
}

// fromSections reads the three section collections of a structured payload.
func fromSections(payload *structuredPayload) *Deck {
	d := newDeck()
	addSection(d, d.Main, payload.Main)
	addSection(d, d.Extra, payload.Extra)
	addSection(d, d.Side, payload.Side)
	return d
}

// addSection decodes one section's card references into counts. Sections
// that are null or not a list of objects count as empty. Objects without
// any name field are skipped silently.
func addSection(d *Deck, section map[string]int, raw json.RawMessage) {
	if raw == nil {
		return
	}
	var refs []cardRef
	if err := json.Unmarshal(raw, &refs); err != nil {
		return
	}
	for _, ref := range refs {
		name := ref.Name
		if name == "" {
			name = ref.CleanName
		}
		if name == "" {
			name = ref.CardName
		}
		if name == "" {
			continue
		}
		name = Normalize(name)
		section[name]++
		d.Combined[name]++
	}
}

// fromDeckList parses newline-delimited deck-list text. Blank lines and
// comment lines ('#' or '!') are skipped. A purely numeric line is an
// opaque card-ID reference and is recorded under a synthetic CARD_ID key;
// resolving IDs to names is out of scope here. Section membership is not
// encoded in this format, so the cards land in Combined only.
func fromDeckList(text string) *Deck {
	d := newDeck()
	for _, line := range strings.Split(text, "\n") {
		ln := strings.TrimSpace(line)
		if ln == "" || strings.HasPrefix(ln, "#") || strings.HasPrefix(ln, "!") {
			continue
		}
		if isDigits(ln) {
			d.Combined["CARD_ID:"+ln]++
		} else {
			d.Combined[Normalize(ln)]++
		}
	}
	return d
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// MainSide returns the union of main and side with summed quantities. It is
// derived on demand so the main+side scope can never drift from its parts.
func (d *Deck) MainSide() map[string]int {
	ms := make(map[string]int, len(d.Main)+len(d.Side))
	for card, qty := range d.Main {
		ms[card] += qty
	}
	for card, qty := range d.Side {
		ms[card] += qty
	}
	return ms
}

// TotalCards returns the combined quantity across all parsed cards.
func (d *Deck) TotalCards() int {
	total := 0
	for _, qty := range d.Combined {
		total += qty
	}
	return total
}

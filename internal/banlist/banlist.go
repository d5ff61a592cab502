// Package banlist extracts limited and semi-limited cards from a Format
// Library banlist payload.
package banlist

import (
	"encoding/json"
	"sort"
	"strings"
)

// Entry is one restricted card and its allowed copy count.
type Entry struct {
	Card string
	Ban  int
}

// namedCard matches the card objects found inside banlist buckets.
type namedCard struct {
	CardName string `json:"cardName"`
	Name     string `json:"name"`
}

func (c namedCard) resolvedName() string {
	if c.CardName != "" {
		return c.CardName
	}
	return c.Name
}

// ExtractCards pulls the limited (1 copy) and semi-limited (2 copies) cards
// out of a banlist payload. Buckets appear as a list of card objects, an
// object with an "items" list, or an object whose values are card objects.
// A card named in both buckets keeps the stricter count. Results are sorted
// by name, case-insensitively.
func ExtractCards(payload []byte) []Entry {
	var doc struct {
		Limited     json.RawMessage `json:"limited"`
		SemiLimited json.RawMessage `json:"semiLimited"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil
	}

	counts := map[string]int{}
	addBucket(counts, doc.Limited, 1)
	addBucket(counts, doc.SemiLimited, 2)

	entries := make([]Entry, 0, len(counts))
	for card, ban := range counts {
		entries = append(entries, Entry{Card: card, Ban: ban})
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Card) < strings.ToLower(entries[j].Card)
	})
	return entries
}

func addBucket(counts map[string]int, bucket json.RawMessage, ban int) {
	for _, card := range bucketCards(bucket) {
		name := card.resolvedName()
		if name == "" {
			continue
		}
		if prev, ok := counts[name]; !ok || ban < prev {
			counts[name] = ban
		}
	}
}

func bucketCards(bucket json.RawMessage) []namedCard {
	if len(bucket) == 0 {
		return nil
	}

	var list []namedCard
	if err := json.Unmarshal(bucket, &list); err == nil {
		return list
	}

	var withItems struct {
		Items []namedCard `json:"items"`
	}
	if err := json.Unmarshal(bucket, &withItems); err == nil && withItems.Items != nil {
		return withItems.Items
	}

	var byKey map[string]namedCard
	if err := json.Unmarshal(bucket, &byKey); err == nil {
		cards := make([]namedCard, 0, len(byKey))
		for _, card := range byKey {
			cards = append(cards, card)
		}
		return cards
	}

	return nil
}

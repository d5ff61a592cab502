// Package usage aggregates per-event deck observations into the
// cross-tabulated card usage counters exported to the presentation layer.
package usage

// CutTier pairs a placement tier label with its bracket-size threshold.
type CutTier struct {
	Label     string
	Threshold int
}

// CutTiers lists every placement tier in display order, Winner first.
// A deck qualifies for a tier when the event bracket is at least that
// large and the deck placed within the threshold, so a winner in a big
// bracket counts toward every nested tier at once.
var CutTiers = []CutTier{
	{Label: "Winner", Threshold: 1},
	{Label: "Finalist", Threshold: 2},
	{Label: "Top 4", Threshold: 4},
	{Label: "Top 8", Threshold: 8},
	{Label: "Top 16", Threshold: 16},
	{Label: "Top 24", Threshold: 24},
	{Label: "Top 32", Threshold: 32},
	{Label: "Top 48", Threshold: 48},
	{Label: "Top 64", Threshold: 64},
}

// PlacementUnknown is substituted when an entry's placement cannot be
// parsed. It exceeds every tier threshold, so such decks qualify for no
// cut tier while still contributing to unconditioned totals.
const PlacementUnknown = 9999

// TiersFor returns the labels of every tier the given placement qualifies
// for in a bracket of the given size, in fixed tier-definition order.
func TiersFor(placement, bracketSize int) []string {
	var tiers []string
	for _, t := range CutTiers {
		if t.Threshold <= bracketSize && placement <= t.Threshold {
			tiers = append(tiers, t.Label)
		}
	}
	return tiers
}

// InferBracketSize derives an event's bracket size from the length of its
// observed top-cut list: the smallest tier threshold that covers the list,
// or the list length itself when it exceeds every threshold.
func InferBracketSize(topCutLen int) int {
	for _, t := range CutTiers {
		if topCutLen <= t.Threshold {
			return t.Threshold
		}
	}
	return topCutLen
}

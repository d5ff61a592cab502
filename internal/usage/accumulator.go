package usage

import "goatstats/internal/deck"

// table is a sparse two-level counter keyed by an outer and inner dimension.
// Only observed combinations are present; there is no zero padding.
type table map[string]map[string]int

func (t table) add(outer, inner string, n int) {
	m := t[outer]
	if m == nil {
		m = make(map[string]int)
		t[outer] = m
	}
	m[inner] += n
}

// copyTable returns a deep copy, detaching exported data from live state.
func copyTable(t table) map[string]map[string]int {
	out := make(map[string]map[string]int, len(t))
	for outer, inner := range t {
		m := make(map[string]int, len(inner))
		for k, v := range inner {
			m[k] = v
		}
		out[outer] = m
	}
	return out
}

func copyCounter(c map[string]int) map[string]int {
	out := make(map[string]int, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Accumulator is the run-scoped state for the usage aggregation. It is
// created empty, mutated once per observed deck by the single driving
// loop, and read only after the full event list has been consumed. All
// counters are sparse and monotonically increasing within a run.
//
// Observe has no deduplication: feeding the same deck twice double-counts.
// Invoking it exactly once per real deck is the caller's contract.
type Accumulator struct {
	// Combined scope: all sections together.
	cardTotal    map[string]int
	cardByCut    table // card -> tier -> decks containing the card
	cardQtyByCut table // card -> tier -> total copies

	// Per-section totals. The main+side scope is filled from the deck's
	// derived main+side counts, never accumulated independently, so
	// mainSide[card] == main[card] + side[card] holds by construction.
	cardTotalMain     map[string]int
	cardTotalSide     map[string]int
	cardTotalExtra    map[string]int
	cardTotalMainSide map[string]int

	cardByCutMain     table
	cardByCutSide     table
	cardByCutExtra    table
	cardByCutMainSide table

	cardQtyByCutMain     table
	cardQtyByCutSide     table
	cardQtyByCutExtra    table
	cardQtyByCutMainSide table

	// Archetype dimension.
	archetypeTotal map[string]int
	archetypeByCut table // archetype -> tier -> deck count
	deckCutTotal   map[string]int

	// Card x archetype cross-tabulation, materialized in both orientations
	// for symmetric lookups downstream.
	cardByArchetype       table // card -> archetype -> deck count (presence)
	cardQtyByArchetype    table // card -> archetype -> total copies
	archetypeCardPresence table // archetype -> card -> deck count (presence)
	archetypeCardQty      table // archetype -> card -> total copies
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		cardTotal:    make(map[string]int),
		cardByCut:    make(table),
		cardQtyByCut: make(table),

		cardTotalMain:     make(map[string]int),
		cardTotalSide:     make(map[string]int),
		cardTotalExtra:    make(map[string]int),
		cardTotalMainSide: make(map[string]int),

		cardByCutMain:     make(table),
		cardByCutSide:     make(table),
		cardByCutExtra:    make(table),
		cardByCutMainSide: make(table),

		cardQtyByCutMain:     make(table),
		cardQtyByCutSide:     make(table),
		cardQtyByCutExtra:    make(table),
		cardQtyByCutMainSide: make(table),

		archetypeTotal: make(map[string]int),
		archetypeByCut: make(table),
		deckCutTotal:   make(map[string]int),

		cardByArchetype:       make(table),
		cardQtyByArchetype:    make(table),
		archetypeCardPresence: make(table),
		archetypeCardQty:      make(table),
	}
}

// Observe folds one fully-parsed deck into every counter. placement is the
// deck's final rank (PlacementUnknown when unparsable), archetype its
// strategy label ("Unknown" is substituted for an empty one), and
// bracketSize the event's inferred bracket. Malformed input is absorbed:
// an empty deck still counts toward archetype and per-tier deck totals.
func (a *Accumulator) Observe(d *deck.Deck, placement int, archetype string, bracketSize int) {
	if archetype == "" {
		archetype = "Unknown"
	}
	tiers := TiersFor(placement, bracketSize)
	mainSide := d.MainSide()

	// Totals by quantity, combined and per scope.
	for card, qty := range d.Combined {
		a.cardTotal[card] += qty
	}
	for card, qty := range d.Main {
		a.cardTotalMain[card] += qty
	}
	for card, qty := range d.Side {
		a.cardTotalSide[card] += qty
	}
	for card, qty := range d.Extra {
		a.cardTotalExtra[card] += qty
	}
	for card, qty := range mainSide {
		a.cardTotalMainSide[card] += qty
	}

	// Per-tier presence and quantity, combined and per scope. Presence
	// counts the deck once per card; quantity sums copies.
	for _, tier := range tiers {
		for card, qty := range d.Combined {
			a.cardByCut.add(card, tier, 1)
			a.cardQtyByCut.add(card, tier, qty)
		}
		for card, qty := range d.Main {
			a.cardByCutMain.add(card, tier, 1)
			a.cardQtyByCutMain.add(card, tier, qty)
		}
		for card, qty := range d.Side {
			a.cardByCutSide.add(card, tier, 1)
			a.cardQtyByCutSide.add(card, tier, qty)
		}
		for card, qty := range d.Extra {
			a.cardByCutExtra.add(card, tier, 1)
			a.cardQtyByCutExtra.add(card, tier, qty)
		}
		for card, qty := range mainSide {
			a.cardByCutMainSide.add(card, tier, 1)
			a.cardQtyByCutMainSide.add(card, tier, qty)
		}
	}

	// Archetype and per-tier deck tallies. These run even for decks whose
	// payload yielded zero cards.
	a.archetypeTotal[archetype]++
	for _, tier := range tiers {
		a.deckCutTotal[tier]++
		a.archetypeByCut.add(archetype, tier, 1)
	}

	// Card x archetype, both orientations.
	for card, qty := range d.Combined {
		a.cardByArchetype.add(card, archetype, 1)
		a.archetypeCardPresence.add(archetype, card, 1)
		a.cardQtyByArchetype.add(card, archetype, qty)
		a.archetypeCardQty.add(archetype, card, qty)
	}
}

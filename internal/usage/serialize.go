package usage

import "time"

// Source records the endpoint templates a run was fed from, for provenance.
type Source struct {
	GalleryEndpoint      string `json:"gallery_endpoint"`
	EventEndpointPattern string `json:"event_endpoint_pattern"`
	DeckDownloadPattern  string `json:"deck_download_pattern"`
}

// Aggregates is the flat export document consumed downstream by the sheet
// builders. Every table is a sparse mapping holding only observed
// combinations; key order carries no meaning. The field names are a stable
// contract and must not change.
type Aggregates struct {
	GeneratedAt string   `json:"generated_at"`
	Source      Source   `json:"source"`
	Notes       []string `json:"notes"`

	PerCardTotal    map[string]int            `json:"per_card_total"`
	PerCardByCut    map[string]map[string]int `json:"per_card_by_cut"`
	PerCardQtyByCut map[string]map[string]int `json:"per_card_qty_by_cut"`

	PerCardTotalMain     map[string]int `json:"per_card_total_main"`
	PerCardTotalSide     map[string]int `json:"per_card_total_side"`
	PerCardTotalExtra    map[string]int `json:"per_card_total_extra"`
	PerCardTotalMainSide map[string]int `json:"per_card_total_main_side"`

	PerCardByCutMain     map[string]map[string]int `json:"per_card_by_cut_main"`
	PerCardByCutSide     map[string]map[string]int `json:"per_card_by_cut_side"`
	PerCardByCutExtra    map[string]map[string]int `json:"per_card_by_cut_extra"`
	PerCardByCutMainSide map[string]map[string]int `json:"per_card_by_cut_main_side"`

	PerCardQtyByCutMain     map[string]map[string]int `json:"per_card_qty_by_cut_main"`
	PerCardQtyByCutSide     map[string]map[string]int `json:"per_card_qty_by_cut_side"`
	PerCardQtyByCutExtra    map[string]map[string]int `json:"per_card_qty_by_cut_extra"`
	PerCardQtyByCutMainSide map[string]map[string]int `json:"per_card_qty_by_cut_main_side"`

	PerArchetypeTotal map[string]int            `json:"per_archetype_total"`
	PerArchetypeByCut map[string]map[string]int `json:"per_archetype_by_cut"`
	PerDeckCutTotal   map[string]int            `json:"per_deck_cut_total"`

	PerCardByArchetype    map[string]map[string]int `json:"per_card_by_archetype"`
	PerCardQtyByArchetype map[string]map[string]int `json:"per_card_qty_by_archetype"`
	PerArchetypeCardPres  map[string]map[string]int `json:"per_archetype_card_presence"`
	PerArchetypeCardQty   map[string]map[string]int `json:"per_archetype_card_qty"`
}

// exportNotes describes each table's semantics for human readers of the
// export document. The wording is part of the stable output.
var exportNotes = []string{
	"per_card_total: total quantity of each card across all parsed decks (summing copies, all sections)",
	"per_card_by_cut: number of decks that included the card at each cut tier (presence-based, all sections)",
	"per_card_qty_by_cut: total copies of the card at each cut tier (all sections)",
	"per_card_total_main/side/extra: totals by section",
	"per_card_total_main_side: totals for main+side (excluding extra)",
	"per_card_by_cut_* and per_card_qty_by_cut_*: section-specific presence/quantity by cut, including main_side",
	"per_archetype_total: number of decks per archetype (each deck counted once)",
	"per_archetype_by_cut: number of decks of that archetype that made each cut tier",
	"per_deck_cut_total: total decks that reached each cut tier (all archetypes)",
	"per_card_by_archetype: for each card, how many decks of each archetype included it (presence).",
	"per_card_qty_by_archetype: for each card, total copies across decks of each archetype.",
	"per_archetype_card_presence: for each archetype, how many decks used each card (presence).",
	"per_archetype_card_qty: for each archetype, total copies of each card.",
}

// Export flattens the accumulator into the export document. All maps are
// deep-copied so the result is detached from further accumulation; two
// accumulators fed the same observations in any order export equal
// documents.
func (a *Accumulator) Export(source Source, generatedAt time.Time) *Aggregates {
	return &Aggregates{
		GeneratedAt: generatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Source:      source,
		Notes:       exportNotes,

		PerCardTotal:    copyCounter(a.cardTotal),
		PerCardByCut:    copyTable(a.cardByCut),
		PerCardQtyByCut: copyTable(a.cardQtyByCut),

		PerCardTotalMain:     copyCounter(a.cardTotalMain),
		PerCardTotalSide:     copyCounter(a.cardTotalSide),
		PerCardTotalExtra:    copyCounter(a.cardTotalExtra),
		PerCardTotalMainSide: copyCounter(a.cardTotalMainSide),

		PerCardByCutMain:     copyTable(a.cardByCutMain),
		PerCardByCutSide:     copyTable(a.cardByCutSide),
		PerCardByCutExtra:    copyTable(a.cardByCutExtra),
		PerCardByCutMainSide: copyTable(a.cardByCutMainSide),

		PerCardQtyByCutMain:     copyTable(a.cardQtyByCutMain),
		PerCardQtyByCutSide:     copyTable(a.cardQtyByCutSide),
		PerCardQtyByCutExtra:    copyTable(a.cardQtyByCutExtra),
		PerCardQtyByCutMainSide: copyTable(a.cardQtyByCutMainSide),

		PerArchetypeTotal: copyCounter(a.archetypeTotal),
		PerArchetypeByCut: copyTable(a.archetypeByCut),
		PerDeckCutTotal:   copyCounter(a.deckCutTotal),

		PerCardByArchetype:    copyTable(a.cardByArchetype),
		PerCardQtyByArchetype: copyTable(a.cardQtyByArchetype),
		PerArchetypeCardPres:  copyTable(a.archetypeCardPresence),
		PerArchetypeCardQty:   copyTable(a.archetypeCardQty),
	}
}

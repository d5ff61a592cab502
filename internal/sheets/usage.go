package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"goatstats/internal/usage"
)

// defaultCutLabels is the display order for cut tiers; labels found in the
// data but not listed here are appended alphabetically.
var defaultCutLabels = []string{
	"Winner", "Finalist", "Top 4", "Top 8", "Top 16", "Top 24", "Top 32", "Top 48", "Top 64",
}

// unionCutLabels collects every tier label appearing in the given tables,
// ordered by the default display order with unknown labels sorted after.
func unionCutLabels(tables ...map[string]map[string]int) []string {
	found := map[string]bool{}
	for _, table := range tables {
		for _, tiers := range table {
			for label := range tiers {
				found[label] = true
			}
		}
	}

	var ordered []string
	for _, label := range defaultCutLabels {
		if found[label] {
			ordered = append(ordered, label)
			delete(found, label)
		}
	}
	extra := make([]string, 0, len(found))
	for label := range found {
		extra = append(extra, label)
	}
	sort.Strings(extra)
	ordered = append(ordered, extra...)

	if len(ordered) == 0 {
		return append([]string(nil), defaultCutLabels...)
	}
	return ordered
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// labelColumn builds a one-column matrix with a header.
func labelColumn(header string, items []string) [][]interface{} {
	matrix := [][]interface{}{{header}}
	for _, item := range items {
		matrix = append(matrix, []interface{}{item})
	}
	return matrix
}

// totalTable builds the Card/Value table written below the lookup controls.
// Rows follow the card universe so every sheet aligns.
func totalTable(mapping map[string]int, cards []string) [][]interface{} {
	matrix := [][]interface{}{{"Card", "Value"}}
	for _, card := range cards {
		matrix = append(matrix, []interface{}{card, mapping[card]})
	}
	return matrix
}

// totalControls is the header block of a totals sheet: a card dropdown in
// A2 and a live VLOOKUP against the table that starts on row 4.
func totalControls() [][]interface{} {
	return [][]interface{}{
		{"Card", "Value", "", ""},
		{"", "=IFERROR(VLOOKUP(A2, A4:B, 2, FALSE), 0)", "", ""},
		{"", "", "", ""},
	}
}

// byCutTable builds the Card x Label table with zeroes for missing tiers.
func byCutTable(mapping map[string]map[string]int, labels, cards []string) [][]interface{} {
	header := make([]interface{}, 0, len(labels)+1)
	header = append(header, "Card")
	for _, label := range labels {
		header = append(header, label)
	}

	matrix := [][]interface{}{header}
	for _, card := range cards {
		tiers := mapping[card]
		row := make([]interface{}, 0, len(labels)+1)
		row = append(row, card)
		for _, label := range labels {
			row = append(row, tiers[label])
		}
		matrix = append(matrix, row)
	}
	return matrix
}

// byCutControls is the header block of a by-cut sheet: a card dropdown in
// A2, a label dropdown in B2, and an INDEX/MATCH into the table below.
func byCutControls(labels []string) [][]interface{} {
	lastCol := colLetter(1 + len(labels))
	formula := fmt.Sprintf(
		"=IFERROR(INDEX(A5:%s100000, MATCH(A2, A5:A100000, 0), MATCH(B2, A4:%s4, 0)), 0)",
		lastCol, lastCol)

	firstLabel := ""
	if len(labels) > 0 {
		firstLabel = labels[0]
	}
	return [][]interface{}{
		{"Card", "Label", "Value"},
		{"", firstLabel, formula},
		{""},
	}
}

// overviewHeader lists the overview columns: card, label control, then one
// column per published table.
func overviewHeader() [][]interface{} {
	return [][]interface{}{{
		"Card", "Label",
		"per_card_total", "per_card_total_main", "per_card_total_side", "per_card_total_extra", "per_card_total_main_side",
		"per_card_by_cut", "per_card_qty_by_cut",
		"per_card_by_cut_main", "per_card_by_cut_side", "per_card_by_cut_extra", "per_card_by_cut_main_side",
		"per_card_qty_by_cut_main", "per_card_qty_by_cut_side", "per_card_qty_by_cut_extra", "per_card_qty_by_cut_main_side",
	}}
}

// overviewFormulas builds one row of live lookups per card. Totals come from
// VLOOKUPs into each totals sheet; by-cut values come from INDEX/MATCH keyed
// on the label control in B2. startRow is the sheet row of the first card.
func overviewFormulas(cards []string, startRow int) [][]interface{} {
	vlookup := func(tab string, row int) string {
		return fmt.Sprintf("=IFERROR(VLOOKUP($A%d,'%s'!A4:B,2,FALSE),0)", row, tab)
	}
	byCut := func(tab string, row int) string {
		return fmt.Sprintf(
			"=IFERROR(INDEX('%s'!A5:ZZ100000, MATCH($A%d,'%s'!A5:A100000,0), MATCH($B$2,'%s'!A4:ZZ4,0)),0)",
			tab, row, tab, tab)
	}

	rows := make([][]interface{}, 0, len(cards))
	for i := range cards {
		row := startRow + i
		rows = append(rows, []interface{}{
			vlookup("per_card_total", row),
			vlookup("per_card_total_main", row),
			vlookup("per_card_total_side", row),
			vlookup("per_card_total_extra", row),
			vlookup("per_card_total_main_side", row),

			byCut("per_card_by_cut", row),
			byCut("per_card_qty_by_cut", row),

			byCut("per_card_by_cut_main", row),
			byCut("per_card_by_cut_side", row),
			byCut("per_card_by_cut_extra", row),
			byCut("per_card_by_cut_main_side", row),

			byCut("per_card_qty_by_cut_main", row),
			byCut("per_card_qty_by_cut_side", row),
			byCut("per_card_qty_by_cut_extra", row),
			byCut("per_card_qty_by_cut_main_side", row),
		})
	}
	return rows
}

// PublishUsage writes the full per-card workbook: the card and lists
// dropdown sources, one sheet per totals table, one sheet per by-cut table,
// and the interactive overview sheet moved to the front.
func PublishUsage(ctx context.Context, ss *Spreadsheet, agg *usage.Aggregates, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	cards := sortedKeys(agg.PerCardTotal)

	byCutTables := []struct {
		title string
		data  map[string]map[string]int
	}{
		{"per_card_by_cut", agg.PerCardByCut},
		{"per_card_qty_by_cut", agg.PerCardQtyByCut},
		{"per_card_by_cut_main", agg.PerCardByCutMain},
		{"per_card_by_cut_side", agg.PerCardByCutSide},
		{"per_card_by_cut_extra", agg.PerCardByCutExtra},
		{"per_card_by_cut_main_side", agg.PerCardByCutMainSide},
		{"per_card_qty_by_cut_main", agg.PerCardQtyByCutMain},
		{"per_card_qty_by_cut_side", agg.PerCardQtyByCutSide},
		{"per_card_qty_by_cut_extra", agg.PerCardQtyByCutExtra},
		{"per_card_qty_by_cut_main_side", agg.PerCardQtyByCutMainSide},
	}

	allTables := make([]map[string]map[string]int, 0, len(byCutTables))
	for _, t := range byCutTables {
		allTables = append(allTables, t.data)
	}
	labels := unionCutLabels(allTables...)

	// Dropdown sources.
	if err := buildListSheet(ctx, ss, "card", "Card", cards); err != nil {
		return err
	}
	if err := buildListSheet(ctx, ss, "lists", "Cut Labels", labels); err != nil {
		return err
	}

	totalTables := []struct {
		title string
		data  map[string]int
	}{
		{"per_card_total", agg.PerCardTotal},
		{"per_card_total_main", agg.PerCardTotalMain},
		{"per_card_total_side", agg.PerCardTotalSide},
		{"per_card_total_extra", agg.PerCardTotalExtra},
		{"per_card_total_main_side", agg.PerCardTotalMainSide},
	}
	for _, t := range totalTables {
		if err := buildTotalSheet(ctx, ss, t.title, t.data, cards); err != nil {
			return err
		}
		logger.Info("published totals sheet", "sheet", t.title, "cards", len(cards))
	}

	for _, t := range byCutTables {
		if err := buildByCutSheet(ctx, ss, t.title, t.data, labels, cards); err != nil {
			return err
		}
		logger.Info("published by-cut sheet", "sheet", t.title, "cards", len(cards), "labels", len(labels))
	}

	if err := buildOverviewSheet(ctx, ss, cards, labels); err != nil {
		return err
	}
	logger.Info("published overview sheet", "cards", len(cards))
	return nil
}

func buildListSheet(ctx context.Context, ss *Spreadsheet, title, header string, items []string) error {
	if err := ss.Upsert(ctx, title, max(100, int64(len(items)+10)), 2); err != nil {
		return err
	}
	if err := ss.WriteMatrix(ctx, title, 1, 1, labelColumn(header, items), false); err != nil {
		return err
	}
	return ss.Freeze(ctx, title, 1, 0)
}

func buildTotalSheet(ctx context.Context, ss *Spreadsheet, title string, mapping map[string]int, cards []string) error {
	if err := ss.Upsert(ctx, title, max(2000, int64(len(cards)+20)), 4); err != nil {
		return err
	}
	if err := ss.WriteMatrix(ctx, title, 1, 1, totalControls(), true); err != nil {
		return err
	}
	if err := ss.DropdownFromRange(ctx, title, 2, 1, "'card'!A2:A"); err != nil {
		return err
	}
	if err := ss.WriteMatrix(ctx, title, 4, 1, totalTable(mapping, cards), false); err != nil {
		return err
	}
	return ss.Freeze(ctx, title, 4, 0)
}

func buildByCutSheet(ctx context.Context, ss *Spreadsheet, title string, mapping map[string]map[string]int, labels, cards []string) error {
	cols := int64(len(labels) + 3)
	if cols < 5 {
		cols = 5
	}
	if err := ss.Upsert(ctx, title, max(2000, int64(len(cards)+20)), cols); err != nil {
		return err
	}
	if err := ss.WriteMatrix(ctx, title, 1, 1, byCutControls(labels), true); err != nil {
		return err
	}
	if err := ss.DropdownFromRange(ctx, title, 2, 1, "'card'!A2:A"); err != nil {
		return err
	}
	if len(labels) > 0 {
		if err := ss.DropdownFromList(ctx, title, 2, 2, labels); err != nil {
			return err
		}
	}
	if err := ss.WriteMatrix(ctx, title, 4, 1, byCutTable(mapping, labels, cards), false); err != nil {
		return err
	}
	return ss.Freeze(ctx, title, 4, 0)
}

func buildOverviewSheet(ctx context.Context, ss *Spreadsheet, cards, labels []string) error {
	const title = "Goat"
	const firstCardRow = 3

	if err := ss.Upsert(ctx, title, max(2000, int64(len(cards)+10)), 17); err != nil {
		return err
	}
	if err := ss.WriteMatrix(ctx, title, 1, 1, overviewHeader(), false); err != nil {
		return err
	}

	firstLabel := ""
	if len(labels) > 0 {
		firstLabel = labels[0]
	}
	if err := ss.WriteMatrix(ctx, title, 2, 1, [][]interface{}{{"", firstLabel}}, false); err != nil {
		return err
	}
	if err := ss.DropdownFromList(ctx, title, 2, 2, labels); err != nil {
		return err
	}

	cardRows := make([][]interface{}, 0, len(cards))
	for _, card := range cards {
		cardRows = append(cardRows, []interface{}{card})
	}
	if err := ss.WriteMatrix(ctx, title, firstCardRow, 1, cardRows, false); err != nil {
		return err
	}

	if err := ss.WriteMatrix(ctx, title, firstCardRow, 3, overviewFormulas(cards, firstCardRow), true); err != nil {
		return err
	}

	if err := ss.Freeze(ctx, title, 2, 0); err != nil {
		return err
	}
	return ss.MoveFirst(ctx, title)
}

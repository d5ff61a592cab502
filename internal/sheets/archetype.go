package sheets

import (
	"context"
	"log/slog"
	"sort"

	"goatstats/internal/usage"
)

// crossMatrix flattens a nested table into a rectangular grid: outer keys
// become rows, the sorted union of inner keys becomes columns, and missing
// combinations read as zero.
func crossMatrix(rowHeader string, table map[string]map[string]int) [][]interface{} {
	rows := make([]string, 0, len(table))
	for k := range table {
		rows = append(rows, k)
	}
	sort.Strings(rows)

	colSet := map[string]bool{}
	for _, inner := range table {
		for k := range inner {
			colSet[k] = true
		}
	}
	cols := make([]string, 0, len(colSet))
	for k := range colSet {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	header := make([]interface{}, 0, len(cols)+1)
	header = append(header, rowHeader)
	for _, c := range cols {
		header = append(header, c)
	}

	matrix := [][]interface{}{header}
	for _, r := range rows {
		inner := table[r]
		row := make([]interface{}, 0, len(cols)+1)
		row = append(row, r)
		for _, c := range cols {
			row = append(row, inner[c])
		}
		matrix = append(matrix, row)
	}
	return matrix
}

// PublishArchetypes writes the four card/archetype cross-tabulation sheets
// as plain matrices, one worksheet per table.
func PublishArchetypes(ctx context.Context, ss *Spreadsheet, agg *usage.Aggregates, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	tables := []struct {
		title     string
		rowHeader string
		data      map[string]map[string]int
	}{
		{"per_card_by_archetype", "Card", agg.PerCardByArchetype},
		{"per_card_qty_by_archetype", "Card", agg.PerCardQtyByArchetype},
		{"per_archetype_card_presence", "Archetype", agg.PerArchetypeCardPres},
		{"per_archetype_card_qty", "Archetype", agg.PerArchetypeCardQty},
	}

	for _, t := range tables {
		if len(t.data) == 0 {
			logger.Warn("no data, skipping sheet", "sheet", t.title)
			continue
		}

		matrix := crossMatrix(t.rowHeader, t.data)
		if err := ss.Upsert(ctx, t.title, int64(len(matrix)), int64(len(matrix[0]))); err != nil {
			return err
		}
		if err := ss.WriteMatrix(ctx, t.title, 1, 1, matrix, false); err != nil {
			return err
		}
		logger.Info("published cross-tab sheet", "sheet", t.title, "rows", len(matrix)-1)
	}
	return nil
}

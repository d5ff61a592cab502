package sheets

import (
	"context"

	"goatstats/internal/banlist"
)

// banlistMatrix lays out the banlist worksheet: a header row followed by
// one card and its allowed copy count per row.
func banlistMatrix(entries []banlist.Entry) [][]interface{} {
	matrix := [][]interface{}{{"card", "ban"}}
	for _, e := range entries {
		matrix = append(matrix, []interface{}{e.Card, e.Ban})
	}
	return matrix
}

// PublishBanlist writes restricted cards to a single worksheet.
func PublishBanlist(ctx context.Context, ss *Spreadsheet, sheetName string, entries []banlist.Entry) error {
	if err := ss.Upsert(ctx, sheetName, max(100, int64(len(entries)+10)), 2); err != nil {
		return err
	}
	if err := ss.WriteMatrix(ctx, sheetName, 1, 1, banlistMatrix(entries), false); err != nil {
		return err
	}
	return ss.Freeze(ctx, sheetName, 1, 0)
}

package sheets

import (
	"reflect"
	"strings"
	"testing"

	"goatstats/internal/banlist"
)

func TestColLetter(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "A"}, {2, "B"}, {26, "Z"}, {27, "AA"}, {28, "AB"}, {52, "AZ"}, {53, "BA"}, {702, "ZZ"},
	}
	for _, tt := range tests {
		if got := colLetter(tt.n); got != tt.want {
			t.Errorf("colLetter(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestRangeRef(t *testing.T) {
	if got := rangeRef("per_card_total", 4, 1, 10, 2); got != "'per_card_total'!A4:B10" {
		t.Errorf("rangeRef = %q", got)
	}
	if got := cellRef(2, 2); got != "B2" {
		t.Errorf("cellRef = %q", got)
	}
}

func TestUnionCutLabels(t *testing.T) {
	got := unionCutLabels(
		map[string]map[string]int{
			"Sangan": {"Top 8": 1, "Winner": 1},
		},
		map[string]map[string]int{
			"Sinister Serpent": {"Finalist": 2, "Top 128": 1},
		},
	)

	// Known labels keep display order, unknown ones sort after.
	want := []string{"Winner", "Finalist", "Top 8", "Top 128"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestUnionCutLabelsEmptyFallsBackToDefaults(t *testing.T) {
	got := unionCutLabels(map[string]map[string]int{})
	if !reflect.DeepEqual(got, defaultCutLabels) {
		t.Errorf("labels = %v, want defaults", got)
	}
}

func TestTotalTableAlignsToCardUniverse(t *testing.T) {
	cards := []string{"Dark Hole", "Pot of Greed", "Sangan"}
	matrix := totalTable(map[string]int{"Pot of Greed": 5}, cards)

	want := [][]interface{}{
		{"Card", "Value"},
		{"Dark Hole", 0},
		{"Pot of Greed", 5},
		{"Sangan", 0},
	}
	if !reflect.DeepEqual(matrix, want) {
		t.Errorf("matrix = %v, want %v", matrix, want)
	}
}

func TestByCutTableZeroFills(t *testing.T) {
	labels := []string{"Winner", "Finalist"}
	cards := []string{"Sangan", "Sinister Serpent"}
	mapping := map[string]map[string]int{
		"Sangan": {"Winner": 3},
	}

	matrix := byCutTable(mapping, labels, cards)
	want := [][]interface{}{
		{"Card", "Winner", "Finalist"},
		{"Sangan", 3, 0},
		{"Sinister Serpent", 0, 0},
	}
	if !reflect.DeepEqual(matrix, want) {
		t.Errorf("matrix = %v, want %v", matrix, want)
	}
}

func TestByCutControlsFormula(t *testing.T) {
	controls := byCutControls([]string{"Winner", "Finalist", "Top 4"})

	if controls[1][1] != "Winner" {
		t.Errorf("label control = %v, want first label", controls[1][1])
	}

	formula, ok := controls[1][2].(string)
	if !ok || !strings.HasPrefix(formula, "=IFERROR(INDEX(A5:D100000") {
		t.Errorf("formula = %v, want INDEX over columns A..D", controls[1][2])
	}
	if !strings.Contains(formula, "MATCH(B2, A4:D4, 0)") {
		t.Errorf("formula = %q, want label match against header row", formula)
	}
}

func TestOverviewFormulasReferenceSheetRows(t *testing.T) {
	rows := overviewFormulas([]string{"Sangan", "Sinister Serpent"}, 3)

	if len(rows) != 2 || len(rows[0]) != 15 {
		t.Fatalf("rows = %dx%d, want 2x15", len(rows), len(rows[0]))
	}

	first, ok := rows[0][0].(string)
	if !ok || first != "=IFERROR(VLOOKUP($A3,'per_card_total'!A4:B,2,FALSE),0)" {
		t.Errorf("first formula = %v", rows[0][0])
	}

	second, ok := rows[1][5].(string)
	if !ok || !strings.Contains(second, "MATCH($A4,'per_card_by_cut'!A5:A100000,0)") {
		t.Errorf("by-cut formula = %v, want row 4 card reference", rows[1][5])
	}
	if !strings.Contains(second, "MATCH($B$2,") {
		t.Errorf("by-cut formula = %q, want label pinned to B2", second)
	}
}

func TestOverviewHeaderColumns(t *testing.T) {
	header := overviewHeader()[0]
	if len(header) != 17 {
		t.Fatalf("header has %d columns, want 17", len(header))
	}
	if header[0] != "Card" || header[1] != "Label" || header[16] != "per_card_qty_by_cut_main_side" {
		t.Errorf("header = %v", header)
	}
}

func TestCrossMatrix(t *testing.T) {
	matrix := crossMatrix("Archetype", map[string]map[string]int{
		"Goat Control": {"Sangan": 4, "Scapegoat": 9},
		"Chaos":        {"Sangan": 2},
	})

	want := [][]interface{}{
		{"Archetype", "Sangan", "Scapegoat"},
		{"Chaos", 2, 0},
		{"Goat Control", 4, 9},
	}
	if !reflect.DeepEqual(matrix, want) {
		t.Errorf("matrix = %v, want %v", matrix, want)
	}
}

func TestBanlistMatrix(t *testing.T) {
	matrix := banlistMatrix([]banlist.Entry{
		{Card: "Pot of Greed", Ban: 1},
		{Card: "Abyss Soldier", Ban: 2},
	})

	want := [][]interface{}{
		{"card", "ban"},
		{"Pot of Greed", 1},
		{"Abyss Soldier", 2},
	}
	if !reflect.DeepEqual(matrix, want) {
		t.Errorf("matrix = %v, want %v", matrix, want)
	}
}

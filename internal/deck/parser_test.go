package deck

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims surrounding whitespace", in: "  Pot of Greed \t", want: "Pot of Greed"},
		{name: "preserves case and punctuation", in: "D.D. Warrior Lady", want: "D.D. Warrior Lady"},
		{name: "empty string", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// Idempotence
			if again := Normalize(got); again != got {
				t.Errorf("Normalize not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestParseStructured(t *testing.T) {
	payload := []byte(`{
		"main": [{"name": "Pot of Greed"}, {"name": "Pot of Greed"}, {"cleanName": "Dark Hole"}],
		"side": [{"cardName": " Book of Moon "}],
		"extra": []
	}`)

	d := Parse(payload)

	wantMain := map[string]int{"Pot of Greed": 2, "Dark Hole": 1}
	if !reflect.DeepEqual(d.Main, wantMain) {
		t.Errorf("main = %v, want %v", d.Main, wantMain)
	}
	wantSide := map[string]int{"Book of Moon": 1}
	if !reflect.DeepEqual(d.Side, wantSide) {
		t.Errorf("side = %v, want %v", d.Side, wantSide)
	}
	if len(d.Extra) != 0 {
		t.Errorf("extra = %v, want empty", d.Extra)
	}
	wantCombined := map[string]int{"Pot of Greed": 2, "Dark Hole": 1, "Book of Moon": 1}
	if !reflect.DeepEqual(d.Combined, wantCombined) {
		t.Errorf("combined = %v, want %v", d.Combined, wantCombined)
	}
}

func TestParseStructuredSingleCard(t *testing.T) {
	d := Parse([]byte(`{"main":[{"name":"Pot of Greed"}],"side":[],"extra":[]}`))

	if !reflect.DeepEqual(d.Main, map[string]int{"Pot of Greed": 1}) {
		t.Errorf("main = %v, want single Pot of Greed", d.Main)
	}
	if len(d.Side) != 0 || len(d.Extra) != 0 {
		t.Errorf("side/extra = %v/%v, want empty", d.Side, d.Extra)
	}
}

func TestParseSkipsUnnamedCards(t *testing.T) {
	d := Parse([]byte(`{"main":[{"id":123},{"name":"Sinister Serpent"}]}`))

	want := map[string]int{"Sinister Serpent": 1}
	if !reflect.DeepEqual(d.Main, want) {
		t.Errorf("main = %v, want %v", d.Main, want)
	}
}

func TestParseDeckListText(t *testing.T) {
	d := Parse([]byte(`{"ydk": "4001\n#comment\nDark Hole"}`))

	want := map[string]int{"CARD_ID:4001": 1, "Dark Hole": 1}
	if !reflect.DeepEqual(d.Combined, want) {
		t.Errorf("combined = %v, want %v", d.Combined, want)
	}
	// Deck-list text carries no section information.
	if len(d.Main)+len(d.Side)+len(d.Extra) != 0 {
		t.Errorf("deck-list text populated sections: main=%v side=%v extra=%v", d.Main, d.Side, d.Extra)
	}
}

func TestParseDeckListSkipsCommentsAndBlanks(t *testing.T) {
	text := "#created by tool\n!side\n\nGiant Trunade\nGiant Trunade\n  \n55144522"
	d := Parse([]byte(`{"ydk": ` + quoteJSON(text) + `}`))

	want := map[string]int{"Giant Trunade": 2, "CARD_ID:55144522": 1}
	if !reflect.DeepEqual(d.Combined, want) {
		t.Errorf("combined = %v, want %v", d.Combined, want)
	}
}

func TestParseEncodedString(t *testing.T) {
	// A JSON string wrapping a structured payload decodes through the chain.
	d := Parse([]byte(`"{\"main\":[{\"name\":\"Scapegoat\"}],\"side\":[],\"extra\":[]}"`))

	want := map[string]int{"Scapegoat": 1}
	if !reflect.DeepEqual(d.Main, want) {
		t.Errorf("main = %v, want %v", d.Main, want)
	}
}

func TestParseEncodedStringFallsBackToDeckList(t *testing.T) {
	d := Parse([]byte(`"Dark Hole\n4001"`))

	want := map[string]int{"Dark Hole": 1, "CARD_ID:4001": 1}
	if !reflect.DeepEqual(d.Combined, want) {
		t.Errorf("combined = %v, want %v", d.Combined, want)
	}
}

func TestParseRawTextBody(t *testing.T) {
	// A non-JSON response body is treated as a raw deck list.
	d := Parse([]byte("Premature Burial\nSnatch Steal"))

	want := map[string]int{"Premature Burial": 1, "Snatch Steal": 1}
	if !reflect.DeepEqual(d.Combined, want) {
		t.Errorf("combined = %v, want %v", d.Combined, want)
	}
}

func TestParseUnrecognizedShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "JSON array", in: `[1, 2, 3]`},
		{name: "JSON number", in: `42`},
		{name: "JSON null", in: `null`},
		{name: "object without sections or ydk", in: `{"foo": "bar"}`},
		{name: "empty input", in: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Parse([]byte(tt.in))
			if len(d.Combined) != 0 || len(d.Main) != 0 || len(d.Side) != 0 || len(d.Extra) != 0 {
				t.Errorf("Parse(%q) produced cards: %v", tt.in, d.Combined)
			}
		})
	}
}

func TestMainSideSum(t *testing.T) {
	d := Parse([]byte(`{
		"main": [{"name": "Pot of Greed"}, {"name": "Mystical Space Typhoon"}],
		"side": [{"name": "Mystical Space Typhoon"}, {"name": "Kinetic Soldier"}],
		"extra": [{"name": "Thousand-Eyes Restrict"}]
	}`))

	ms := d.MainSide()
	want := map[string]int{"Pot of Greed": 1, "Mystical Space Typhoon": 2, "Kinetic Soldier": 1}
	if !reflect.DeepEqual(ms, want) {
		t.Errorf("MainSide() = %v, want %v", ms, want)
	}

	// Sum of main and side quantities must equal the main+side total.
	sum := 0
	for _, qty := range d.Main {
		sum += qty
	}
	for _, qty := range d.Side {
		sum += qty
	}
	msSum := 0
	for _, qty := range ms {
		msSum += qty
	}
	if sum != msSum {
		t.Errorf("main+side quantity mismatch: %d vs %d", sum, msSum)
	}
}

// quoteJSON marshals a string as a JSON literal for embedding in test payloads.
func quoteJSON(s string) string {
	out := `"`
	for _, r := range s {
		switch r {
		case '\n':
			out += `\n`
		case '"':
			out += `\"`
		case '\\':
			out += `\\`
		default:
			out += string(r)
		}
	}
	return out + `"`
}

package stats

import (
	"strings"
	"testing"

	"noteapp-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []domain.NoteStatsEntry
	}{
		{
			name: "casing and punctuation collapse",
			text: "Note is just a note, NOTE!",
			want: []domain.NoteStatsEntry{
				{Word: "note", Count: 3},
				{Word: "a", Count: 1},
				{Word: "is", Count: 1},
				{Word: "just", Count: 1},
			},
		},
		{
			name: "empty",
			text: "",
			want: []domain.NoteStatsEntry{},
		},
		{
			name: "whitespace only",
			text: " \t\n  ",
			want: []domain.NoteStatsEntry{},
		},
		{
			name: "punctuation only",
			text: "?!... --",
			want: []domain.NoteStatsEntry{},
		},
		{
			name: "leading separator and digits",
			text: "...2024 plan_b, 2024 Plan_B plan",
			want: []domain.NoteStatsEntry{
				{Word: "2024", Count: 2},
				{Word: "plan_b", Count: 2},
				{Word: "plan", Count: 1},
			},
		},
		{
			name: "non-ascii letters stay inside words",
			text: "Café café CAFÉ naïve",
			want: []domain.NoteStatsEntry{
				{Word: "café", Count: 3},
				{Word: "naïve", Count: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompute_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[A-Za-z0-9_ ,.!?\n-]{0,200}`).Draw(t, "text")

		got := Compute(text)

		for i := 1; i < len(got); i++ {
			prev, cur := got[i-1], got[i]
			if prev.Count < cur.Count || (prev.Count == cur.Count && prev.Word >= cur.Word) {
				t.Fatalf("entries out of order at %d: %+v then %+v", i, prev, cur)
			}
		}

		total := 0
		for _, e := range got {
			if e.Count <= 0 {
				t.Fatalf("non-positive count for %q", e.Word)
			}
			if e.Word != strings.ToLower(e.Word) {
				t.Fatalf("word %q is not lowercase", e.Word)
			}
			total += e.Count
		}
		if want := len(strings.FieldsFunc(strings.ToLower(text), isSeparator)); total != want {
			t.Fatalf("expected %d tokens, counted %d", want, total)
		}

		again := Compute(text)
		if len(again) != len(got) {
			t.Fatalf("repeated computation differs in length")
		}
		for i := range got {
			if got[i] != again[i] {
				t.Fatalf("repeated computation differs at %d", i)
			}
		}
	})
}

func isSeparator(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
}

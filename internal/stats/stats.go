// Package stats derives word-frequency reports from note text.
package stats

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"noteapp-server/internal/domain"
)

// Word characters are letters (with their combining marks), decimal digits and
// underscore. Everything else separates tokens.
var separator = regexp.MustCompile(`[^\p{L}\p{M}\p{Nd}_]+`)

// Compute counts the words of text and orders them by count descending, then
// by word ascending. Empty or blank text yields an empty, non-nil slice.
func Compute(text string) []domain.NoteStatsEntry {
	entries := []domain.NoteStatsEntry{}
	if strings.TrimSpace(text) == "" {
		return entries
	}

	counts := make(map[string]int)
	for _, token := range separator.Split(strings.ToLower(text), -1) {
		if token == "" {
			continue
		}
		counts[token]++
	}

	for word, count := range counts {
		entries = append(entries, domain.NoteStatsEntry{Word: word, Count: count})
	}
	slices.SortFunc(entries, compareEntries)

	return entries
}

func compareEntries(a, b domain.NoteStatsEntry) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	return strings.Compare(a.Word, b.Word)
}

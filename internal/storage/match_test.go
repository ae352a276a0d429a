package storage

import (
	"testing"

	"memoria_chatbot/pkg"

	"github.com/stretchr/testify/assert"
)

func TestClosestMatch(t *testing.T) {
	entries := []pkg.Entry{
		{Key: "brasa"},
		{Key: "brasilia"},
		{Key: "abce"},
		{Key: "abcf"},
	}

	tests := []struct {
		name   string
		word   string
		cutoff float64
		want   string
		found  bool
	}{
		{name: "best ratio wins", word: "brasil", cutoff: 0.6, want: "brasilia", found: true},
		{name: "ties go to the greater key", word: "abcd", cutoff: 0.6, want: "abcf", found: true},
		{name: "below cutoff", word: "brasil", cutoff: 0.9, found: false},
		{name: "nothing similar", word: "zzz", cutoff: 0.6, found: false},
		{name: "invalid cutoff", word: "brasil", cutoff: 1.5, found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, _, ok := closestMatch(tt.word, entries, tt.cutoff)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, entries[i].Key)
			}
		})
	}
}

func TestSimilarityCountsRunes(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("ação", "ação"), 1e-9)
	// 3 of 4 runes match in each string
	assert.InDelta(t, 0.75, Similarity("ação", "acão"), 1e-9)
}

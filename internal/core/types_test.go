package core

import (
	"context"
	"testing"

	"memoria_chatbot/pkg"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RequestID(ctx))
	assert.Equal(t, "abc-123", RequestID(WithRequestID(ctx, "abc-123")))
}

func TestTurnHit(t *testing.T) {
	for kind, want := range map[pkg.MatchKind]bool{
		pkg.MatchNone:         false,
		pkg.MatchExact:        true,
		pkg.MatchSubstring:    true,
		pkg.MatchFuzzy:        true,
		pkg.MatchEncyclopedia: false,
	} {
		assert.Equal(t, want, (&Turn{Kind: kind}).Hit(), kind)
	}
}

package classifier

import (
	"context"
	"testing"

	"memoria_chatbot/internal/storage"
	"memoria_chatbot/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyword(t *testing.T) {
	c := NewKeyword(DefaultSlangTokens)

	tests := []struct {
		message string
		want    pkg.Category
	}{
		{"e aí, td bem?", pkg.CategorySlang},
		{"Tô de boa", pkg.CategorySlang},
		{"FLW!", pkg.CategorySlang},
		{"fala mano", pkg.CategorySlang},
		{"O que é fotossíntese?", pkg.CategoryAcademic},
		{"", pkg.CategoryAcademic},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(pkg.Normalize(tt.message)))
		})
	}
}

func TestKeywordNormalizesTokens(t *testing.T) {
	c := NewKeyword([]string{"E AÍ!", "?!", "Blz"})
	assert.Equal(t, []string{"e aí", "blz"}, c.Tokens())
	assert.Equal(t, pkg.CategoryAcademic, NewKeyword(nil).Classify("mano"))
}

func TestVocabulary(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewFileBackend(t.TempDir(), storage.DefaultFiles)
	slang, err := storage.Open(ctx, pkg.CategorySlang, backend)
	require.NoError(t, err)

	c := NewVocabulary(slang)
	assert.Equal(t, pkg.CategoryAcademic, c.Classify("e aí td bem"), "empty slang memory is always academic")

	require.NoError(t, slang.Learn(ctx, "de boa", "Suave!"))
	assert.Equal(t, pkg.CategorySlang, c.Classify("to de boa hoje"))
	assert.Equal(t, pkg.CategoryAcademic, c.Classify("o que é fotossíntese"))
}

func TestNew(t *testing.T) {
	c, err := New("", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, PolicyKeyword, c.Name())
	assert.Equal(t, pkg.CategorySlang, c.Classify("blz"))

	_, err = New(PolicyVocabulary, nil, nil)
	assert.Error(t, err)

	_, err = New("llm", nil, nil)
	assert.Error(t, err)
}

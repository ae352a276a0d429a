package classifier

import (
	"fmt"
	"strings"

	"memoria_chatbot/pkg"
)

// Policy names accepted in config.yaml
const (
	PolicyKeyword    = "keyword"
	PolicyVocabulary = "vocabulary"
)

// DefaultSlangTokens mark a message as informal speech
var DefaultSlangTokens = []string{
	"e aí", "td", "blz", "tranks", "tô", "parça", "mano",
	"véi", "consa", "mó", "demorô", "suave", "flw",
}

// Classifier decides the register of a normalized phrase key
type Classifier interface {
	Classify(key string) pkg.Category
	Name() string
}

// Keyword tags a key as slang when it contains one of a fixed set of tokens
type Keyword struct {
	tokens []string
}

// NewKeyword normalizes tokens the same way keys are normalized. Tokens
// that normalize to nothing are dropped.
func NewKeyword(tokens []string) *Keyword {
	k := &Keyword{tokens: make([]string, 0, len(tokens))}
	for _, t := range tokens {
		if n := pkg.Normalize(t); n != "" {
			k.tokens = append(k.tokens, n)
		}
	}
	return k
}

func (k *Keyword) Name() string { return PolicyKeyword }

func (k *Keyword) Classify(key string) pkg.Category {
	for _, t := range k.tokens {
		if strings.Contains(key, t) {
			return pkg.CategorySlang
		}
	}
	return pkg.CategoryAcademic
}

// Tokens returns the normalized tokens
func (k *Keyword) Tokens() []string {
	out := make([]string, len(k.tokens))
	copy(out, k.tokens)
	return out
}

// Vocabulary is anything that can tell whether one of its keys appears in a text
type Vocabulary interface {
	ContainsAnyKey(text string) bool
}

// VocabularyClassifier tags a key as slang when it contains a key already
// learned as slang. The result follows the learned history.
type VocabularyClassifier struct {
	slang Vocabulary
}

func NewVocabulary(slang Vocabulary) *VocabularyClassifier {
	return &VocabularyClassifier{slang: slang}
}

func (v *VocabularyClassifier) Name() string { return PolicyVocabulary }

func (v *VocabularyClassifier) Classify(key string) pkg.Category {
	if v.slang != nil && v.slang.ContainsAnyKey(key) {
		return pkg.CategorySlang
	}
	return pkg.CategoryAcademic
}

// New builds the classifier for policy. slang is only used by the
// vocabulary policy.
func New(policy string, tokens []string, slang Vocabulary) (Classifier, error) {
	switch policy {
	case "", PolicyKeyword:
		if tokens == nil {
			tokens = DefaultSlangTokens
		}
		return NewKeyword(tokens), nil
	case PolicyVocabulary:
		if slang == nil {
			return nil, fmt.Errorf("vocabulary policy needs the slang memory")
		}
		return NewVocabulary(slang), nil
	default:
		return nil, fmt.Errorf("unknown classifier policy %q", policy)
	}
}

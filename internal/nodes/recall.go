package nodes

import (
	"context"
	"fmt"

	"memoria_chatbot/internal/classifier"
	"memoria_chatbot/internal/core"
	"memoria_chatbot/internal/storage"
	"memoria_chatbot/pkg"
)

// RecallNode looks the key up in memory.
//
// With the keyword policy only the memory of the classified register is
// searched: exact, then substring, then fuzzy when enabled. With the
// vocabulary policy every answer memory is searched, exact first and then
// fuzzy, and the register becomes the memory that answered.
type RecallNode struct {
	policy string
	stores []*storage.Store // answer memories in search order
	byCat  map[pkg.Category]*storage.Store
	fuzzy  bool
	cutoff float64
}

func NewRecallNode(cfg core.Config, stores []*storage.Store) *RecallNode {
	byCat := make(map[pkg.Category]*storage.Store, len(stores))
	for _, s := range stores {
		byCat[s.Category()] = s
	}

	cutoff := cfg.FuzzyCutoff
	if cutoff <= 0 || cutoff > 1 {
		cutoff = storage.DefaultFuzzyCutoff
	}

	return &RecallNode{
		policy: cfg.Policy,
		stores: stores,
		byCat:  byCat,
		fuzzy:  cfg.Fuzzy,
		cutoff: cutoff,
	}
}

func (r *RecallNode) Execute(_ context.Context, turn *core.Turn) (*core.Turn, error) {
	var candidates []*storage.Store
	if r.policy == classifier.PolicyVocabulary {
		candidates = r.stores
	} else {
		s, ok := r.byCat[turn.Category]
		if !ok {
			return nil, fmt.Errorf("no memory for category %q", turn.Category)
		}
		candidates = []*storage.Store{s}
	}

	m, ok := r.match(turn.Key, candidates)
	if !ok {
		turn.Kind = pkg.MatchNone
		return turn, nil
	}

	turn.Category = m.Category
	turn.Answer = m.Answer
	turn.Kind = m.Kind
	turn.MatchedKey = m.Key
	turn.Score = m.Score
	turn.Persisted = true
	return turn, nil
}

func (r *RecallNode) match(key string, stores []*storage.Store) (pkg.Match, bool) {
	if m, ok := exact(key, stores); ok {
		return m, true
	}

	if r.policy != classifier.PolicyVocabulary {
		if m, ok := substring(key, stores); ok {
			return m, true
		}
	}

	if !r.fuzzy {
		return pkg.Match{}, false
	}
	return fuzzy(key, stores, r.cutoff)
}

func exact(key string, stores []*storage.Store) (pkg.Match, bool) {
	for _, s := range stores {
		if answer, ok := s.Exact(key); ok {
			return pkg.Match{Category: s.Category(), Key: key, Answer: answer, Kind: pkg.MatchExact, Score: 1}, true
		}
	}
	return pkg.Match{}, false
}

func substring(key string, stores []*storage.Store) (pkg.Match, bool) {
	for _, s := range stores {
		if e, ok := s.Substring(key); ok {
			return pkg.Match{Category: s.Category(), Key: e.Key, Answer: e.Answer, Kind: pkg.MatchSubstring}, true
		}
	}
	return pkg.Match{}, false
}

// fuzzy keeps the best score over all stores, ties to the greater key
func fuzzy(key string, stores []*storage.Store, cutoff float64) (pkg.Match, bool) {
	var best pkg.Match
	found := false
	for _, s := range stores {
		e, score, ok := s.Fuzzy(key, cutoff)
		if !ok {
			continue
		}
		if !found || score > best.Score || (score == best.Score && e.Key > best.Key) {
			best = pkg.Match{Category: s.Category(), Key: e.Key, Answer: e.Answer, Kind: pkg.MatchFuzzy, Score: score}
			found = true
		}
	}
	return best, found
}

func (r *RecallNode) GetName() string { return core.NodeRecall }

func (r *RecallNode) GetType() core.NodeType { return core.NodeTypeMemory }

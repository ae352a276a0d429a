package nodes

import (
	"context"

	"memoria_chatbot/internal/core"
	"memoria_chatbot/internal/services"
	"memoria_chatbot/internal/storage"
	"memoria_chatbot/pkg"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// EncyclopediaNode asks the knowledge source about keys no memory knows.
// Concurrent lookups of the same key in the same register share one call.
type EncyclopediaNode struct {
	source   services.KnowledgeSource
	byCat    map[pkg.Category]*storage.Store
	messages services.Messages
	group    singleflight.Group
	log      zerolog.Logger
}

type lookupResult struct {
	result services.Result
	cached string // answer learned by a lookup that finished first
	hit    bool
}

func NewEncyclopediaNode(source services.KnowledgeSource, stores []*storage.Store, messages services.Messages, log zerolog.Logger) *EncyclopediaNode {
	byCat := make(map[pkg.Category]*storage.Store, len(stores))
	for _, s := range stores {
		byCat[s.Category()] = s
	}

	return &EncyclopediaNode{
		source:   source,
		byCat:    byCat,
		messages: messages,
		log:      log.With().Str("node", core.NodeEncyclopedia).Logger(),
	}
}

func (e *EncyclopediaNode) Execute(ctx context.Context, turn *core.Turn) (*core.Turn, error) {
	flight := string(turn.Category) + "\x00" + turn.Key
	// shared by every waiter; bounded by the source's own timeout
	lookupCtx := context.WithoutCancel(ctx)

	v, _, shared := e.group.Do(flight, func() (any, error) {
		// a lookup that just finished may already have taught the answer
		if s, ok := e.byCat[turn.Category]; ok {
			if answer, ok := s.Exact(turn.Key); ok {
				return lookupResult{cached: answer, hit: true}, nil
			}
		}
		return lookupResult{result: e.source.Lookup(lookupCtx, turn.Key)}, nil
	})
	res := v.(lookupResult)

	if res.hit {
		turn.Answer = res.cached
		turn.Kind = pkg.MatchExact
		turn.MatchedKey = turn.Key
		turn.Score = 1
		turn.Persisted = true
		turn.Shared = true
		return turn, nil
	}

	turn.Outcome = res.result.Outcome
	turn.Answer = res.result.Text(e.messages)
	turn.Kind = pkg.MatchEncyclopedia
	turn.Shared = shared

	e.log.Debug().
		Str("request_id", core.RequestID(ctx)).
		Str("key", turn.Key).
		Str("outcome", string(turn.Outcome)).
		Bool("shared", shared).
		Msg("Encyclopedia lookup")

	return turn, nil
}

func (e *EncyclopediaNode) GetName() string { return core.NodeEncyclopedia }

func (e *EncyclopediaNode) GetType() core.NodeType { return core.NodeTypeKnowledge }

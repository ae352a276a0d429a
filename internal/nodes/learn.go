package nodes

import (
	"context"

	"memoria_chatbot/internal/core"
	"memoria_chatbot/internal/services"
	"memoria_chatbot/internal/storage"
	"memoria_chatbot/pkg"

	"github.com/rs/zerolog"
)

// LearnNode writes an encyclopedia answer back to the memory of the turn's
// register. Failed lookups go to the error memory instead, unless failures
// are cached like any other answer.
type LearnNode struct {
	byCat         map[pkg.Category]*storage.Store
	errors        *storage.Store
	cacheFailures bool
	log           zerolog.Logger
}

// NewLearnNode takes the answer memories and an optional error memory
func NewLearnNode(cfg core.Config, stores []*storage.Store, errStore *storage.Store, log zerolog.Logger) *LearnNode {
	byCat := make(map[pkg.Category]*storage.Store, len(stores))
	for _, s := range stores {
		byCat[s.Category()] = s
	}

	return &LearnNode{
		byCat:         byCat,
		errors:        errStore,
		cacheFailures: cfg.CacheFailures,
		log:           log.With().Str("node", core.NodeLearn).Logger(),
	}
}

func (l *LearnNode) Execute(ctx context.Context, turn *core.Turn) (*core.Turn, error) {
	// an answer shared from memory is already stored
	if turn.Hit() {
		return turn, nil
	}

	if turn.Outcome == services.OutcomeFailed && !l.cacheFailures {
		turn.Persisted = false
		if l.errors != nil {
			if err := l.errors.Learn(ctx, turn.Key, turn.Answer); err != nil {
				l.log.Error().Err(err).Str("key", turn.Key).Msg("Failed to record lookup failure")
			}
		}
		return turn, nil
	}

	store, ok := l.byCat[turn.Category]
	if !ok {
		l.log.Error().Str("category", string(turn.Category)).Msg("No memory for category")
		return turn, nil
	}

	if err := store.Learn(ctx, turn.Key, turn.Answer); err != nil {
		// the user still gets the answer, it is just not remembered
		l.log.Error().
			Err(err).
			Str("request_id", core.RequestID(ctx)).
			Str("category", string(turn.Category)).
			Str("key", turn.Key).
			Msg("Failed to learn answer")
		turn.Persisted = false
		return turn, nil
	}

	turn.Persisted = true
	l.log.Info().
		Str("category", string(turn.Category)).
		Str("key", turn.Key).
		Str("outcome", string(turn.Outcome)).
		Msg("Answer learned")
	return turn, nil
}

func (l *LearnNode) GetName() string { return core.NodeLearn }

func (l *LearnNode) GetType() core.NodeType { return core.NodeTypeMemory }

package nodes

import (
	"context"
	"fmt"

	"memoria_chatbot/internal/classifier"
	"memoria_chatbot/internal/core"
	"memoria_chatbot/internal/services"
	"memoria_chatbot/internal/storage"
	"memoria_chatbot/pkg"

	"github.com/rs/zerolog"
)

// Dependencies are what the resolver nodes work with. Stores must hold the
// answer categories; the error category is optional.
type Dependencies struct {
	Config core.Config
	Stores map[pkg.Category]*storage.Store
	Source services.KnowledgeSource
	Log    zerolog.Logger
}

// NewResolver wires every node into a compiled resolver
func NewResolver(ctx context.Context, deps Dependencies) (*core.Resolver, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("knowledge source is required")
	}

	answers := make([]*storage.Store, 0, len(pkg.AnswerCategories))
	for _, c := range pkg.AnswerCategories {
		s, ok := deps.Stores[c]
		if !ok {
			return nil, fmt.Errorf("memory %s is required", c)
		}
		answers = append(answers, s)
	}

	cls, err := classifier.New(deps.Config.Policy, deps.Config.SlangTokens, deps.Stores[pkg.CategorySlang])
	if err != nil {
		return nil, err
	}

	messages := deps.Config.Messages
	defaults := services.DefaultMessages()
	if messages.Ambiguous == "" {
		messages.Ambiguous = defaults.Ambiguous
	}
	if messages.NotFound == "" {
		messages.NotFound = defaults.NotFound
	}
	if messages.Failed == "" {
		messages.Failed = defaults.Failed
	}

	resolver := core.NewResolver(deps.Log)
	for _, node := range []core.Node{
		NewNormalizeNode(),
		NewClassifyNode(cls),
		NewRecallNode(deps.Config, answers),
		NewEncyclopediaNode(deps.Source, answers, messages, deps.Log),
		NewLearnNode(deps.Config, answers, deps.Stores[pkg.CategoryError], deps.Log),
	} {
		if err := resolver.AddNode(node); err != nil {
			return nil, err
		}
	}

	if err := resolver.Compile(ctx); err != nil {
		return nil, err
	}

	deps.Log.Info().
		Str("policy", cls.Name()).
		Bool("fuzzy", deps.Config.Fuzzy).
		Bool("cache_failures", deps.Config.CacheFailures).
		Msg("Resolver ready")
	return resolver, nil
}

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"memoria_chatbot/pkg"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
)

// ErrNotCompiled is returned by Resolve before Compile succeeded
var ErrNotCompiled = errors.New("resolver graph is not compiled")

// Resolver runs a message through the answer graph:
//
//	START -> normalize -(empty)-> END
//	         normalize -> classify -> recall -(hit)-> END
//	                                  recall -(miss)-> encyclopedia -> learn -> END
type Resolver struct {
	nodes    map[string]Node
	runnable compose.Runnable[*Turn, *Turn]
	log      zerolog.Logger
}

func NewResolver(log zerolog.Logger) *Resolver {
	return &Resolver{
		nodes: make(map[string]Node),
		log:   log.With().Str("component", "resolver").Logger(),
	}
}

// AddNode registers a node under its name, replacing any previous one
func (r *Resolver) AddNode(node Node) error {
	if node == nil {
		return fmt.Errorf("node cannot be nil")
	}

	name := node.GetName()
	if name == "" {
		return fmt.Errorf("node name cannot be empty")
	}

	r.nodes[name] = node
	r.log.Debug().Str("node", name).Str("type", string(node.GetType())).Msg("Added node")
	return nil
}

// GetNode retrieves a node by name
func (r *Resolver) GetNode(name string) (Node, error) {
	node, ok := r.nodes[name]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", name)
	}
	return node, nil
}

// Compile builds the eino graph from the registered nodes
func (r *Resolver) Compile(ctx context.Context) error {
	for _, name := range RequiredNodes {
		if _, ok := r.nodes[name]; !ok {
			return fmt.Errorf("node not found: %s", name)
		}
	}

	g := compose.NewGraph[*Turn, *Turn]()
	for _, name := range RequiredNodes {
		if err := g.AddLambdaNode(name, compose.InvokableLambda(r.step(r.nodes[name]))); err != nil {
			return fmt.Errorf("failed to add node %s: %w", name, err)
		}
	}

	emptyKey := compose.NewGraphBranch(func(_ context.Context, t *Turn) (string, error) {
		if t.Key == "" {
			return compose.END, nil
		}
		return NodeClassify, nil
	}, map[string]bool{compose.END: true, NodeClassify: true})

	memoryHit := compose.NewGraphBranch(func(_ context.Context, t *Turn) (string, error) {
		if t.Hit() {
			return compose.END, nil
		}
		return NodeEncyclopedia, nil
	}, map[string]bool{compose.END: true, NodeEncyclopedia: true})

	if err := g.AddEdge(compose.START, NodeNormalize); err != nil {
		return err
	}
	if err := g.AddBranch(NodeNormalize, emptyKey); err != nil {
		return err
	}
	if err := g.AddEdge(NodeClassify, NodeRecall); err != nil {
		return err
	}
	if err := g.AddBranch(NodeRecall, memoryHit); err != nil {
		return err
	}
	if err := g.AddEdge(NodeEncyclopedia, NodeLearn); err != nil {
		return err
	}
	if err := g.AddEdge(NodeLearn, compose.END); err != nil {
		return err
	}

	runnable, err := g.Compile(ctx, compose.WithGraphName("memoria_resolver"))
	if err != nil {
		return fmt.Errorf("failed to compile resolver graph: %w", err)
	}
	r.runnable = runnable
	return nil
}

func (r *Resolver) step(node Node) func(context.Context, *Turn) (*Turn, error) {
	return func(ctx context.Context, t *Turn) (*Turn, error) {
		t.Path = append(t.Path, node.GetName())
		out, err := node.Execute(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("error executing node %s: %w", node.GetName(), err)
		}
		return out, nil
	}
}

// Resolve answers one message. An empty message after normalization gives
// an empty answer and touches no memory.
func (r *Resolver) Resolve(ctx context.Context, message string) (*Turn, error) {
	if r.runnable == nil {
		return nil, ErrNotCompiled
	}

	start := time.Now()
	turn, err := r.runnable.Invoke(ctx, &Turn{Message: message, Kind: pkg.MatchNone})
	if err != nil {
		r.log.Error().Err(err).Str("request_id", RequestID(ctx)).Msg("Failed to resolve message")
		return nil, err
	}
	turn.Latency = time.Since(start)

	r.log.Info().
		Str("request_id", RequestID(ctx)).
		Str("key", turn.Key).
		Str("category", string(turn.Category)).
		Str("kind", string(turn.Kind)).
		Str("outcome", string(turn.Outcome)).
		Bool("persisted", turn.Persisted).
		Strs("path", turn.Path).
		Dur("latency", turn.Latency).
		Msg("Message resolved")

	return turn, nil
}

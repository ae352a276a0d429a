package core

import (
	"context"
	"time"

	"memoria_chatbot/internal/services"
	"memoria_chatbot/pkg"
)

// Node represents a single processing unit in the resolver graph
type Node interface {
	Execute(ctx context.Context, turn *Turn) (*Turn, error)
	GetName() string
	GetType() NodeType
}

// NodeType defines the different types of nodes in the graph
type NodeType string

const (
	NodeTypeText      NodeType = "text"
	NodeTypeRouting   NodeType = "routing"
	NodeTypeMemory    NodeType = "memory"
	NodeTypeKnowledge NodeType = "knowledge"
)

// Node names the resolver graph is wired with
const (
	NodeNormalize    = "normalize"
	NodeClassify     = "classify"
	NodeRecall       = "recall"
	NodeEncyclopedia = "encyclopedia"
	NodeLearn        = "learn"
)

// RequiredNodes lists the nodes Compile expects, in flow order
var RequiredNodes = []string{NodeNormalize, NodeClassify, NodeRecall, NodeEncyclopedia, NodeLearn}

// Turn is the state of one message travelling through the graph
type Turn struct {
	Message  string       `json:"mensagem"`
	Key      string       `json:"chave"`
	Category pkg.Category `json:"categoria,omitempty"`
	Answer   string       `json:"resposta"`

	// Kind is the stage that produced Answer
	Kind       pkg.MatchKind    `json:"fonte"`
	MatchedKey string           `json:"chave_memoria,omitempty"`
	Score      float64          `json:"score,omitempty"`
	Outcome    services.Outcome `json:"resultado,omitempty"` // set by the encyclopedia stage

	Persisted bool `json:"persistido"`
	Shared    bool `json:"compartilhado,omitempty"` // answer came from a concurrent lookup

	Path    []string      `json:"caminho"`
	Latency time.Duration `json:"-"`
}

// Hit reports whether the answer came from memory
func (t *Turn) Hit() bool {
	return t.Kind == pkg.MatchExact || t.Kind == pkg.MatchSubstring || t.Kind == pkg.MatchFuzzy
}

// Config holds the resolver behaviour read from config.yaml
type Config struct {
	Policy        string            `json:"policy"`
	Fuzzy         bool              `json:"fuzzy"`
	FuzzyCutoff   float64           `json:"fuzzy_cutoff"`
	CacheFailures bool              `json:"cache_failures"`
	SlangTokens   []string          `json:"slang_tokens"`
	Messages      services.Messages `json:"messages"`
}

type requestIDKey struct{}

// WithRequestID attaches a request id to ctx for logging
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored in ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

package nodes

import (
	"context"

	"memoria_chatbot/internal/core"
	"memoria_chatbot/pkg"
)

// NormalizeNode turns the raw message into its phrase key
type NormalizeNode struct{}

func NewNormalizeNode() *NormalizeNode {
	return &NormalizeNode{}
}

func (n *NormalizeNode) Execute(_ context.Context, turn *core.Turn) (*core.Turn, error) {
	turn.Key = pkg.Normalize(turn.Message)
	if turn.Key == "" {
		turn.Answer = ""
	}
	return turn, nil
}

func (n *NormalizeNode) GetName() string { return core.NodeNormalize }

func (n *NormalizeNode) GetType() core.NodeType { return core.NodeTypeText }

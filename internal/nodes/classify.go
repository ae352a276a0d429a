package nodes

import (
	"context"

	"memoria_chatbot/internal/classifier"
	"memoria_chatbot/internal/core"
)

// ClassifyNode picks the register, and so the memory, a key belongs to
type ClassifyNode struct {
	classifier classifier.Classifier
}

func NewClassifyNode(c classifier.Classifier) *ClassifyNode {
	return &ClassifyNode{classifier: c}
}

func (c *ClassifyNode) Execute(_ context.Context, turn *core.Turn) (*core.Turn, error) {
	turn.Category = c.classifier.Classify(turn.Key)
	return turn, nil
}

func (c *ClassifyNode) GetName() string { return core.NodeClassify }

func (c *ClassifyNode) GetType() core.NodeType { return core.NodeTypeRouting }

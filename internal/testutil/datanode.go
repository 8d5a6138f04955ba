package testutil

import (
	"errors"

	"github.com/vk/taskgrid/internal/datanode"
)

// ErrWriteRefused is returned by FailingNode.Write.
var ErrWriteRefused = errors.New("write refused")

// FailingNode is an in-memory data node whose writes always fail.
type FailingNode struct {
	*datanode.InMemory
}

// NewFailingNode returns a FailingNode for the given declaration.
func NewFailingNode(configID string, opts ...datanode.Option) *FailingNode {
	return &FailingNode{InMemory: datanode.NewInMemory(configID, opts...)}
}

func (n *FailingNode) Write(any, string) error {
	return ErrWriteRefused
}

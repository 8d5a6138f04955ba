// Package task defines the unit of work the orchestrator turns into jobs.
package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/taskgrid/internal/datanode"
)

// Function is the user code a task runs. Inputs are passed positionally in
// the order the task declares them. A task with several outputs must return a
// slice or array holding one value per output.
type Function func(ctx context.Context, inputs ...any) (any, error)

// Task represents a user function wired to its input and output data nodes.
// It is built once by the builder and referenced, never owned, by jobs.
type Task struct {
	ID           string
	ConfigID     string
	FunctionName string
	Function     Function
	Inputs       []datanode.DataNode
	Outputs      []datanode.DataNode
	// Skippable allows a dispatcher to skip the task when its outputs are
	// still valid and no input changed since they were written.
	Skippable bool
}

// New creates a task with a generated ID.
func New(configID, functionName string, fn Function, inputs, outputs []datanode.DataNode, skippable bool) *Task {
	return &Task{
		ID:           fmt.Sprintf("TASK_%s_%s", configID, uuid.NewString()),
		ConfigID:     configID,
		FunctionName: functionName,
		Function:     fn,
		Inputs:       inputs,
		Outputs:      outputs,
		Skippable:    skippable,
	}
}

// InputConfigIDs returns the config IDs of the task's inputs as a set.
func (t *Task) InputConfigIDs() map[string]struct{} {
	return configIDs(t.Inputs)
}

// OutputConfigIDs returns the config IDs of the task's outputs as a set.
func (t *Task) OutputConfigIDs() map[string]struct{} {
	return configIDs(t.Outputs)
}

func (t *Task) String() string {
	return t.ConfigID
}

func configIDs(nodes []datanode.DataNode) map[string]struct{} {
	out := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		out[n.ConfigID()] = struct{}{}
	}
	return out
}

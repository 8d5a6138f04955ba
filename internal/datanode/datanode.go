// Package datanode defines the data artifacts tasks read from and write to.
//
// The orchestrator never looks inside a data node's value. It only relies on
// the readiness flag, the edit lock, and the last edit date, which together
// decide whether a job is blocked and whether a skippable task can be skipped.
package datanode

import (
	"time"
)

// Edit records one write to a data node.
type Edit struct {
	JobID     string
	Timestamp time.Time
}

// DataNode is the storage-agnostic contract the orchestration core consumes.
type DataNode interface {
	// ID identifies this data node instance.
	ID() string
	// ConfigID identifies the declaration the node was built from. Two tasks
	// of one submission depend on each other when they share a config ID.
	ConfigID() string

	// IsReadyForReading is true once the node has been written and no job
	// currently holds its edit lock.
	IsReadyForReading() bool
	// IsValid is true when the node has been written and, if it has a
	// validity period, that period has not elapsed since the last edit.
	IsValid() bool
	LastEditDate() (time.Time, bool)
	ValidityPeriod() (time.Duration, bool)

	LockEdit()
	UnlockEdit()
	EditInProgress() bool

	// Read returns the current value and whether one was ever written.
	Read() (any, bool)
	// ReadOrErr is like Read but returns ErrNoData for a node never written.
	ReadOrErr() (any, error)
	// Write stores value, stamps the edit with jobID, and releases the edit lock.
	Write(value any, jobID string) error
	// Edits returns the write history, oldest first.
	Edits() []Edit
}

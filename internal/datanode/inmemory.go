package datanode

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/taskgrid/internal/clock"
	cerrors "github.com/vk/taskgrid/internal/errors"
)

// InMemory keeps the value in process memory. It is safe for concurrent use.
type InMemory struct {
	id       string
	configID string
	clock    clock.Clock

	mu             sync.RWMutex
	value          any
	lastEdit       time.Time
	written        bool
	editInProgress bool
	validity       time.Duration
	edits          []Edit
}

var _ DataNode = (*InMemory)(nil)

// Option configures an InMemory data node.
type Option func(*InMemory)

// WithClock sets the clock used to stamp edits and evaluate validity.
func WithClock(c clock.Clock) Option {
	return func(n *InMemory) { n.clock = c }
}

// WithValidityPeriod sets how long a written value stays valid. Zero means
// forever.
func WithValidityPeriod(d time.Duration) Option {
	return func(n *InMemory) { n.validity = d }
}

// WithDefault writes value at construction time, so the node is ready for
// reading before any task produced it.
func WithDefault(value any) Option {
	return func(n *InMemory) {
		n.value = value
		n.written = true
		n.lastEdit = n.clock.Now()
		n.edits = append(n.edits, Edit{Timestamp: n.lastEdit})
	}
}

// WithID overrides the generated identifier.
func WithID(id string) Option {
	return func(n *InMemory) { n.id = id }
}

// NewInMemory builds a data node for the given declaration. Options are
// applied in order; pass WithClock before WithDefault to stamp the default
// with a specific clock.
func NewInMemory(configID string, opts ...Option) *InMemory {
	n := &InMemory{
		id:       fmt.Sprintf("DATANODE_%s_%s", configID, uuid.NewString()),
		configID: configID,
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *InMemory) ID() string       { return n.id }
func (n *InMemory) ConfigID() string { return n.configID }

func (n *InMemory) IsReadyForReading() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.written && !n.editInProgress
}

func (n *InMemory) IsValid() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if !n.written {
		return false
	}
	if n.validity <= 0 {
		return true
	}
	return n.clock.Now().Before(n.lastEdit.Add(n.validity))
}

func (n *InMemory) LastEditDate() (time.Time, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.lastEdit, n.written
}

func (n *InMemory) ValidityPeriod() (time.Duration, bool) {
	return n.validity, n.validity > 0
}

func (n *InMemory) LockEdit() {
	n.mu.Lock()
	n.editInProgress = true
	n.mu.Unlock()
}

func (n *InMemory) UnlockEdit() {
	n.mu.Lock()
	n.editInProgress = false
	n.mu.Unlock()
}

func (n *InMemory) EditInProgress() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.editInProgress
}

func (n *InMemory) Read() (any, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.value, n.written
}

func (n *InMemory) ReadOrErr() (any, error) {
	v, ok := n.Read()
	if !ok {
		return nil, cerrors.ErrNoData.GenWithStackByArgs(n.id)
	}
	return v, nil
}

func (n *InMemory) Write(value any, jobID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.value = value
	n.written = true
	n.lastEdit = n.clock.Now()
	n.editInProgress = false
	n.edits = append(n.edits, Edit{JobID: jobID, Timestamp: n.lastEdit})
	return nil
}

func (n *InMemory) Edits() []Edit {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]Edit, len(n.edits))
	copy(out, n.edits)
	return out
}

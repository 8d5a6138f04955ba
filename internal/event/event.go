// Package event publishes entity changes to in-process subscribers.
package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/taskgrid/internal/clock"
	"github.com/vk/taskgrid/internal/ctxlog"
)

// EntityType names the kind of entity an event is about.
type EntityType string

const (
	EntityJob        EntityType = "JOB"
	EntitySubmission EntityType = "SUBMISSION"
)

// Operation names what happened to the entity.
type Operation string

const (
	OpCreation Operation = "CREATION"
	OpUpdate   Operation = "UPDATE"
	OpDeletion Operation = "DELETION"
)

// Event describes one change to one entity.
type Event struct {
	EntityType     EntityType
	EntityID       string
	Operation      Operation
	AttributeName  string
	AttributeValue any
	CreationDate   time.Time
}

func (e Event) String() string {
	if e.AttributeName == "" {
		return fmt.Sprintf("%s %s %s", e.Operation, e.EntityType, e.EntityID)
	}
	return fmt.Sprintf("%s %s %s %s=%v", e.Operation, e.EntityType, e.EntityID, e.AttributeName, e.AttributeValue)
}

// Filter selects events. Zero-valued fields match anything.
type Filter struct {
	EntityType    EntityType
	EntityID      string
	Operation     Operation
	AttributeName string
}

// Match reports whether e satisfies every non-empty field of f.
func (f Filter) Match(e Event) bool {
	return (f.EntityType == "" || f.EntityType == e.EntityType) &&
		(f.EntityID == "" || f.EntityID == e.EntityID) &&
		(f.Operation == "" || f.Operation == e.Operation) &&
		(f.AttributeName == "" || f.AttributeName == e.AttributeName)
}

// Publisher is the side of the notifier entities depend on.
type Publisher interface {
	Publish(e Event)
}

// DefaultBuffer is the channel capacity of each registration.
const DefaultBuffer = 1024

type registration struct {
	filter Filter
	ch     chan Event
}

// Notifier fans events out to registered subscribers. Publishing never
// blocks: a subscriber whose buffer is full loses the event and a warning is
// logged.
type Notifier struct {
	ctx   context.Context
	clock clock.Clock

	mu     sync.RWMutex
	regs   map[string]*registration
	closed bool
}

var _ Publisher = (*Notifier)(nil)

// NewNotifier returns a notifier logging through the logger carried by ctx.
func NewNotifier(ctx context.Context, clk clock.Clock) *Notifier {
	return &Notifier{
		ctx:   ctx,
		clock: clk,
		regs:  make(map[string]*registration),
	}
}

// Register subscribes to events matching filter. The returned ID is used to
// unregister, which closes the channel.
func (n *Notifier) Register(filter Filter) (string, <-chan Event) {
	reg := &registration{filter: filter, ch: make(chan Event, DefaultBuffer)}
	id := uuid.NewString()

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(reg.ch)
		return id, reg.ch
	}
	n.regs[id] = reg
	return id, reg.ch
}

// Unregister removes a subscription and closes its channel. Unknown IDs are
// ignored.
func (n *Notifier) Unregister(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if reg, ok := n.regs[id]; ok {
		delete(n.regs, id)
		close(reg.ch)
	}
}

// Publish stamps e with the current time if needed and delivers it to every
// matching subscriber.
func (n *Notifier) Publish(e Event) {
	if e.CreationDate.IsZero() {
		e.CreationDate = n.clock.Now()
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	for id, reg := range n.regs {
		if !reg.filter.Match(e) {
			continue
		}
		select {
		case reg.ch <- e:
		default:
			ctxlog.FromContext(n.ctx).Warn("Dropped event for slow subscriber.", "registration", id, "event", e.String())
		}
	}
}

// Close unregisters every subscriber.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, reg := range n.regs {
		delete(n.regs, id)
		close(reg.ch)
	}
	n.closed = true
}

// Discard is a Publisher that drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}

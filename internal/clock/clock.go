// Package clock wraps github.com/benbjohnson/clock so that every timestamp the
// orchestrator records (job creation, data node edits, validity windows) can be
// driven by a mock in tests.
package clock

import (
	"time"

	bclock "github.com/benbjohnson/clock"
)

type (
	// Clock is the time source used across the module.
	Clock = bclock.Clock
	// Mock is a manually advanced Clock.
	Mock = bclock.Mock
)

// New returns a Clock backed by the system time.
func New() Clock {
	return bclock.New()
}

// NewMock returns a mock clock set to the given instant.
func NewMock(at time.Time) *Mock {
	m := bclock.NewMock()
	m.Set(at)
	return m
}

package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/taskgrid/internal/clock"
	"github.com/vk/taskgrid/internal/ctxlog"
)

func newNotifier(t *testing.T) (*Notifier, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	n := NewNotifier(ctxlog.Discard(context.Background()), clk)
	t.Cleanup(n.Close)
	return n, clk
}

func TestFilter_Match(t *testing.T) {
	e := Event{EntityType: EntityJob, EntityID: "JOB_1", Operation: OpUpdate, AttributeName: "status"}

	testCases := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"entity type", Filter{EntityType: EntityJob}, true},
		{"wrong entity type", Filter{EntityType: EntitySubmission}, false},
		{"id and attribute", Filter{EntityID: "JOB_1", AttributeName: "status"}, true},
		{"wrong operation", Filter{Operation: OpCreation}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Match(e))
		})
	}
}

func TestNotifier_PublishToMatchingSubscribers(t *testing.T) {
	n, clk := newNotifier(t)

	_, jobs := n.Register(Filter{EntityType: EntityJob})
	_, subs := n.Register(Filter{EntityType: EntitySubmission})

	n.Publish(Event{EntityType: EntityJob, EntityID: "JOB_1", Operation: OpCreation})

	select {
	case e := <-jobs:
		assert.Equal(t, "JOB_1", e.EntityID)
		assert.Equal(t, clk.Now(), e.CreationDate)
	default:
		t.Fatal("job subscriber did not receive the event")
	}
	assert.Empty(t, subs)
}

func TestNotifier_Unregister(t *testing.T) {
	n, _ := newNotifier(t)

	id, ch := n.Register(Filter{})
	n.Unregister(id)
	n.Unregister("unknown")

	_, open := <-ch
	assert.False(t, open)

	n.Publish(Event{EntityType: EntityJob})
}

func TestNotifier_FullBufferDropsEvents(t *testing.T) {
	n, _ := newNotifier(t)
	_, ch := n.Register(Filter{})

	for i := 0; i < DefaultBuffer+10; i++ {
		n.Publish(Event{EntityType: EntityJob, EntityID: "JOB"})
	}
	require.Len(t, ch, DefaultBuffer)
}

func TestNotifier_RegisterAfterClose(t *testing.T) {
	n, _ := newNotifier(t)
	n.Close()

	_, ch := n.Register(Filter{})
	_, open := <-ch
	assert.False(t, open)
}

package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/internal/config"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/testutil"
)

func noop(context.Context, ...any) (any, error) { return nil, nil }

type fakeModule struct{ names []string }

func (m fakeModule) Register(r *Registry) {
	for _, n := range m.names {
		r.MustRegister(n, noop)
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New(fakeModule{names: []string{"b", "a"}})
	assert.Equal(t, []string{"a", "b"}, r.Names())

	fn, err := r.Lookup("a")
	require.NoError(t, err)
	require.NotNil(t, fn)

	_, err = r.Lookup("missing")
	require.Error(t, err)
	assert.True(t, cerrors.ErrUnknownFunction.Equal(err))

	err = r.Register("a", noop)
	require.Error(t, err)
	assert.True(t, cerrors.ErrDuplicateFunction.Equal(err))
	assert.Panics(t, func() { r.MustRegister("b", noop) })
}

func TestRegistry_Validate(t *testing.T) {
	ctx, _ := testutil.Context(t)
	r := New(fakeModule{names: []string{"print"}})

	ok := &config.Model{Tasks: []*config.Task{{ID: "t", Function: "print"}}}
	require.NoError(t, r.Validate(ctx, ok))

	bad := &config.Model{Tasks: []*config.Task{
		{ID: "t1", Function: "print"},
		{ID: "t2", Function: "nope"},
	}}
	err := r.Validate(ctx, bad)
	require.Error(t, err)
	assert.True(t, cerrors.ErrInvalidConfig.Equal(err))
	assert.Contains(t, err.Error(), "task 't2': function 'nope' is not registered")
	assert.NotContains(t, err.Error(), "t1")
}

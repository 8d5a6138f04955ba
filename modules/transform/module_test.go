package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/internal/registry"
)

func TestFunctions(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		name    string
		fn      func(context.Context, ...any) (any, error)
		inputs  []any
		want    any
		wantErr bool
	}{
		{name: "upper", fn: Upper, inputs: []any{"abc"}, want: "ABC"},
		{name: "upper wrong type", fn: Upper, inputs: []any{1}, wantErr: true},
		{name: "upper arity", fn: Upper, inputs: []any{"a", "b"}, wantErr: true},
		{name: "concat", fn: Concat, inputs: []any{"a", 1, true}, want: "a1true"},
		{name: "sum ints", fn: Sum, inputs: []any{1, 2, int64(3)}, want: 6},
		{name: "sum floats", fn: Sum, inputs: []any{1, 0.5}, want: 1.5},
		{name: "sum nan", fn: Sum, inputs: []any{"x"}, wantErr: true},
		{name: "fanout", fn: Fanout, inputs: []any{"a", 2}, want: []any{"a", 2}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fn(ctx, tc.inputs...)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRegister(t *testing.T) {
	r := registry.New(&Module{})
	assert.Equal(t, []string{"transform.concat", "transform.fanout", "transform.sum", "transform.upper"}, r.Names())
}

package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DefaultValue converts the declared default into a plain Go value. ok is
// false when the data node has no default.
func (d *DataNode) DefaultValue() (v any, ok bool, err error) {
	if d.Default == nil {
		return nil, false, nil
	}
	v, err = FromCty(*d.Default)
	if err != nil {
		return nil, false, fmt.Errorf("data node %s: %w", d.ID, err)
	}
	return v, true, nil
}

// FromCty converts a known cty value into string, int, float64, bool,
// []any or map[string]any. Null converts to nil.
func FromCty(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known until run time")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		var s string
		err := gocty.FromCtyValue(val, &s)
		return s, err
	case ty == cty.Bool:
		var b bool
		err := gocty.FromCtyValue(val, &b)
		return b, err
	case ty == cty.Number:
		var i int
		if err := gocty.FromCtyValue(val, &i); err == nil {
			return i, nil
		}
		var f float64
		err := gocty.FromCtyValue(val, &f)
		return f, err
	case ty.IsListType(), ty.IsTupleType(), ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			v, err := FromCty(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case ty.IsMapType(), ty.IsObjectType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			v, err := FromCty(ev)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}

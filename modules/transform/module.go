// Package transform provides small data-shaping task functions:
//
//	transform.upper   upper-cases its single string input
//	transform.concat  joins all inputs as strings
//	transform.sum     adds numeric inputs
//	transform.fanout  returns its inputs as a list, one per declared output
package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/taskgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the functions with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.MustRegister("transform.upper", Upper)
	r.MustRegister("transform.concat", Concat)
	r.MustRegister("transform.sum", Sum)
	r.MustRegister("transform.fanout", Fanout)
}

func Upper(_ context.Context, inputs ...any) (any, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("transform.upper: want 1 input, got %d", len(inputs))
	}
	s, ok := inputs[0].(string)
	if !ok {
		return nil, fmt.Errorf("transform.upper: input must be a string, got %T", inputs[0])
	}
	return strings.ToUpper(s), nil
}

func Concat(_ context.Context, inputs ...any) (any, error) {
	var b strings.Builder
	for _, in := range inputs {
		fmt.Fprint(&b, in)
	}
	return b.String(), nil
}

// Sum adds int and float64 inputs. The result is an int unless some input was
// a float64.
func Sum(_ context.Context, inputs ...any) (any, error) {
	var (
		total   float64
		isFloat bool
	)
	for i, in := range inputs {
		switch v := in.(type) {
		case int:
			total += float64(v)
		case int64:
			total += float64(v)
		case float64:
			total += v
			isFloat = true
		default:
			return nil, fmt.Errorf("transform.sum: input %d is %T, not a number", i, in)
		}
	}
	if isFloat {
		return total, nil
	}
	return int(total), nil
}

func Fanout(_ context.Context, inputs ...any) (any, error) {
	out := make([]any, len(inputs))
	copy(out, inputs)
	return out, nil
}

package dispatcher

import (
	"context"
	"reflect"

	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/task"
)

// Execute runs t's function for the job jobID and writes the results to
// t's outputs. It never panics and never returns a single error: every
// failure is reported in the returned slice, which is empty on success.
//
// Inputs are read first and the first unreadable one aborts the run. With
// one output the function's result is written as is. With several, the
// result must be a slice or array of matching length, otherwise exactly one
// error is returned and nothing is written. Write failures are collected per
// output.
func Execute(ctx context.Context, jobID string, t *task.Task) (errs []error) {
	defer func() {
		if r := recover(); r != nil {
			errs = []error{cerrors.ErrTaskFunctionPanic.GenWithStackByArgs(t.ConfigID, r)}
		}
	}()

	if t.Function == nil {
		return []error{cerrors.ErrUnknownFunction.GenWithStackByArgs(t.FunctionName)}
	}

	inputs := make([]any, 0, len(t.Inputs))
	for _, in := range t.Inputs {
		v, err := in.ReadOrErr()
		if err != nil {
			return []error{err}
		}
		inputs = append(inputs, v)
	}

	result, err := t.Function(ctx, inputs...)
	if err != nil {
		return []error{cerrors.ErrTaskFunction.GenWithStackByArgs(t.ConfigID, err)}
	}

	values, err := mapOutputs(t, result)
	if err != nil {
		return []error{err}
	}
	for i, out := range t.Outputs {
		if err := out.Write(values[i], jobID); err != nil {
			errs = append(errs, cerrors.ErrDataNodeWriting.GenWithStackByArgs(out.ID(), err))
		}
	}
	return errs
}

func mapOutputs(t *task.Task, result any) ([]any, error) {
	switch len(t.Outputs) {
	case 0:
		return nil, nil
	case 1:
		return []any{result}, nil
	}

	rv := reflect.ValueOf(result)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, cerrors.ErrOutputMismatch.GenWithStackByArgs(t.ConfigID, 1, len(t.Outputs))
	}
	if rv.Len() != len(t.Outputs) {
		return nil, cerrors.ErrOutputMismatch.GenWithStackByArgs(t.ConfigID, rv.Len(), len(t.Outputs))
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, nil
}

package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	cerrors "github.com/vk/taskgrid/internal/errors"
)

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Execute runs the command tree on args. Reports go to out, logs and usage
// to errOut. Any failure is returned as an *ExitError.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	root := NewRootCommand(out, errOut)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return toExitError(err)
	}
	return nil
}

// NewRootCommand builds the taskgrid command tree.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	g := &globalOptions{errOut: errOut}

	root := &cobra.Command{
		Use:   "taskgrid",
		Short: "taskgrid runs DAGs of tasks declared in HCL",
		Long: `taskgrid - a task orchestrator for data pipelines.

Tasks read and write data nodes; a scenario groups tasks and runs each one as
soon as everything it reads has been written. Projects are declared in .hcl
files, passed as files or directories.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	})
	g.addFlags(root)

	root.AddCommand(
		newCmdRun(g),
		newCmdValidate(g),
		newCmdGraph(g),
		newCmdJobs(),
	)
	return root
}

// toExitError maps configuration mistakes to ExitUsage and everything else
// to ExitFailure.
func toExitError(err error) *ExitError {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	for _, usage := range []interface{ Equal(error) bool }{
		cerrors.ErrInvalidConfig,
		cerrors.ErrLoadConfig,
		cerrors.ErrNonExistingScenario,
		cerrors.ErrNonExistingSequence,
		cerrors.ErrNonExistingTask,
		cerrors.ErrNonExistingDataNode,
		cerrors.ErrInvalidSubmittable,
		cerrors.ErrUnknownFunction,
	} {
		if usage.Equal(err) {
			return &ExitError{Code: ExitUsage, Message: err.Error()}
		}
	}
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}

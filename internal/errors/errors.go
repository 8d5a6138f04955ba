// Package errors declares the normalized errors raised by taskgrid. Every error
// carries an RFC code so callers can match it with Equal regardless of the
// message arguments, and a stack trace captured where it was generated.
package errors

import (
	"github.com/pingcap/errors"
)

// configuration and construction errors
var (
	ErrInvalidSubmittable = errors.Normalize(
		"%s %s is invalid: %s",
		errors.RFCCodeText("TG:ErrInvalidSubmittable"),
	)
	ErrNonExistingTask = errors.Normalize(
		"task %s does not exist",
		errors.RFCCodeText("TG:ErrNonExistingTask"),
	)
	ErrNonExistingDataNode = errors.Normalize(
		"data node %s does not exist",
		errors.RFCCodeText("TG:ErrNonExistingDataNode"),
	)
	ErrNonExistingScenario = errors.Normalize(
		"scenario %s does not exist",
		errors.RFCCodeText("TG:ErrNonExistingScenario"),
	)
	ErrNonExistingSequence = errors.Normalize(
		"sequence %s does not exist in scenario %s",
		errors.RFCCodeText("TG:ErrNonExistingSequence"),
	)
	ErrInvalidConfig = errors.Normalize(
		"invalid configuration: %s",
		errors.RFCCodeText("TG:ErrInvalidConfig"),
	)
	ErrLoadConfig = errors.Normalize(
		"failed to load configuration from %s: %s",
		errors.RFCCodeText("TG:ErrLoadConfig"),
	)
	ErrUnknownFunction = errors.Normalize(
		"task function %q is not registered",
		errors.RFCCodeText("TG:ErrUnknownFunction"),
	)
	ErrDuplicateFunction = errors.Normalize(
		"task function %q is already registered",
		errors.RFCCodeText("TG:ErrDuplicateFunction"),
	)
	ErrOrchestratorClosed = errors.Normalize(
		"orchestrator is closed",
		errors.RFCCodeText("TG:ErrOrchestratorClosed"),
	)
	ErrRunFailed = errors.Normalize(
		"submission %s of %s finished with status %s",
		errors.RFCCodeText("TG:ErrRunFailed"),
	)
	ErrRunTimeout = errors.Normalize(
		"submission %s of %s did not finish within %s",
		errors.RFCCodeText("TG:ErrRunTimeout"),
	)
)

// entity lookup and lifecycle errors
var (
	ErrJobNotFound = errors.Normalize(
		"job %s not found",
		errors.RFCCodeText("TG:ErrJobNotFound"),
	)
	ErrSubmissionNotFound = errors.Normalize(
		"submission %s not found",
		errors.RFCCodeText("TG:ErrSubmissionNotFound"),
	)
	ErrJobNotFinished = errors.Normalize(
		"job %s is not finished, current status %s",
		errors.RFCCodeText("TG:ErrJobNotFinished"),
	)
	ErrSubmissionNotFinished = errors.Normalize(
		"submission %s is not finished, current status %s",
		errors.RFCCodeText("TG:ErrSubmissionNotFinished"),
	)
	ErrInvalidJobTransition = errors.Normalize(
		"job %s cannot move from %s to %s",
		errors.RFCCodeText("TG:ErrInvalidJobTransition"),
	)
)

// execution errors, reported through job stack traces
var (
	ErrNoData = errors.Normalize(
		"data node %s has never been written",
		errors.RFCCodeText("TG:ErrNoData"),
	)
	ErrDataNodeWriting = errors.Normalize(
		"failed to write data node %s: %v",
		errors.RFCCodeText("TG:ErrDataNodeWriting"),
	)
	ErrOutputMismatch = errors.Normalize(
		"task %s returned %d values for %d declared outputs",
		errors.RFCCodeText("TG:ErrOutputMismatch"),
	)
	ErrTaskFunction = errors.Normalize(
		"task %s function failed: %v",
		errors.RFCCodeText("TG:ErrTaskFunction"),
	)
	ErrTaskFunctionPanic = errors.Normalize(
		"task %s function panicked: %v",
		errors.RFCCodeText("TG:ErrTaskFunctionPanic"),
	)
	ErrSnapshot = errors.Normalize(
		"failed to %s configuration snapshot: %v",
		errors.RFCCodeText("TG:ErrSnapshot"),
	)
)

// storage errors
var (
	ErrStore = errors.Normalize(
		"record store %s failed",
		errors.RFCCodeText("TG:ErrStore"),
	)
)

// WrapError generates a new error based on the given RFC error, keeping err
// as its cause. It returns nil when err is nil. The result matches the cause,
// not rfcError, under Equal; use it where the caller only logs or reports.
func WrapError(rfcError *errors.Error, err error, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return rfcError.Wrap(err).GenWithStackByArgs(args...)
}

// Stack formats err together with the stack trace recorded when it was
// generated.
func Stack(err error) string {
	return errors.ErrorStack(err)
}

// Trace annotates err with the caller's stack if it does not carry one yet.
func Trace(err error) error {
	return errors.Trace(err)
}

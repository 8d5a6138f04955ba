package config

import (
	"github.com/go-playground/validator/v10"

	cerrors "github.com/vk/taskgrid/internal/errors"
)

// Mode selects the dispatcher the orchestrator runs with.
type Mode string

const (
	// ModeDevelopment runs every job inline, in submission order.
	ModeDevelopment Mode = "development"
	// ModeStandalone runs jobs on a bounded pool of workers.
	ModeStandalone Mode = "standalone"
)

// DefaultMaxWorkers is the standalone pool size when none is configured.
const DefaultMaxWorkers = 2

// Execution holds the settings the orchestration core consumes.
type Execution struct {
	Mode       Mode `validate:"required,oneof=development standalone" msgpack:"mode"`
	MaxWorkers int  `validate:"gte=1,lte=1024" msgpack:"max_workers"`
}

// DefaultExecution returns development mode with the default pool size.
func DefaultExecution() Execution {
	return Execution{Mode: ModeDevelopment, MaxWorkers: DefaultMaxWorkers}
}

var validate = validator.New()

// Validate checks the execution settings.
func (e Execution) Validate() error {
	return ValidateStruct(e)
}

// ValidateStruct runs struct-tag validation on v and converts failures into
// ErrInvalidConfig.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs(err.Error())
	}
	return nil
}

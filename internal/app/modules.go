package app

import (
	"io"

	"github.com/vk/taskgrid/internal/registry"
	"github.com/vk/taskgrid/modules/env_vars"
	"github.com/vk/taskgrid/modules/http_request"
	"github.com/vk/taskgrid/modules/print"
	"github.com/vk/taskgrid/modules/transform"
)

// coreModules is the definitive list of all modules that are compiled into
// the taskgrid binary. The print module writes to out.
func coreModules(out io.Writer) []registry.Module {
	return []registry.Module{
		&env_vars.Module{},
		&http_request.Module{},
		&print.Module{Out: out},
		&transform.Module{},
	}
}

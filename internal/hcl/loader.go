package hcl

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths and merges their blocks into
// one model. Paths may be files or directories; missing paths are skipped
// with a warning, but finding no file at all is an error.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, missing, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, cerrors.ErrLoadConfig.GenWithStackByArgs(strings.Join(paths, ", "), err.Error())
	}
	for _, m := range missing {
		logger.Warn("Configuration path does not exist.", "path", m)
	}
	if len(files) == 0 {
		return nil, cerrors.ErrLoadConfig.GenWithStackByArgs(strings.Join(paths, ", "), "no .hcl files found")
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	tr := newTranslator(ctx)
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, cerrors.ErrLoadConfig.GenWithStackByArgs(file, diags.Error())
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, cerrors.ErrLoadConfig.GenWithStackByArgs(file, diags.Error())
		}
		if diags := tr.add(&root); diags.HasErrors() {
			return nil, cerrors.ErrLoadConfig.GenWithStackByArgs(file, diags.Error())
		}
	}

	model := tr.model
	logger.Debug("HCL loading complete.",
		"files", len(files),
		"data_nodes", len(model.DataNodes),
		"tasks", len(model.Tasks),
		"scenarios", len(model.Scenarios),
	)
	return model, nil
}

// Package config defines the format-agnostic configuration model of a
// taskgrid project, the execution settings shared by the orchestrator and its
// dispatchers, and the Loader interface implemented by format-specific
// packages such as internal/hcl.
//
// The builder package turns a Model into live data nodes, tasks and
// scenarios. Nothing in the orchestration core reads a Model directly.
package config

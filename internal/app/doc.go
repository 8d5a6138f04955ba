// Package app wires the taskgrid components together: it loads and validates
// a project, builds its entities, and runs one submission through an
// orchestrator with its record store, metrics and status server. It is
// decoupled from any specific entrypoint like a CLI.
package app

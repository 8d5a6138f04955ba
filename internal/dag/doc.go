// Package dag is a small, concurrency-safe directed graph used to reason about
// the data dependencies between tasks.
//
// # Why This Package Exists
//
// Submittables are described as sets of tasks reading and writing data nodes.
// Turning that description into an execution order, validating it, and laying
// it out for display are all plain graph questions. Keeping them here, behind
// string IDs, lets the submittable package stay focused on tasks and data
// nodes while this package answers:
//
//   - which nodes have no predecessors (Sources) or no successors (Sinks),
//   - whether the graph is acyclic (DetectCycles) and weakly connected,
//   - how nodes group into topological generations (Generations),
//   - where each node sits on a display grid (Layout).
//
// Every query walks nodes in insertion order, so results are deterministic for
// a given construction sequence.
package dag

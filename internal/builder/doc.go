/*
Package builder turns a loaded configuration model into live entities.

Construction runs in three passes, each of which only looks back at what the
previous passes produced:

 1. Data nodes: one in-memory node per `data_node` block. A declared default
    is written immediately, so tasks reading it start out unblocked.

 2. Tasks: each `task` block is bound to its function from the registry and
    to the data nodes named in its inputs and outputs.

 3. Scenarios: each `scenario` block gathers its tasks, is checked for
    cycles, and then registers its nested sequences.

Any dangling reference fails the build with a coded error naming it.
*/
package builder

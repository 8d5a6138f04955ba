package submittable

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/taskgrid/internal/datanode"
	cerrors "github.com/vk/taskgrid/internal/errors"
	"github.com/vk/taskgrid/internal/task"
)

func noop(_ context.Context, _ ...any) (any, error) { return nil, nil }

func newTask(configID string, inputs, outputs []datanode.DataNode) *task.Task {
	return task.New(configID, "noop", noop, inputs, outputs, false)
}

func dns(nodes ...datanode.DataNode) []datanode.DataNode { return nodes }

func configIDs(tasks []*task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ConfigID)
	}
	return out
}

func dataConfigIDs(nodes []datanode.DataNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ConfigID())
	}
	return out
}

// chain returns t1 -> dn_1 -> t2 -> dn_2 -> t3 -> dn_3.
func chain() (tasks []*task.Task, nodes []*datanode.InMemory) {
	dn1 := datanode.NewInMemory("dn_1")
	dn2 := datanode.NewInMemory("dn_2")
	dn3 := datanode.NewInMemory("dn_3")
	return []*task.Task{
		newTask("t1", nil, dns(dn1)),
		newTask("t2", dns(dn1), dns(dn2)),
		newTask("t3", dns(dn2), dns(dn3)),
	}, []*datanode.InMemory{dn1, dn2, dn3}
}

func TestBuild_Chain(t *testing.T) {
	tasks, _ := chain()
	sc, err := NewScenario("pipeline", tasks)
	require.NoError(t, err)

	d := Build(sc)
	assert.Empty(t, d.Inputs())
	assert.Equal(t, []string{"dn_3"}, dataConfigIDs(d.Outputs()))
	assert.Equal(t, []string{"dn_1", "dn_2"}, dataConfigIDs(d.Intermediate()))

	sorted, err := d.SortedTasks()
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	for i, name := range []string{"t1", "t2", "t3"} {
		assert.Equal(t, []string{name}, configIDs(sorted[i]))
	}
}

func TestBuild_InputsAndIsolatedTasks(t *testing.T) {
	raw := datanode.NewInMemory("raw")
	x := datanode.NewInMemory("x")
	y := datanode.NewInMemory("y")
	z := datanode.NewInMemory("z")
	out := datanode.NewInMemory("out")
	tasks := []*task.Task{
		newTask("a", dns(raw), dns(x)),
		newTask("b", dns(x), dns(y)),
		newTask("c", dns(x), dns(z)),
		newTask("d", dns(y, z), dns(out)),
		newTask("ping", nil, nil),
	}

	d := Build(taskList(tasks))
	assert.Equal(t, []string{"raw"}, dataConfigIDs(d.Inputs()))
	assert.Equal(t, []string{"out"}, dataConfigIDs(d.Outputs()))
	assert.Equal(t, []string{"x", "y", "z"}, dataConfigIDs(d.Intermediate()))

	sorted, err := d.SortedTasks()
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, []string{"a", "ping"}, configIDs(sorted[0]))
	assert.Equal(t, []string{"b", "c"}, configIDs(sorted[1]))
	assert.Equal(t, []string{"d"}, configIDs(sorted[2]))

	// SortedTasks works on a copy; the input node is still in the graph.
	assert.True(t, d.Graph().Has(dataNodePrefix+raw.ID()))
}

func TestSortedTasks_GenerationsRespectDependencies(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 20; round++ {
		var produced []datanode.DataNode
		var tasks []*task.Task
		for i := 0; i < 12; i++ {
			var inputs []datanode.DataNode
			for _, dn := range produced {
				if rng.Intn(4) == 0 {
					inputs = append(inputs, dn)
				}
			}
			out := datanode.NewInMemory(fmt.Sprintf("dn_%d_%d", round, i))
			tasks = append(tasks, newTask(fmt.Sprintf("t%d", i), inputs, dns(out)))
			produced = append(produced, out)
		}
		// Shuffle declaration order so generations cannot follow it by accident.
		rng.Shuffle(len(tasks), func(i, j int) { tasks[i], tasks[j] = tasks[j], tasks[i] })

		sorted, err := Build(taskList(tasks)).SortedTasks()
		require.NoError(t, err)

		generationOf := make(map[string]int)
		writerOf := make(map[string]*task.Task)
		for gi, gen := range sorted {
			for _, tk := range gen {
				generationOf[tk.ID] = gi
				writerOf[tk.Outputs[0].ID()] = tk
			}
		}
		require.Len(t, generationOf, len(tasks))

		for _, tk := range tasks {
			for _, in := range tk.Inputs {
				producer := writerOf[in.ID()]
				assert.Less(t, generationOf[producer.ID], generationOf[tk.ID],
					"%s reads %s written by %s", tk.ConfigID, in.ConfigID(), producer.ConfigID)
			}
		}
	}
}

func TestLayout_DistinctRowsWithinGeneration(t *testing.T) {
	raw := datanode.NewInMemory("raw")
	a := datanode.NewInMemory("a")
	b := datanode.NewInMemory("b")
	c := datanode.NewInMemory("c")
	tasks := []*task.Task{
		newTask("split", dns(raw), dns(a, b, c)),
		newTask("merge", dns(a, b, c), nil),
	}
	d := Build(taskList(tasks))

	layout, err := d.Layout()
	require.NoError(t, err)
	generations, err := d.Generations()
	require.NoError(t, err)

	for x, gen := range generations {
		seen := make(map[float64]string)
		for _, id := range gen {
			pos, ok := layout[id]
			require.True(t, ok)
			assert.Equal(t, float64(x), pos.X)
			if other, dup := seen[pos.Y]; dup {
				t.Errorf("%s and %s share row %v", id, other, pos.Y)
			}
			seen[pos.Y] = id
		}
	}
	assert.Less(t, layout[tasks[0].ID].X, layout[tasks[1].ID].X)
}

func TestNewScenario_RejectsCycle(t *testing.T) {
	a := datanode.NewInMemory("a")
	b := datanode.NewInMemory("b")
	tasks := []*task.Task{
		newTask("forward", dns(a), dns(b)),
		newTask("backward", dns(b), dns(a)),
	}

	_, err := NewScenario("loop", tasks)
	require.Error(t, err)
	assert.True(t, cerrors.ErrInvalidSubmittable.Equal(err))
	assert.Contains(t, err.Error(), "loop")
}

func TestNewScenario_RejectsEmpty(t *testing.T) {
	for _, tasks := range [][]*task.Task{nil, {}} {
		_, err := NewScenario("nothing", tasks)
		require.Error(t, err)
		assert.True(t, cerrors.ErrInvalidSubmittable.Equal(err))
		assert.Contains(t, err.Error(), "has no tasks")
	}
}

func TestNewSequence(t *testing.T) {
	t.Run("connected chain", func(t *testing.T) {
		tasks, _ := chain()
		seq, err := NewSequence("main", "SCENARIO_x", tasks)
		require.NoError(t, err)
		assert.Equal(t, TypeSequence, seq.EntityType())
		assert.Equal(t, "main", seq.ConfigID())
		assert.Equal(t, "SCENARIO_x", seq.ParentID())
	})

	t.Run("disconnected tasks", func(t *testing.T) {
		tasks := []*task.Task{
			newTask("left", nil, dns(datanode.NewInMemory("l"))),
			newTask("right", nil, dns(datanode.NewInMemory("r"))),
		}
		_, err := NewSequence("split", "", tasks)
		require.Error(t, err)
		assert.True(t, cerrors.ErrInvalidSubmittable.Equal(err))
	})

	t.Run("cycle", func(t *testing.T) {
		a := datanode.NewInMemory("a")
		_, err := NewSequence("loop", "", []*task.Task{newTask("self", dns(a), dns(a))})
		assert.True(t, cerrors.ErrInvalidSubmittable.Equal(err))
	})
}

func TestScenario_AddSequence(t *testing.T) {
	tasks, _ := chain()
	sc, err := NewScenario("pipeline", tasks)
	require.NoError(t, err)

	seq, err := sc.AddSequence("tail", []string{"t2", "t3"})
	require.NoError(t, err)
	assert.Equal(t, sc.ID(), seq.ParentID())
	assert.Equal(t, []string{"t2", "t3"}, configIDs(seq.Tasks()))

	got, ok := sc.Sequence("tail")
	require.True(t, ok)
	assert.Same(t, seq, got)
	assert.Equal(t, []string{"tail"}, sc.SequenceNames())

	_, err = sc.AddSequence("broken", []string{"t1", "missing"})
	assert.True(t, cerrors.ErrNonExistingTask.Equal(err))

	_, err = sc.AddSequence("gap", []string{"t1", "t3"})
	assert.True(t, cerrors.ErrInvalidSubmittable.Equal(err))
}

func TestIsReadyToRun(t *testing.T) {
	in := datanode.NewInMemory("in")
	out := datanode.NewInMemory("out")
	tk := newTask("consume", dns(in), dns(out))
	s := ForTask(tk)

	assert.Equal(t, TypeTask, s.EntityType())
	assert.Equal(t, tk.ID, s.ID())
	assert.False(t, IsReadyToRun(s))

	require.NoError(t, in.Write(1, ""))
	assert.True(t, IsReadyToRun(s))

	in.LockEdit()
	assert.False(t, IsReadyToRun(s))
}

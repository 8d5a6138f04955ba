package app

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vk/taskgrid/internal/submittable"
)

// Graph writes the generations of the selected submittable, then the layout
// position of each task and data node.
func (a *App) Graph(w io.Writer) error {
	target, err := a.target()
	if err != nil {
		return err
	}
	d := submittable.Build(target)
	gens, err := d.Generations()
	if err != nil {
		return err
	}
	layout, err := d.Layout()
	if err != nil {
		return err
	}

	names := a.entityNames()
	fmt.Fprintf(w, "%s %s\n", target.EntityType(), target.ConfigID())
	for i, gen := range gens {
		labels := make([]string, 0, len(gen))
		for _, id := range gen {
			labels = append(labels, names[id])
		}
		fmt.Fprintf(w, "  generation %d: %s\n", i, strings.Join(labels, ", "))
	}

	ids := make([]string, 0, len(layout))
	for id := range layout {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, pj := layout[ids[i]], layout[ids[j]]
		if pi.X != pj.X {
			return pi.X < pj.X
		}
		return pi.Y < pj.Y
	})
	fmt.Fprintln(w, "layout:")
	for _, id := range ids {
		p := layout[id]
		fmt.Fprintf(w, "  %-24s x=%g y=%g\n", names[id], p.X, p.Y)
	}
	return nil
}

// entityNames labels entity IDs with their config ID and kind.
func (a *App) entityNames() map[string]string {
	names := make(map[string]string, len(a.entities.Tasks)+len(a.entities.DataNodes))
	for id, t := range a.entities.Tasks {
		names[t.ID] = "task " + id
	}
	for id, dn := range a.entities.DataNodes {
		names[dn.ID()] = "data " + id
	}
	return names
}

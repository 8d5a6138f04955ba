package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vk/taskgrid/internal/repository"
	"github.com/vk/taskgrid/internal/repository/badger"
)

// ListRecords writes every submission and job persisted in the BadgerDB
// store at path, oldest first.
func ListRecords(ctx context.Context, path string, w io.Writer) error {
	store, err := badger.Open(badger.DefaultConfig(path))
	if err != nil {
		return err
	}
	defer store.Close()
	return writeRecords(ctx, store, w)
}

func writeRecords(ctx context.Context, store repository.Store, w io.Writer) error {
	subs, err := store.Submissions(ctx)
	if err != nil {
		return err
	}
	jobs, err := store.Jobs(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBMISSION\tENTITY\tSTATUS\tCREATED\tPROPERTIES")
	for _, s := range subs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.EntityConfigID, s.Status, s.CreationDate.Format(time.RFC3339), formatProperties(s.Properties))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "JOB\tTASK\tSTATUS\tSUBMISSION")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.ID, j.TaskConfigID, j.Status, j.SubmitID)
	}
	return tw.Flush()
}

func formatProperties(props map[string]any) string {
	if len(props) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(props))
	for k, v := range props {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// printTaskTable writes tasks as an aligned text table.
func printTaskTable(w io.Writer, tasks []models.Task) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tOWNER\tUPDATED\tTITLE\tNEXT ACTION")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), t.Status, t.Owner, formatTime(t.UpdatedAt), t.Title, t.NextAction)
	}
	tw.Flush()
}

// printTaskCSV writes tasks as raw CSV rows, full IDs included, for piping
// into other tools.
func printTaskCSV(w io.Writer, tasks []models.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "created_at", "updated_at", "title", "status", "owner", "next_action", "notes", "source"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, t := range tasks {
		row := []string{
			t.ID,
			formatTime(t.CreatedAt),
			formatTime(t.UpdatedAt),
			t.Title,
			string(t.Status),
			t.Owner,
			t.NextAction,
			t.Notes,
			t.Source,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// shortID truncates a UUID to its first segment for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/material-engine/internal/analysis"
	"github.com/pdiddy/material-engine/internal/numeric"
	"github.com/pdiddy/material-engine/pkg/types"
)

const dateFlagLayout = "2006-01-02"

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the measurement history of one property",
	Long: `History lists the measurements of a property for a material or layup,
oldest first, limited to the most recent --last points or to a --from/--to
date window (inclusive). Inactive measurements are listed but left out of
the summary, as are the measurement ids passed with --exclude.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	entityID, _ := cmd.Flags().GetString("entity")
	propertyID, _ := cmd.Flags().GetString("property")
	if entityID == "" || propertyID == "" {
		return fmt.Errorf("--entity and --property are required")
	}
	last, _ := cmd.Flags().GetInt("last")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	limit, err := historyLimit(last, from, to)
	if err != nil {
		return err
	}
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	svc, store, _, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	report := svc.History(entityID, types.PropertyID(propertyID), limit, exclude)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(os.Stdout, report)
	}
	printHistory(os.Stdout, report)
	return nil
}

// historyLimit builds a date window when --from or --to is set, else a
// count limit of the last N points.
func historyLimit(last int, from, to string) (types.HistoryLimit, error) {
	if from == "" && to == "" {
		return types.HistoryLimit{Type: types.LimitCount, Count: last}, nil
	}
	limit := types.HistoryLimit{Type: types.LimitDate}
	if from != "" {
		t, err := time.Parse(dateFlagLayout, from)
		if err != nil {
			return limit, fmt.Errorf("invalid --from %q: want YYYY-MM-DD", from)
		}
		limit.Start = t
	}
	if to != "" {
		t, err := time.Parse(dateFlagLayout, to)
		if err != nil {
			return limit, fmt.Errorf("invalid --to %q: want YYYY-MM-DD", to)
		}
		// End of day, so the window includes measurements taken on that date.
		limit.End = t.Add(24*time.Hour - time.Nanosecond)
	}
	if !limit.Start.IsZero() && !limit.End.IsZero() && limit.End.Before(limit.Start) {
		return limit, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return limit, nil
}

func printHistory(w io.Writer, r analysis.HistoryReport) {
	if len(r.Points) == 0 {
		fmt.Fprintf(w, "No measurements of %s for %s.\n", r.PropertyID, r.EntityID)
		return
	}

	excluded := make(map[string]bool, len(r.Excluded))
	for _, id := range r.Excluded {
		excluded[id] = true
	}

	fmt.Fprintf(w, "%-20s  %-10s  %-14s  %-12s  %s\n", "ID", "Date", "Value", "Lab", "Note")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, p := range r.Points {
		note := ""
		switch {
		case !p.Active:
			note = "inactive"
		case excluded[p.ID]:
			note = "excluded"
		}
		date := numeric.Placeholder
		if !p.Date.IsZero() {
			date = p.Date.Format(dateFlagLayout)
		}
		fmt.Fprintf(w, "%-20s  %-10s  %-14s  %-12s  %s\n",
			truncate(p.ID, 20), date, numeric.Format(&p.Value, 4), truncate(p.LabID, 12), note)
	}

	s := r.Summary
	fmt.Fprintf(w, "\nn=%d  min=%s  max=%s  mean=%s  sd=%s\n", s.Count,
		numeric.Format(s.Min, 4), numeric.Format(s.Max, 4),
		numeric.Format(s.Mean, 4), numeric.Format(s.StdDev, 4))
}

func init() {
	historyCmd.Flags().String("entity", "", "material or layup id")
	historyCmd.Flags().String("property", "", "property id")
	historyCmd.Flags().Int("last", 20, "number of most recent measurements")
	historyCmd.Flags().String("from", "", "window start (YYYY-MM-DD)")
	historyCmd.Flags().String("to", "", "window end, inclusive (YYYY-MM-DD)")
	historyCmd.Flags().StringSlice("exclude", nil, "measurement ids left out of the summary")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(historyCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/material-engine/internal/analysis"
	"github.com/pdiddy/material-engine/internal/catalog"
	"github.com/pdiddy/material-engine/internal/numeric"
	"github.com/pdiddy/material-engine/pkg/types"
)

// --- normalize ---

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Show the normalized property view of one entity",
	Long: `Normalize resolves every catalog property of an entity to a number,
taking the mean of its active measurements and falling back to manually
entered values (per --strategy). Properties without data show 0 with
source "none". Layups also report their total metrics.`,
	RunE: runNormalize,
}

func runNormalize(cmd *cobra.Command, args []string) error {
	ref, err := entityRefFromFlags(cmd)
	if err != nil {
		return err
	}

	svc, store, cfg, err := openService(cmd.Context(), ref)
	if err != nil {
		return err
	}
	defer store.Close()

	ne, err := svc.Normalize(ref, cfg.Analysis.SourceStrategy)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(os.Stdout, ne)
	}
	printNormalized(os.Stdout, ne)
	return nil
}

func printNormalized(w io.Writer, ne types.NormalizedEntity) {
	fmt.Fprintf(w, "%s %s (%s)\n\n", ne.Type, ne.ID, ne.Name)

	if len(ne.Metrics) > 0 {
		keys := make([]string, 0, len(ne.Metrics))
		for k := range ne.Metrics {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "%-24s  %s\n", "Metric", "Value")
		fmt.Fprintln(w, strings.Repeat("-", 40))
		for _, k := range keys {
			fmt.Fprintf(w, "%-24s  %s\n", k, numeric.Format(ne.Metrics[types.MetricKey(k)], 4))
		}
		fmt.Fprintln(w)
	}

	ids := make([]string, 0, len(ne.Properties))
	for id := range ne.Properties {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	fmt.Fprintf(w, "%-24s  %-14s  %-10s  %s\n", "Property", "Value", "Unit", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 64))
	for _, id := range ids {
		pv := ne.Properties[types.PropertyID(id)]
		fmt.Fprintf(w, "%-24s  %-14s  %-10s  %s\n",
			truncate(id, 24), numeric.Format(&pv.Value, 4), truncate(pv.Unit, 10), pv.Source)
	}
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export normalized views of all entities of a type",
	Long: `Export normalizes every entity of --type and writes the result to
normalized.yaml or normalized.json in the database directory, tagged with
a run id and the strategy used.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("type")
	format, _ := cmd.Flags().GetString("format")

	svc, store, cfg, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	batch, err := svc.NormalizeAll(types.EntityType(kind), cfg.Analysis.SourceStrategy)
	if err != nil {
		return err
	}
	doc := exportFile(batch, time.Now())

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(doc)
	case "json":
		path, err = store.ExportJSON(doc)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d %s(s) to %s (run %s)\n", len(batch.Entities), kind, path, batch.RunID)
	return nil
}

// exportFile wraps a normalization run for export under the run's own id.
func exportFile(batch analysis.NormalizedBatch, now time.Time) catalog.ExportFile {
	return catalog.ExportFile{
		RunID:       batch.RunID,
		GeneratedAt: now.UTC(),
		Strategy:    batch.Strategy,
		Entities:    batch.Entities,
	}
}

func init() {
	addEntityFlags(normalizeCmd)
	normalizeCmd.Flags().Bool("json", false, "output as JSON")

	exportCmd.Flags().String("type", string(types.EntityMaterial), "entity type: material, layup, assembly")
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(exportCmd)
}

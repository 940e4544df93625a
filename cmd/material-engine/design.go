// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/material-engine/internal/analysis"
	"github.com/pdiddy/material-engine/internal/numeric"
)

var designCmd = &cobra.Command{
	Use:   "design",
	Short: "Compute design values for a test matrix",
	Long: `Design computes per-property statistics for the specimens of a test
matrix, using the properties and statistics configured on its test method.
Properties configured for design values also report B-basis and A-basis
values (mean - k*sd) once at least 3 specimens parse. Unavailable values
print as "-".`,
	RunE: runDesign,
}

func runDesign(cmd *cobra.Command, args []string) error {
	matrixID, _ := cmd.Flags().GetString("matrix")
	if matrixID == "" {
		return fmt.Errorf("--matrix is required")
	}

	svc, store, _, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := svc.DesignValues(matrixID)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(os.Stdout, report)
	}
	printDesign(os.Stdout, report)
	return nil
}

func printDesign(w io.Writer, r analysis.DesignReport) {
	fmt.Fprintf(w, "matrix %s, test method %s, %d specimens\n\n", r.MatrixID, r.TestMethodID, r.Specimens)

	fmt.Fprintf(w, "%-20s  %3s  %-10s  %-10s  %-10s  %-10s  %-7s  %-6s  %-10s  %s\n",
		"Property", "N", "Mean", "Min", "Max", "SD", "CV %", "k", "B-basis", "A-basis")
	fmt.Fprintln(w, strings.Repeat("-", 112))
	for _, p := range r.Properties {
		s := p.Stats
		fmt.Fprintf(w, "%-20s  %3d  %-10s  %-10s  %-10s  %-10s  %-7s  %-6s  %-10s  %s\n",
			truncate(string(p.PropertyID), 20), s.N,
			numeric.Format(s.Mean, 3), numeric.Format(s.Min, 3), numeric.Format(s.Max, 3),
			numeric.Format(s.StdDev, 3), numeric.Format(s.CV, 2), numeric.Format(s.KFactor, 2),
			numeric.Format(s.BValue, 3), numeric.Format(s.AValue, 3))
	}
}

func init() {
	designCmd.Flags().String("matrix", "", "test matrix id")
	designCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(designCmd)
}

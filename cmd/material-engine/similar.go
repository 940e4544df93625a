// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/material-engine/internal/numeric"
	"github.com/pdiddy/material-engine/pkg/types"
)

var similarCmd = &cobra.Command{
	Use:   "similar",
	Short: "Find substitution candidates for an entity",
	Long: `Similar searches entities of the same type for substitutes. Candidates
must satisfy every --constraint, given as property:min:max with either
bound optional (for example tensile:1800: or density::1.6). Survivors are
ranked by similarity score, 100 meaning identical on every comparable key.`,
	RunE: runSimilar,
}

func runSimilar(cmd *cobra.Command, args []string) error {
	ref, err := entityRefFromFlags(cmd)
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetStringArray("constraint")
	constraints, err := parseConstraints(raw)
	if err != nil {
		return err
	}
	top, _ := cmd.Flags().GetInt("top")

	svc, store, cfg, err := openService(cmd.Context(), ref)
	if err != nil {
		return err
	}
	defer store.Close()

	if top <= 0 {
		top = cfg.Analysis.TopK
	}
	results, err := svc.Substitutes(ref, constraints, top)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(os.Stdout, results)
	}
	printSimilar(os.Stdout, results)
	return nil
}

func printSimilar(w io.Writer, results []types.SimilarityResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No candidates found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-20s  %-30s  %-7s  %s\n", "Rank", "ID", "Name", "Score", "Matches")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-20s  %-30s  %7.2f  %s\n",
			i+1, truncate(r.Entity.ID, 20), truncate(r.Entity.Name, 30), r.Score,
			strings.Join(r.MatchDetails, ", "))
	}
	fmt.Fprintf(w, "\n%d candidates\n", len(results))
}

// parseConstraints parses property:min:max strings. An empty bound is
// unset; at least one bound must be given.
func parseConstraints(raw []string) ([]types.SubstitutionConstraint, error) {
	out := make([]types.SubstitutionConstraint, 0, len(raw))
	for _, s := range raw {
		parts := strings.Split(s, ":")
		if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid constraint %q: want property:min:max", s)
		}
		c := types.SubstitutionConstraint{PropertyID: types.PropertyID(strings.TrimSpace(parts[0]))}
		for i, bound := range []**float64{&c.Min, &c.Max} {
			text := strings.TrimSpace(parts[i+1])
			if text == "" {
				continue
			}
			v, ok := numeric.ParseEngineeringNumber(text)
			if !ok {
				return nil, fmt.Errorf("invalid bound %q in constraint %q", text, s)
			}
			*bound = numeric.Ptr(v)
		}
		if c.Min == nil && c.Max == nil {
			return nil, fmt.Errorf("constraint %q sets neither min nor max", s)
		}
		out = append(out, c)
	}
	return out, nil
}

func init() {
	addEntityFlags(similarCmd)
	similarCmd.Flags().StringArray("constraint", nil, "hard bound property:min:max (repeatable)")
	similarCmd.Flags().Int("top", 0, "maximum number of candidates (default from config)")
	similarCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(similarCmd)
}

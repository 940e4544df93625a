// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/material-engine/internal/compliance"
	"github.com/pdiddy/material-engine/internal/numeric"
	"github.com/pdiddy/material-engine/pkg/types"
)

var complyCmd = &cobra.Command{
	Use:   "comply",
	Short: "Check an entity against a requirement profile",
	Long: `Comply evaluates every rule of a requirement profile against the
normalized values of an entity. A value outside min/max fails; otherwise a
deviation from the target above 10% fails and above 5% warns. Rules with no
value are unknown. The command exits non-zero when the overall status is
fail.`,
	RunE: runComply,
}

func runComply(cmd *cobra.Command, args []string) error {
	ref, err := entityRefFromFlags(cmd)
	if err != nil {
		return err
	}
	profileID, _ := cmd.Flags().GetString("profile")
	if profileID == "" {
		return fmt.Errorf("--profile is required")
	}

	svc, store, _, err := openService(cmd.Context(), ref)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := svc.Compliance(ref, profileID)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if err := writeJSON(os.Stdout, res); err != nil {
			return err
		}
	} else {
		printCompliance(os.Stdout, res)
	}

	if res.Overall == types.StatusFail {
		return fmt.Errorf("%s %s fails profile %s", ref.Type, ref.ID, profileID)
	}
	return nil
}

func printCompliance(w io.Writer, res compliance.ProfileResult) {
	fmt.Fprintf(w, "%-20s  %-10s  %-10s  %-10s  %-10s  %-12s  %-9s  %s\n",
		"Property", "Min", "Max", "Target", "Actual", "Delta %", "Status", "Method")
	fmt.Fprintln(w, strings.Repeat("-", 104))
	for _, r := range res.Rules {
		fmt.Fprintf(w, "%-20s  %-10s  %-10s  %-10s  %-10s  %-12s  %-9s  %s\n",
			truncate(string(r.Rule.PropertyID), 20),
			numeric.Format(r.Rule.Min, 3), numeric.Format(r.Rule.Max, 3),
			numeric.Format(r.Rule.Target, 3), numeric.Format(r.Actual, 3),
			numeric.Format(r.Delta, 2), r.Status, r.Rule.Method)
	}
	fmt.Fprintf(w, "\nprofile %s, entity %s: %s\n", res.ProfileID, res.EntityID, strings.ToUpper(string(res.Overall)))
}

func init() {
	addEntityFlags(complyCmd)
	complyCmd.Flags().String("profile", "", "requirement profile id")
	complyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(complyCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/material-engine/internal/catalog"
	"github.com/pdiddy/material-engine/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest dataset bundles into the catalog",
	Long: `Store reads *-dataset.yaml bundles from the data directory and loads
them into the SQLite catalog. Unchanged bundles are skipped on subsequent
runs; a changed bundle replaces every record it contributed, and records of
deleted bundles are removed. Dangling references are reported as warnings.`,
	RunE: runStore,
}

func runStore(cmd *cobra.Command, args []string) error {
	cfg, err := engineConfig()
	if err != nil {
		return err
	}

	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d dataset(s) failed indexing", summary.Failed)
	}
	return nil
}

var findCmd = &cobra.Command{
	Use:   "find [name]",
	Short: "List catalog entities whose name contains a query",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFind,
}

func runFind(cmd *cobra.Command, args []string) error {
	cfg, err := engineConfig()
	if err != nil {
		return err
	}
	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	kind, _ := cmd.Flags().GetString("type")
	if kind != "" && !types.EntityType(kind).Valid() {
		return fmt.Errorf("unsupported type %q: use material, layup or assembly", kind)
	}

	found, err := store.FindEntities(cmd.Context(), query, types.EntityType(kind))
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(os.Stdout, found)
	}
	if len(found) == 0 {
		fmt.Println("No entities found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-9s  %-20s  %-40s  %s\n", "Type", "ID", "Name", "Dataset")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, e := range found {
		fmt.Fprintf(os.Stdout, "%-9s  %-20s  %-40s  %s\n",
			e.Type, truncate(e.ID, 20), truncate(e.Name, 40), e.Dataset)
	}
	fmt.Fprintf(os.Stdout, "\n%d entities\n", len(found))
	return nil
}

func init() {
	findCmd.Flags().String("type", "", "filter by entity type: material, layup, assembly")
	findCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(findCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the material-engine CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/material-engine/internal/analysis"
	"github.com/pdiddy/material-engine/internal/catalog"
	"github.com/pdiddy/material-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the material-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "material-engine",
	Short: "Material catalog analysis and statistical qualification",
	Long: `material-engine keeps a local catalog of materials, layups, assemblies and
their test measurements, and runs analyses over it: normalization,
substitution search, property history, requirement compliance and
A/B-basis design values.

Load dataset bundles with "store", then query them with the analysis
subcommands.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./material-engine.yaml or ~/.config/material-engine/material-engine.yaml)")
	pf.String("data-dir", "", "directory holding *-dataset.yaml bundles")
	pf.String("database-dir", "", "directory holding materials.db and exports")
	pf.String("strategy", "", "normalization source: auto, properties, measurements")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	viper.SetDefault("catalog.data_dir", "data")
	viper.SetDefault("catalog.database_dir", filepath.Join("data", "index"))
	viper.SetDefault("analysis.source_strategy", string(types.SourceAuto))
	viper.SetDefault("analysis.top_k", 10)
	viper.SetDefault("analysis.log_level", "info")

	_ = viper.BindPFlag("catalog.data_dir", pf.Lookup("data-dir"))
	_ = viper.BindPFlag("catalog.database_dir", pf.Lookup("database-dir"))
	_ = viper.BindPFlag("analysis.source_strategy", pf.Lookup("strategy"))
	_ = viper.BindPFlag("analysis.log_level", pf.Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("material-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "material-engine"))
		}
	}

	viper.SetEnvPrefix("MATERIAL_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig returns the effective configuration after flag, env, file
// and default layering.
func engineConfig() (types.EngineConfig, error) {
	var cfg types.EngineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	if !cfg.Analysis.SourceStrategy.Valid() {
		return cfg, fmt.Errorf("unsupported strategy %q: use auto, properties or measurements", cfg.Analysis.SourceStrategy)
	}
	return cfg, nil
}

// newLogger builds the stderr text logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openService opens the catalog, loads a snapshot and wraps it in an
// analysis service. Each of refs is looked up first, so a missing
// entity fails with catalog.ErrNotFound before the snapshot is loaded. The
// returned store must be closed by the caller.
func openService(ctx context.Context, refs ...types.EntityRef) (*analysis.Service, *catalog.Store, types.EngineConfig, error) {
	cfg, err := engineConfig()
	if err != nil {
		return nil, nil, cfg, err
	}
	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return nil, nil, cfg, err
	}
	for _, ref := range refs {
		if _, err := store.Entity(ctx, ref); err != nil {
			store.Close()
			return nil, nil, cfg, err
		}
	}
	snap, err := store.Snapshot(ctx)
	if err != nil {
		store.Close()
		return nil, nil, cfg, fmt.Errorf("loading catalog: %w", err)
	}
	svc := analysis.NewService(snap, cfg.Analysis, newLogger(cfg.Analysis.LogLevel))
	return svc, store, cfg, nil
}

// entityRefFromFlags reads --type and --id.
func entityRefFromFlags(cmd *cobra.Command) (types.EntityRef, error) {
	kind, _ := cmd.Flags().GetString("type")
	id, _ := cmd.Flags().GetString("id")
	ref := types.EntityRef{Type: types.EntityType(kind), ID: id}
	if !ref.Type.Valid() {
		return ref, fmt.Errorf("unsupported type %q: use material, layup or assembly", kind)
	}
	if id == "" {
		return ref, fmt.Errorf("--id is required")
	}
	return ref, nil
}

func addEntityFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", string(types.EntityMaterial), "entity type: material, layup, assembly")
	cmd.Flags().String("id", "", "entity id")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncate shortens s to n characters for fixed-width tables.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main provides the VanirDB CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/orneryd/vanirdb/pkg/config"
	"github.com/orneryd/vanirdb/pkg/vanirdb"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vanirdb",
		Short: "VanirDB - Embedded Graph Database with Vectorized Execution",
		Long: `VanirDB is an embedded property-graph database written in Go.

Features:
  • Labeled property graph on BadgerDB
  • Columnar batch execution with selection vectors
  • Scalar and vectorized user-defined functions
  • Label scans backed by roaring bitmap indexes`,
	}

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("VanirDB v%s (%s)\n", version, commit)
		},
	})

	// Init command
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new VanirDB database",
		RunE:  runInit,
	}
	initCmd.Flags().String("data-dir", "./data", "Data directory")
	rootCmd.AddCommand(initCmd)

	// Stats command
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		RunE:  runStats,
	}
	statsCmd.Flags().String("data-dir", "./data", "Data directory")
	rootCmd.AddCommand(statsCmd)

	// Functions command
	functionsCmd := &cobra.Command{
		Use:   "functions",
		Short: "List registered functions",
		RunE:  runFunctions,
	}
	functionsCmd.Flags().String("data-dir", "./data", "Data directory")
	rootCmd.AddCommand(functionsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openFromFlags(cmd *cobra.Command) (*vanirdb.DB, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	cfg := config.LoadFromEnv()
	cfg.Storage.DataDir = dataDir
	return vanirdb.Open(cfg)
}

func runInit(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	fmt.Printf("Initializing VanirDB database in %s\n", dataDir)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Create default config file
	configPath := filepath.Join(dataDir, "vanirdb.yaml")
	configContent := fmt.Sprintf(`# VanirDB Configuration
storage:
  dataDir: %s
  inMemory: false
  syncWrites: false

execution:
  vectorCapacity: 2048
  debugTypeChecks: false

plugins:
  dir: ""

logging:
  level: INFO
`, dataDir)
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Open once to lay down the store files.
	db, err := openFromFlags(cmd)
	if err != nil {
		return err
	}
	if err := db.Close(); err != nil {
		return err
	}

	fmt.Println("Database initialized successfully")
	fmt.Printf("  Config: %s\n", configPath)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openFromFlags(cmd)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	stats := db.Stats()
	fmt.Println("VanirDB Statistics:")
	fmt.Printf("  Nodes:     %d\n", stats.Nodes)
	fmt.Printf("  Edges:     %d\n", stats.Edges)
	fmt.Printf("  Functions: %d\n", stats.Functions)
	fmt.Printf("  Plugins:   %d\n", stats.Plugins)
	return nil
}

func runFunctions(cmd *cobra.Command, args []string) error {
	db, err := openFromFlags(cmd)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	names := db.Registry().Names()
	sort.Strings(names)
	fmt.Printf("Registered functions (%d):\n", len(names))
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

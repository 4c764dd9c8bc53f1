package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/vanirdb/pkg/config"
)

func TestInitWritesConfiguredDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "store")

	cmd := &cobra.Command{}
	cmd.Flags().String("data-dir", "./data", "Data directory")
	require.NoError(t, cmd.Flags().Set("data-dir", dataDir))

	require.NoError(t, runInit(cmd, nil))

	configPath := filepath.Join(dataDir, "vanirdb.yaml")
	raw, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "dataDir: "+dataDir)

	cfg, err := config.LoadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, dataDir, cfg.Storage.DataDir)
}

package main

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tabula/internal/genconfig"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &genconfig.Generate{}
	applyDefaults(cfg)
	assert.Equal(t, filepath.Join("tabuladata", "tabula_gen.go"), cfg.Output)
	assert.Equal(t, "tabuladata", cfg.Package)
	assert.Equal(t, "Data", cfg.Context)
}

func TestApplyDefaultsPackageFromOutput(t *testing.T) {
	cfg := &genconfig.Generate{Output: "gamedata/data_gen.go"}
	applyDefaults(cfg)
	assert.Equal(t, "gamedata", cfg.Package)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("debug", "json", io.Discard)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger("loud", "json", io.Discard)
	assert.ErrorContains(t, err, "log-level")

	_, err = newLogger("info", "xml", io.Discard)
	assert.ErrorContains(t, err, "log-format")
}

func TestRootCmdRequiresPackages(t *testing.T) {
	cmd := newRootCmd(io.Discard)
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	assert.ErrorContains(t, err, "no packages to scan")
}

package genconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tabula.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
generate {
  packages = ["./model", "./extra"]
  output   = "gamedata/data_gen.go"
  package  = "gamedata"
  context  = "GameData"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"./model", "./extra"}, cfg.Packages)
	assert.Equal(t, "gamedata/data_gen.go", cfg.Output)
	assert.Equal(t, "gamedata", cfg.Package)
	assert.Equal(t, "GameData", cfg.Context)
}

func TestLoadOptionalFields(t *testing.T) {
	path := writeConfig(t, `
generate {
  packages = ["./model"]
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"./model"}, cfg.Packages)
	assert.Empty(t, cfg.Output)
}

func TestLoadNoGenerateBlock(t *testing.T) {
	path := writeConfig(t, "")
	_, err := Load(path)
	assert.ErrorContains(t, err, "no generate block")
}

func TestLoadParseError(t *testing.T) {
	path := writeConfig(t, "generate {")
	_, err := Load(path)
	assert.Error(t, err)
}

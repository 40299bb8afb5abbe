package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9000
model:
  schema: basic
  type: decision_tree
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Http.Port)
	assert.Equal(t, 30*time.Second, cfg.Http.Timeout)
	assert.Equal(t, "basic", cfg.Model.Schema)
	assert.Equal(t, "decision_tree", cfg.Model.Type)
	assert.Equal(t, "cleaned_animal_data.csv", cfg.Data.Animals)
	assert.Equal(t, 64, cfg.Cache.Size)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown schema", "model:\n  schema: wide\n"},
		{"unknown model type", "model:\n  type: random_forest\n"},
		{"bad port", "http:\n  port: 70000\n"},
		{"bad encoding", "data:\n  encoding: ebcdic\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"not yaml", "http: [port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestResolvePaths(t *testing.T) {
	cfg := Default()
	cfg.Log.File = "logs/app.log"
	cfg.ResolvePaths(filepath.Join("deploy", "config.yaml"))

	assert.Equal(t, filepath.Join("deploy", "Model", "predicting_model.json"), cfg.Model.Path)
	assert.Equal(t, filepath.Join("deploy", "Data", "Cleaned_Data"), cfg.Data.Dir)
	assert.Equal(t, filepath.Join("deploy", "logs", "app.log"), cfg.Log.File)
	assert.Equal(t, filepath.Join("deploy", "Data", "Cleaned_Data", "x.csv"), cfg.DataPath("x.csv"))
	assert.Equal(t, "", cfg.DataPath(""))
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestShippedConfig(t *testing.T) {
	path := Locate("config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg.ResolvePaths(path)
	assert.Equal(t, filepath.Join("..", "Data", "Cleaned_Data", "final_combined_data.csv"), cfg.DataPath(cfg.Data.Combined))
}

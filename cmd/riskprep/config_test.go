package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/riskprep/tactic"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	v, err := newViper("")
	require.NoError(t, err)
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Threshold)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "pipeline.gob", cfg.Model)
	assert.Empty(t, cfg.Processes)
}

func TestLoadConfigFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pipeline.yaml", `
target: bad
processes: [Cap, Floor, Woe]
threshold: 0.75
log_level: DEBUG
checkpoint:
  path: partial.csv
  every: 2
`)
	t.Setenv("RISKPREP_TARGET", "default_flag")
	t.Setenv("RISKPREP_CHECKPOINT_EVERY", "5")

	v, err := newViper(path)
	require.NoError(t, err)
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "default_flag", cfg.Target, "environment overrides the file")
	assert.Equal(t, 5, cfg.Checkpoint.Every)
	assert.Equal(t, "partial.csv", cfg.Checkpoint.Path)
	assert.Equal(t, 0.75, cfg.Threshold)
	assert.Equal(t, "debug", cfg.LogLevel)

	processes, err := cfg.processes()
	require.NoError(t, err)
	assert.Equal(t, []tactic.Process{tactic.Cap, tactic.Floor, tactic.Woe}, processes)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown process", "processes: [Cap, Bogus]"},
		{"log level", "log_level: loud"},
		{"threshold", "threshold: 1.5"},
		{"checkpoint every", "checkpoint:\n  every: -1"},
		{"missing config table", "config: does-not-exist.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "pipeline.yaml", tt.yaml)
			v, err := newViper(path)
			require.NoError(t, err)
			_, err = loadConfig(v)
			assert.Error(t, err)
		})
	}
}

func TestNewViperMissingFile(t *testing.T) {
	_, err := newViper(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	cfg := &PipelineConfig{Config: "config.csv", Model: "m.gob"}
	assert.NoError(t, cfg.require("config", "model"))
	assert.Error(t, cfg.require("config", "train"))
}

func TestWriteYAML(t *testing.T) {
	cfg := &PipelineConfig{Target: "bad", Processes: []string{"Cap"}, LogLevel: "info"}
	cfg.Checkpoint.Every = 3

	var buf bytes.Buffer
	require.NoError(t, cfg.writeYAML(&buf))

	var decoded PipelineConfig
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *cfg, decoded)
	assert.Contains(t, buf.String(), "woe_reference:")
}

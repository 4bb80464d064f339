package config_test

import (
	"testing"

	"github.com/aarsakian/FileRecovery/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayout(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "Recovered", cfg.OutputFolder)
	assert.Equal(t, "Log", cfg.LogFolder)
	assert.Equal(t, "FileDataLog.txt", cfg.LogFile)
	assert.True(t, cfg.CreateFileDataLog)
}

func TestLoadLayoutMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := config.LoadLayout(afero.NewMemMapFs(), "recovery.yaml", config.Default())
	require.Nil(t, err)
	assert.Equal(t, "Recovered", cfg.OutputFolder)
}

func TestLoadLayoutOverridesOnlyGivenKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.Nil(t, afero.WriteFile(fs, "recovery.yaml",
		[]byte("outputFolder: Extracted\nlogFile: scan.csv\n"), 0644))

	cfg, err := config.LoadLayout(fs, "recovery.yaml", config.Default())
	require.Nil(t, err)
	assert.Equal(t, "Extracted", cfg.OutputFolder)
	assert.Equal(t, "Log", cfg.LogFolder)
	assert.Equal(t, "scan.csv", cfg.LogFile)
}

func TestLoadLayoutRejectsMalformedYaml(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.Nil(t, afero.WriteFile(fs, "recovery.yaml",
		[]byte("outputFolder: [unterminated"), 0644))

	_, err := config.LoadLayout(fs, "recovery.yaml", config.Default())
	assert.NotNil(t, err)
}

package config

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config is built once in main after argument parsing and passed by value.
type Config struct {
	DrivePath         string
	EvidencePath      string
	Recover           bool
	Analyze           bool
	CreateFileDataLog bool
	OutputFolder      string
	LogFolder         string
	LogFile           string
	TargetCluster     uint32
	TargetFileSize    uint64
	Hash              string
}

func Default() Config {
	return Config{
		CreateFileDataLog: true,
		OutputFolder:      "Recovered",
		LogFolder:         "Log",
		LogFile:           "FileDataLog.txt",
	}
}

type layoutDefaults struct {
	OutputFolder string `yaml:"outputFolder"`
	LogFolder    string `yaml:"logFolder"`
	LogFile      string `yaml:"logFile"`
}

// LoadLayout overlays the output layout from an optional YAML defaults file.
// A missing file leaves the configuration untouched.
func LoadLayout(fs afero.Fs, path string, cfg Config) (Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var layout layoutDefaults
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return cfg, fmt.Errorf("unable to parse defaults file %s: %w", path, err)
	}

	if layout.OutputFolder != "" {
		cfg.OutputFolder = layout.OutputFolder
	}
	if layout.LogFolder != "" {
		cfg.LogFolder = layout.LogFolder
	}
	if layout.LogFile != "" {
		cfg.LogFile = layout.LogFile
	}
	return cfg, nil
}

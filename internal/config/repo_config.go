package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RepoConfigFile is the name of the optional per-repository config file.
const RepoConfigFile = ".codecritic.yml"

var (
	ErrRepoConfigNotFound = errors.New("repo config file not found")
	ErrRepoConfigParsing  = errors.New("repo config parsing failed")
)

// RepoConfig represents the structure of the .codecritic.yml file. It
// supplies defaults that individual runs can override with flags.
type RepoConfig struct {
	// Glob patterns used when --files is not given.
	FilePatterns []string `yaml:"file_patterns"`

	// Extra instructions appended to every review prompt.
	CustomInstructions []string `yaml:"custom_instructions"`
}

// DefaultRepoConfig returns an empty repo config.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		FilePatterns:       []string{},
		CustomInstructions: []string{},
	}
}

// LoadRepoConfig loads and parses the .codecritic.yml file from dir.
// A missing file returns the default config together with
// ErrRepoConfigNotFound so callers can choose to ignore the absence.
func LoadRepoConfig(dir string) (*RepoConfig, error) {
	configPath := filepath.Join(dir, RepoConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRepoConfig(), ErrRepoConfigNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", RepoConfigFile, err)
	}

	cfg := DefaultRepoConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepoConfigParsing, err)
	}
	return cfg, nil
}

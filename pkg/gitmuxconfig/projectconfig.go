package gitmuxconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectConfigDir is the directory name for gitmux project defaults.
	ProjectConfigDir = ".gitmux"
	// ProjectConfigFile is the config file name within ProjectConfigDir.
	ProjectConfigFile = "config.yaml"
	// ProjectConfigPath is the path relative to a project root.
	ProjectConfigPath = ProjectConfigDir + "/" + ProjectConfigFile
)

// ProjectConfig holds project-level defaults loaded from
// .gitmux/config.yaml, overridable by CLI flags and environment
// variables per the precedence rule in spec.md section 6.
type ProjectConfig struct {
	// RebaseStrategy is the default rebase strategy when -X is not given.
	RebaseStrategy string `yaml:"rebase_strategy,omitempty"`

	// LogLevel is the default log level when -L is not given.
	LogLevel string `yaml:"log_level,omitempty"`

	// CoauthorAction is the default coauthor scrubbing mode.
	CoauthorAction string `yaml:"coauthor_action,omitempty"`

	// FilterBackend is the default filter backend choice.
	FilterBackend string `yaml:"filter_backend,omitempty"`
}

// LoadProjectConfig loads .gitmux/config.yaml by searching dir and its
// parent directories. A missing file is not an error: it returns a
// zero ProjectConfig.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	path, err := findProjectConfigPath(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return &ProjectConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadProjectConfigFromCurrentDir loads .gitmux/config.yaml starting
// from the process's current working directory.
func LoadProjectConfigFromCurrentDir() (*ProjectConfig, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return LoadProjectConfig(dir)
}

func findProjectConfigPath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	for {
		candidate := filepath.Join(absDir, ProjectConfigPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(absDir)
		if parent == absDir {
			return "", nil
		}
		absDir = parent
	}
}

// ResolveString returns cliValue if non-empty, else configValue if
// non-empty, else defaultValue — the CLI > project config > default
// precedence used throughout the run configuration surface.
func ResolveString(cliValue, configValue, defaultValue string) string {
	if cliValue != "" {
		return cliValue
	}
	if configValue != "" {
		return configValue
	}
	return defaultValue
}

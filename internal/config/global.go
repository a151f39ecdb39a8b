// Package config loads step settings and the registry credential documents
// mounted into the pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
)

// Setting defaults.
const (
	DefaultSecretsDir              = "/mnt/secrets"
	DefaultRegistryCredentialsFile = "registry-credentials"
	DefaultRunnerTemp              = "/tmp"
	DefaultHTTPTimeout             = 30 * time.Second
)

// Settings holds the optional step configuration file.
type Settings struct {
	SecretsDir              string          `yaml:"secrets_dir"`
	RegistryCredentialsFile string          `yaml:"registry_credentials_file"`
	RunnerTemp              string          `yaml:"runner_temp"`
	HTTPTimeout             time.Duration   `yaml:"http_timeout"`
	Ballerina               BallerinaConfig `yaml:"ballerina"`
}

// BallerinaConfig configures the Ballerina.toml step.
type BallerinaConfig struct {
	// BasicTemplates are templates whose package exports are left alone.
	BasicTemplates []string `yaml:"basic_templates"`
}

// DefaultConfigDir returns the default configuration directory, respecting XDG_CONFIG_HOME.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "choreo-steps")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "choreo-steps")
	}

	return filepath.Join(home, ".config", "choreo-steps")
}

// DefaultConfigPath returns the settings file used when --config is not given.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LoadSettings reads settings from path and applies environment overrides
// and defaults. A missing file yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	var s Settings

	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeUser, fmt.Sprintf("Failed to parse settings file %s", path), err)
		}
	case os.IsNotExist(err):
	default:
		return nil, apperrors.Wrap(apperrors.CodeUser, fmt.Sprintf("Failed to read settings file %s", path), err)
	}

	s.applyEnv()
	s.applyDefaults()

	return &s, nil
}

func (s *Settings) applyEnv() {
	if v := os.Getenv("REG_CRED_FILE_NAME"); v != "" {
		s.RegistryCredentialsFile = v
	}

	if v := os.Getenv("RUNNER_TEMP"); v != "" && s.RunnerTemp == "" {
		s.RunnerTemp = v
	}
}

func (s *Settings) applyDefaults() {
	if s.SecretsDir == "" {
		s.SecretsDir = DefaultSecretsDir
	}

	if s.RegistryCredentialsFile == "" {
		s.RegistryCredentialsFile = DefaultRegistryCredentialsFile
	}

	if s.RunnerTemp == "" {
		s.RunnerTemp = DefaultRunnerTemp
	}

	if s.HTTPTimeout <= 0 {
		s.HTTPTimeout = DefaultHTTPTimeout
	}

	if len(s.Ballerina.BasicTemplates) == 0 {
		s.Ballerina.BasicTemplates = []string{"basic", "hello-world-service", "hello-world-ballerina"}
	}
}

// RegistryCredentialsPath returns the mounted registry credentials file.
func (s *Settings) RegistryCredentialsPath() string {
	return filepath.Join(s.SecretsDir, s.RegistryCredentialsFile)
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadRegistryCredentials reads and validates a registry credentials file.
func LoadRegistryCredentials(path string) ([]RegistryCredential, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading registry credentials %s: %w", path, err)
	}

	var creds []RegistryCredential
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing registry credentials %s: %w", path, err)
	}

	if err := ValidateRegistryCredentials(creds); err != nil {
		return nil, fmt.Errorf("validating registry credentials %s: %w", path, err)
	}

	return creds, nil
}

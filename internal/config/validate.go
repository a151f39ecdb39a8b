package config

import (
	"fmt"
	"strings"
)

// validRegistryTypes are the registry types a credential entry may declare.
var validRegistryTypes = map[string]bool{
	RegistryACR:       true,
	RegistryECR:       true,
	RegistryGCP:       true,
	RegistryDockerHub: true,
}

// ValidateRegistryCredentials checks every entry for a known type and the
// fields its login flow reads.
func ValidateRegistryCredentials(creds []RegistryCredential) error {
	for i := range creds {
		if err := validateCredential(&creds[i], i); err != nil {
			return err
		}
	}

	return nil
}

func validateCredential(c *RegistryCredential, index int) error {
	if !validRegistryTypes[c.Type] {
		return fmt.Errorf("credentials[%d]: invalid type %q, must be one of: ACR, ECR, GCP, DOCKER_HUB", index, c.Type)
	}

	if strings.TrimSpace(c.Credentials.Registry) == "" {
		return fmt.Errorf("credentials[%d] (%s): registry is required", index, c.RegistryID)
	}

	switch c.Type {
	case RegistryECR:
		if c.Credentials.Region == "" {
			return fmt.Errorf("credentials[%d] (%s): region is required for ECR", index, c.RegistryID)
		}
	case RegistryGCP:
		if c.Credentials.Region == "" || c.Credentials.Repository == "" {
			return fmt.Errorf("credentials[%d] (%s): region and repository are required for GCP", index, c.RegistryID)
		}
	}

	if c.Credentials.RegistryPassword == "" {
		return fmt.Errorf("credentials[%d] (%s): registryPassword is required", index, c.RegistryID)
	}

	return nil
}

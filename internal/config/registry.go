package config

import "encoding/json"

// ChoreoDockerHubID marks the Docker Hub entry used only to raise pull
// rate limits. Images are never pushed to it.
const ChoreoDockerHubID = "choreo-docker-hub"

// Registry types.
const (
	RegistryACR       = "ACR"
	RegistryECR       = "ECR"
	RegistryGCP       = "GCP"
	RegistryDockerHub = "DOCKER_HUB"
)

// RegistryCredential is one entry of the mounted registry credentials list.
type RegistryCredential struct {
	Type        string          `json:"type"`
	RegistryID  string          `json:"registry_id"`
	IsCDP       *bool           `json:"is_cdp,omitempty"`
	Clusters    json.RawMessage `json:"clusters,omitempty"`
	Credentials Credentials     `json:"credentials"`
}

// Credentials holds the secret part of a registry entry.
type Credentials struct {
	Registry         string `json:"registry"`
	RegistryUser     string `json:"registryUser"`
	RegistryPassword string `json:"registryPassword"`
	Region           string `json:"region,omitempty"`
	Repository       string `json:"repository,omitempty"`
}

// IsChoreoDockerHub reports whether the entry is the pull-only Docker Hub login.
func (c *RegistryCredential) IsChoreoDockerHub() bool {
	return c.RegistryID == ChoreoDockerHubID
}

// ManagedByPlatform reports whether the registry belongs to the platform's
// own data plane. An unset flag counts as managed.
func (c *RegistryCredential) ManagedByPlatform() bool {
	return c.IsCDP == nil || *c.IsCDP
}

package imagepush

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"oras.land/oras-go/v2/registry/remote/auth"

	"github.com/choreo-dev/choreo-steps/internal/config"
)

// DockerHubServer is the key Docker Hub credentials are stored under.
const DockerHubServer = "https://index.docker.io/v1/"

// GCPKeyUser is the user name for service account key logins.
const GCPKeyUser = "_json_key"

type login struct {
	server     string
	credential auth.Credential
	// projectID is set for GCP entries.
	projectID string
}

func (r *runner) login(ctx context.Context, c *config.RegistryCredential) (*login, error) {
	var (
		l   *login
		err error
	)

	switch c.Type {
	case config.RegistryACR:
		l = basicLogin(c.Credentials.Registry, c)
	case config.RegistryDockerHub:
		l = basicLogin(LoginServer(c), c)
	case config.RegistryECR:
		l, err = r.ecrLogin(ctx, c)
	case config.RegistryGCP:
		l, err = gcpLogin(c)
	default:
		err = fmt.Errorf("unsupported registry type %q", c.Type)
	}

	if err != nil {
		return nil, err
	}

	if err := r.store.Put(ctx, l.server, l.credential); err != nil {
		return nil, fmt.Errorf("storing credentials for %s: %w", l.server, err)
	}

	return l, nil
}

// LoginServer returns the docker config key for a Docker Hub entry.
func LoginServer(c *config.RegistryCredential) string {
	if strings.Contains(c.Credentials.Registry, "docker.io") {
		return DockerHubServer
	}

	return c.Credentials.Registry
}

func basicLogin(server string, c *config.RegistryCredential) *login {
	return &login{
		server: server,
		credential: auth.Credential{
			Username: c.Credentials.RegistryUser,
			Password: c.Credentials.RegistryPassword,
		},
	}
}

type gcpKey struct {
	ProjectID string `json:"project_id"`
}

// gcpLogin decodes the base64 service account key held in the password.
func gcpLogin(c *config.RegistryCredential) (*login, error) {
	raw, err := base64.StdEncoding.DecodeString(c.Credentials.RegistryPassword)
	if err != nil {
		return nil, fmt.Errorf("decoding service account key: %w", err)
	}

	var key gcpKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, fmt.Errorf("parsing service account key: %w", err)
	}

	if key.ProjectID == "" {
		return nil, fmt.Errorf("service account key has no project_id")
	}

	return &login{
		server: c.Credentials.Registry,
		credential: auth.Credential{
			Username: GCPKeyUser,
			Password: string(raw),
		},
		projectID: key.ProjectID,
	}, nil
}

// Package deploy triggers a deployment of a freshly built image.
package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/choreo-dev/choreo-steps/internal/config"
	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
)

// Sender delivers a JSON payload.
type Sender interface {
	SendJSON(ctx context.Context, method, url, token string, payload any) error
}

// Opts configures a deploy trigger.
type Opts struct {
	Domain     string
	OrgID      string
	ProjectID  string
	AppID      string
	ChoreoApp  string
	EnvID      string
	Version    string
	ImageName  string
	GitHash    string
	GitOpsHash string
	// Token is forwarded as the registry token. The request is skipped
	// without one.
	Token                 string
	IsHTTPBased           bool
	PortExtractFilePath   string
	ContainerID           string
	IsContainerDeployment bool
	OASFilePath           string
	// GitHashDate defaults to the current time in RFC 3339.
	GitHashDate     string
	IsAutoDeploy    bool
	RunID           string
	CredentialsPath string
	Logger          *slog.Logger
}

// ClusterImageTag maps a registry to the image reference pushed to it.
type ClusterImageTag struct {
	RegistryID       string          `json:"registry_id"`
	Clusters         json.RawMessage `json:"clusters"`
	ImageNameWithTag string          `json:"image_name_with_tag"`
}

// ContainerBody is posted for container deployments.
type ContainerBody struct {
	Image                  string            `json:"image"`
	Tag                    string            `json:"tag"`
	GitHash                string            `json:"git_hash"`
	GitOpsHash             string            `json:"gitops_hash"`
	AppID                  string            `json:"app_id"`
	APIVersionID           string            `json:"api_version_id"`
	EnvironmentID          string            `json:"environment_id"`
	RegistryToken          string            `json:"registry_token"`
	ContainerID            string            `json:"container_id"`
	APIDefinitionPath      *string           `json:"api_definition_path"`
	ClusterImageTags       []ClusterImageTag `json:"cluster_image_tags"`
	GitHashCommitTimestamp string            `json:"git_hash_commit_timestamp"`
	IsAutoDeploy           bool              `json:"is_auto_deploy"`
	RunID                  string            `json:"run_id"`
}

// ImageBody is posted for every other deployment.
type ImageBody struct {
	Image                  string            `json:"image"`
	Tag                    string            `json:"tag"`
	ImagePorts             []ImagePort       `json:"image_ports"`
	GitHash                string            `json:"git_hash"`
	GitOpsHash             string            `json:"gitops_hash"`
	OrganizationID         string            `json:"organization_id"`
	ProjectID              string            `json:"project_id"`
	AppID                  string            `json:"app_id"`
	APIVersionID           string            `json:"api_version_id"`
	EnvironmentID          string            `json:"environment_id"`
	RegistryToken          string            `json:"registry_token"`
	WorkspaceYAMLPath      string            `json:"workspace_yaml_path"`
	ClusterImageTags       []ClusterImageTag `json:"cluster_image_tags"`
	GitHashCommitTimestamp string            `json:"git_hash_commit_timestamp"`
	IsAutoDeploy           bool              `json:"is_auto_deploy"`
	RunID                  string            `json:"run_id"`
}

// Result describes the request that was built.
type Result struct {
	URL  string
	Body any
	// Sent is false when no token was given.
	Sent bool
}

// Run builds the deploy request and posts it when a token is set.
func Run(ctx context.Context, s Sender, opts *Opts) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := checkRequired(opts); err != nil {
		return nil, err
	}

	if opts.PortExtractFilePath == "" {
		opts.PortExtractFilePath = DefaultPortExtractPath
	}

	if opts.GitHashDate == "" {
		opts.GitHashDate = time.Now().UTC().Format(time.RFC3339)
	}

	workspacePath := PreparedPath(opts.PortExtractFilePath)

	ports := []ImagePort{}

	if !opts.IsContainerDeployment {
		extracted, err := ExtractPorts(workspacePath)
		if err != nil {
			logger.Error("reading port extract file failed", "path", workspacePath, "error", err)
		} else {
			ports = append(ports, extracted...)
			if len(ports) == 0 && opts.IsHTTPBased {
				ports = append(ports, ImagePort{Port: DefaultPort, Name: DefaultPortName})
			}
		}
	}

	tags := []ClusterImageTag{}

	creds, err := config.LoadRegistryCredentials(opts.CredentialsPath)
	if err != nil {
		logger.Error("loading registry credentials failed", "error", err)
	} else {
		tags = ClusterImageTags(creds, opts.ChoreoApp, opts.GitHash)
	}

	res := &Result{}

	if opts.IsContainerDeployment {
		res.URL = strings.TrimSuffix(opts.Domain, "/") + "/image/deploy-byoc"
		res.Body = containerBody(opts, tags)
	} else {
		res.URL = strings.TrimSuffix(opts.Domain, "/") + "/image/deploy"
		res.Body = imageBody(opts, ports, workspacePath, tags)
	}

	if opts.Token == "" {
		logger.Info("no token given, skipping deploy request")

		return res, nil
	}

	logger.Debug("deploy request", "url", res.URL, "body", redacted(res.Body))

	if err := s.SendJSON(ctx, http.MethodPost, res.URL, "", res.Body); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "Failed to trigger deployment", err)
	}

	res.Sent = true

	return res, nil
}

// ClusterImageTags returns the pushed image reference for every registry
// except the pull-only Docker Hub entry.
func ClusterImageTags(creds []config.RegistryCredential, app, sha string) []ClusterImageTag {
	tags := []ClusterImageTag{}

	for i := range creds {
		c := &creds[i]
		if c.IsChoreoDockerHub() {
			continue
		}

		tags = append(tags, ClusterImageTag{
			RegistryID:       c.RegistryID,
			Clusters:         c.Clusters,
			ImageNameWithTag: fmt.Sprintf("%s/%s:%s", c.Credentials.Registry, app, sha),
		})
	}

	return tags
}

func containerBody(opts *Opts, tags []ClusterImageTag) *ContainerBody {
	b := &ContainerBody{
		Image:                  opts.ImageName,
		Tag:                    opts.GitHash,
		GitHash:                opts.GitHash,
		GitOpsHash:             opts.GitOpsHash,
		AppID:                  opts.AppID,
		APIVersionID:           opts.Version,
		EnvironmentID:          opts.EnvID,
		RegistryToken:          opts.Token,
		ContainerID:            opts.ContainerID,
		ClusterImageTags:       tags,
		GitHashCommitTimestamp: opts.GitHashDate,
		IsAutoDeploy:           opts.IsAutoDeploy,
		RunID:                  opts.RunID,
	}

	if strings.TrimSpace(opts.OASFilePath) != "" {
		path := opts.OASFilePath
		b.APIDefinitionPath = &path
	}

	return b
}

func imageBody(opts *Opts, ports []ImagePort, workspacePath string, tags []ClusterImageTag) *ImageBody {
	return &ImageBody{
		Image:                  opts.ImageName,
		Tag:                    opts.GitHash,
		ImagePorts:             ports,
		GitHash:                opts.GitHash,
		GitOpsHash:             opts.GitOpsHash,
		OrganizationID:         opts.OrgID,
		ProjectID:              opts.ProjectID,
		AppID:                  opts.AppID,
		APIVersionID:           opts.Version,
		EnvironmentID:          opts.EnvID,
		RegistryToken:          opts.Token,
		WorkspaceYAMLPath:      workspacePath,
		ClusterImageTags:       tags,
		GitHashCommitTimestamp: opts.GitHashDate,
		IsAutoDeploy:           opts.IsAutoDeploy,
		RunID:                  opts.RunID,
	}
}

const redactedToken = "[REDACTED]"

// redacted returns a copy of body that is safe to log.
func redacted(body any) any {
	switch b := body.(type) {
	case *ImageBody:
		c := *b
		c.RegistryToken = redactedToken

		return &c
	case *ContainerBody:
		c := *b
		c.RegistryToken = redactedToken

		return &c
	default:
		return nil
	}
}

func checkRequired(opts *Opts) error {
	required := []struct {
		name  string
		value string
	}{
		{"domain", opts.Domain},
		{"org-id", opts.OrgID},
		{"project-id", opts.ProjectID},
		{"app-id", opts.AppID},
		{"env-id", opts.EnvID},
		{"version", opts.Version},
		{"image-name", opts.ImageName},
		{"git-hash", opts.GitHash},
		{"gitops-hash", opts.GitOpsHash},
		{"run-id", opts.RunID},
		{"choreo-app", opts.ChoreoApp},
	}

	for _, r := range required {
		if r.value == "" {
			return apperrors.Newf(apperrors.CodeUser, "Missing required parameter: %s", r.name)
		}
	}

	return nil
}

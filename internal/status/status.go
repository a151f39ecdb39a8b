// Package status reports pipeline progress back to the platform.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/choreo-dev/choreo-steps/internal/callback"
	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
)

// Sequence numbers accepted by the action run endpoint.
const (
	SequenceQueued     = 0
	SequenceInProgress = 10
	SequenceCompleted  = 20
)

// Action types accepted by the action run endpoint.
const (
	ActionBuildDeploy           = "BUILD_DEPLOY"
	ActionMediationCodeGen      = "MEDIATION_CODE_GENERATOR"
	ActionConfigurableGenerator = "CONFIGURABLE_GENERATOR"
)

// ActionTypes lists every accepted action type.
var ActionTypes = []string{ActionBuildDeploy, ActionMediationCodeGen, ActionConfigurableGenerator}

// Sender delivers a JSON payload. *callback.Client implements it.
type Sender interface {
	SendJSON(ctx context.Context, method, url, token string, payload any) error
}

var _ Sender = (*callback.Client)(nil)

// ConfigGenerationOpts identifies the configurable commit mapping to update.
type ConfigGenerationOpts struct {
	BaseURL         string
	ComponentID     string
	VersionID       string
	SourceCommit    string
	Status          string
	ConfigMappingID string
	// GitOpsCommit is sent as null when empty.
	GitOpsCommit string
	Logger       *slog.Logger
}

// ConfigGenerationPayload is the body of the commit mapping update.
type ConfigGenerationPayload struct {
	Status       string  `json:"status"`
	ID           string  `json:"id"`
	GitOpsCommit *string `json:"gitOpsCommit"`
}

// ConfigGenerationURL returns the commit mapping endpoint for opts.
func ConfigGenerationURL(opts *ConfigGenerationOpts) string {
	return fmt.Sprintf("%s/orgs/choreo/projects/project/components/%s/versions/%s/commits/%s/configurable-commit-mapping",
		strings.TrimSuffix(opts.BaseURL, "/"),
		url.PathEscape(opts.ComponentID),
		url.PathEscape(opts.VersionID),
		url.PathEscape(opts.SourceCommit))
}

// ConfigGeneration updates the configurable commit mapping status.
func ConfigGeneration(ctx context.Context, s Sender, opts *ConfigGenerationOpts) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := requireArgs(
		arg{"base-url", opts.BaseURL},
		arg{"component-id", opts.ComponentID},
		arg{"version-id", opts.VersionID},
		arg{"source-commit", opts.SourceCommit},
		arg{"status", opts.Status},
		arg{"config-mapping-id", opts.ConfigMappingID},
	); err != nil {
		return err
	}

	payload := ConfigGenerationPayload{Status: opts.Status, ID: opts.ConfigMappingID}
	if opts.GitOpsCommit != "" {
		commit := opts.GitOpsCommit
		payload.GitOpsCommit = &commit
	}

	endpoint := ConfigGenerationURL(opts)
	logger.Info("updating configurable generation status",
		"component", opts.ComponentID, "status", opts.Status)

	if err := s.SendJSON(ctx, http.MethodPut, endpoint, "", payload); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "Failed to update configurable generation status", err)
	}

	logger.Info("configurable generation status updated")

	return nil
}

// ActionRunOpts describes a workflow run status update.
type ActionRunOpts struct {
	BaseURL     string
	Token       string
	ComponentID string
	WorkflowID  string
	SequenceNo  int
	ActionType  string
	Logger      *slog.Logger
}

// ActionRunPayload is the body of the action run status update.
type ActionRunPayload struct {
	ComponentID  string `json:"componentId"`
	WorkflowID   string `json:"workflowId"`
	SequenceNo   int    `json:"sequenceNo"`
	GhActionType string `json:"ghActionType"`
}

// ActionRunURL returns the action run status endpoint under baseURL.
func ActionRunURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/component-utils/1.0.0/actions/runs/status"
}

// ActionRun reports the state of a workflow run.
func ActionRun(ctx context.Context, s Sender, opts *ActionRunOpts) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := requireArgs(
		arg{"base-url", opts.BaseURL},
		arg{"token", opts.Token},
		arg{"component-id", opts.ComponentID},
		arg{"workflow-id", opts.WorkflowID},
		arg{"action-type", opts.ActionType},
	); err != nil {
		return err
	}

	switch opts.SequenceNo {
	case SequenceQueued, SequenceInProgress, SequenceCompleted:
	default:
		return apperrors.Newf(apperrors.CodeUser,
			"sequence number must be one of %d, %d or %d, got %d",
			SequenceQueued, SequenceInProgress, SequenceCompleted, opts.SequenceNo)
	}

	if !slices.Contains(ActionTypes, opts.ActionType) {
		return apperrors.Newf(apperrors.CodeUser,
			"action type must be one of the following values: %s", strings.Join(ActionTypes, ", "))
	}

	payload := ActionRunPayload{
		ComponentID:  opts.ComponentID,
		WorkflowID:   opts.WorkflowID,
		SequenceNo:   opts.SequenceNo,
		GhActionType: opts.ActionType,
	}

	logger.Info("updating action run status",
		"workflow", opts.WorkflowID, "sequence", opts.SequenceNo, "type", opts.ActionType)

	if err := s.SendJSON(ctx, http.MethodPost, ActionRunURL(opts.BaseURL), opts.Token, payload); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "Failed to update action run status", err)
	}

	return nil
}

type arg struct {
	name  string
	value string
}

func requireArgs(args ...arg) error {
	for _, a := range args {
		if a.value == "" {
			return apperrors.Newf(apperrors.CodeUser, "The argument --%s is required.", a.name)
		}
	}

	return nil
}

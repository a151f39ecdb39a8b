package status_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choreo-dev/choreo-steps/internal/callback"
	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
	"github.com/choreo-dev/choreo-steps/internal/status"
)

type recordingSender struct {
	method  string
	url     string
	token   string
	payload any
	err     error
}

func (r *recordingSender) SendJSON(_ context.Context, method, url, token string, payload any) error {
	r.method, r.url, r.token, r.payload = method, url, token, payload

	return r.err
}

func configOpts() *status.ConfigGenerationOpts {
	return &status.ConfigGenerationOpts{
		BaseURL:         "https://api.example.com/",
		ComponentID:     "comp-1",
		VersionID:       "ver-1",
		SourceCommit:    "abc123",
		Status:          "SUCCESS",
		ConfigMappingID: "map-1",
	}
}

func TestConfigGeneration(t *testing.T) {
	t.Parallel()

	s := &recordingSender{}
	require.NoError(t, status.ConfigGeneration(t.Context(), s, configOpts()))

	assert.Equal(t, http.MethodPut, s.method)
	assert.Equal(t,
		"https://api.example.com/orgs/choreo/projects/project/components/comp-1/versions/ver-1/commits/abc123/configurable-commit-mapping",
		s.url)
	assert.Empty(t, s.token)

	p, ok := s.payload.(status.ConfigGenerationPayload)
	require.True(t, ok)
	assert.Equal(t, "SUCCESS", p.Status)
	assert.Equal(t, "map-1", p.ID)
	assert.Nil(t, p.GitOpsCommit)
}

func TestConfigGeneration_GitOpsCommitEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		commit string
		want   string
	}{
		{name: "absent", commit: "", want: `{"status":"SUCCESS","id":"map-1","gitOpsCommit":null}`},
		{name: "present", commit: "def456", want: `{"status":"SUCCESS","id":"map-1","gitOpsCommit":"def456"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var body json.RawMessage

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				w.WriteHeader(http.StatusOK)
			}))
			t.Cleanup(srv.Close)

			opts := configOpts()
			opts.BaseURL = srv.URL
			opts.GitOpsCommit = tt.commit

			require.NoError(t, status.ConfigGeneration(t.Context(), callback.New(time.Second, nil), opts))
			assert.JSONEq(t, tt.want, string(body))
		})
	}
}

func TestConfigGeneration_MissingArgument(t *testing.T) {
	t.Parallel()

	opts := configOpts()
	opts.ConfigMappingID = ""

	s := &recordingSender{}
	err := status.ConfigGeneration(t.Context(), s, opts)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUser, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "The argument --config-mapping-id is required.")
	assert.Empty(t, s.method)
}

func TestConfigGeneration_SendFailure(t *testing.T) {
	t.Parallel()

	s := &recordingSender{err: errors.New("connection refused")}
	err := status.ConfigGeneration(t.Context(), s, configOpts())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))
	assert.ErrorContains(t, err, "connection refused")
}

func TestActionRun(t *testing.T) {
	t.Parallel()

	s := &recordingSender{}
	err := status.ActionRun(t.Context(), s, &status.ActionRunOpts{
		BaseURL:     "https://api.example.com",
		Token:       "secret",
		ComponentID: "comp-1",
		WorkflowID:  "wf-9",
		SequenceNo:  status.SequenceInProgress,
		ActionType:  status.ActionBuildDeploy,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, s.method)
	assert.Equal(t, "https://api.example.com/component-utils/1.0.0/actions/runs/status", s.url)
	assert.Equal(t, "secret", s.token)
	assert.Equal(t, status.ActionRunPayload{
		ComponentID:  "comp-1",
		WorkflowID:   "wf-9",
		SequenceNo:   10,
		GhActionType: "BUILD_DEPLOY",
	}, s.payload)
}

func TestActionRun_Invalid(t *testing.T) {
	t.Parallel()

	base := status.ActionRunOpts{
		BaseURL:     "https://api.example.com",
		Token:       "secret",
		ComponentID: "comp-1",
		WorkflowID:  "wf-9",
		ActionType:  status.ActionConfigurableGenerator,
	}

	tests := []struct {
		name    string
		mutate  func(o *status.ActionRunOpts)
		wantErr string
	}{
		{
			name:    "bad sequence",
			mutate:  func(o *status.ActionRunOpts) { o.SequenceNo = 5 },
			wantErr: "sequence number must be one of 0, 10 or 20, got 5",
		},
		{
			name:    "bad action type",
			mutate:  func(o *status.ActionRunOpts) { o.ActionType = "DEPLOY" },
			wantErr: "action type must be one of the following values",
		},
		{
			name:    "missing token",
			mutate:  func(o *status.ActionRunOpts) { o.Token = "" },
			wantErr: "The argument --token is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := base
			tt.mutate(&opts)

			s := &recordingSender{}
			err := status.ActionRun(t.Context(), s, &opts)
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeUser, apperrors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, s.url)
		})
	}
}

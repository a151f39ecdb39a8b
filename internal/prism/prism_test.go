package prism_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choreo-dev/choreo-steps/internal/descriptor"
	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
	"github.com/choreo-dev/choreo-steps/internal/prism"
)

const componentYAML = `schemaVersion: 1.1
endpoints:
  - name: greeter-api
    service:
      basePath: /greeter
      port: 9090
    type: REST
    schemaFilePath: openapi.yaml
  - name: admin-api
    service:
      basePath: /admin api
      port: 9091
    type: REST
    schemaFilePath: schemas/admin.yaml
`

const wantDockerfile = `FROM registry.example.com/prism:5
RUN chmod +x /usr/local/bin/prism
COPY --from=choreocontrolplane.azurecr.io/golang:1.22.4-alpine /usr/local/go /usr/local/go
ENV PATH="/usr/local/go/bin:${PATH}"
COPY openapi.yaml /choreo/openapi.yaml
COPY schemas/admin.yaml /choreo/schemas/admin.yaml
COPY prism-traffic-router/main.go /choreo/prism-traffic-router/main.go
COPY prism-traffic-router/go.mod /choreo/prism-traffic-router/go.mod
RUN go build -o /choreo/prism-traffic-router/main /choreo/prism-traffic-router/main.go
RUN chmod +x /choreo/prism-traffic-router/main
COPY entrypoint.sh /choreo/entrypoint.sh
RUN chmod +x /choreo/entrypoint.sh
ENTRYPOINT ["/choreo/entrypoint.sh"]
`

const wantEntrypoint = `#!/bin/sh
cd /choreo/prism-traffic-router
prism mock -m -p 4015 -h localhost -v warn /choreo/openapi.yaml &
prism mock -m -p 4016 -h localhost -v warn /choreo/schemas/admin.yaml &
go run ./main.go 9090 /greeter /choreo/openapi.yaml 9091 '/admin api' /choreo/schemas/admin.yaml &
wait
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupRepo(t *testing.T) (repo, router string) {
	t.Helper()

	repo = t.TempDir()
	writeFile(t, filepath.Join(repo, ".choreo", "component.yaml"), componentYAML)
	writeFile(t, filepath.Join(repo, "openapi.yaml"), "openapi: 3.0.0\n")
	writeFile(t, filepath.Join(repo, "schemas", "admin.yaml"), "openapi: 3.0.1\n")

	router = t.TempDir()
	writeFile(t, filepath.Join(router, "main.go"), "package main\n")
	writeFile(t, filepath.Join(router, "go.mod"), "module router\n")

	return repo, router
}

func TestRun(t *testing.T) {
	t.Parallel()

	repo, router := setupRepo(t)
	out := filepath.Join(t.TempDir(), "temp")

	res, err := prism.Run(&prism.Opts{
		RepoPath:   repo,
		PrismImage: "registry.example.com/prism:5",
		RouterDir:  router,
		Output:     out,
	})
	require.NoError(t, err)
	require.Len(t, res.Mocks, 2)

	dockerfile, err := os.ReadFile(filepath.Join(out, "Dockerfile"))
	require.NoError(t, err)
	assert.Equal(t, wantDockerfile, string(dockerfile))

	entrypoint, err := os.ReadFile(filepath.Join(out, "entrypoint.sh"))
	require.NoError(t, err)
	assert.Equal(t, wantEntrypoint, string(entrypoint))

	info, err := os.Stat(filepath.Join(out, "entrypoint.sh"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o100)

	for _, rel := range []string{"openapi.yaml", "schemas/admin.yaml", "prism-traffic-router/main.go", "prism-traffic-router/go.mod"} {
		assert.FileExists(t, filepath.Join(out, filepath.FromSlash(rel)))
	}

	schema, err := os.ReadFile(filepath.Join(out, "schemas", "admin.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "openapi: 3.0.1\n", string(schema))
}

func TestRun_EndpointsYAML(t *testing.T) {
	t.Parallel()

	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, ".choreo", "endpoints.yaml"), `version: 0.1
endpoints:
  - name: api
    port: 8080
    type: REST
    context: /api
    schemaFilePath: api.yaml
`)
	writeFile(t, filepath.Join(repo, "api.yaml"), "openapi: 3.0.0\n")

	out := t.TempDir()

	res, err := prism.Run(&prism.Opts{RepoPath: repo, PrismImage: "prism", Output: out})
	require.NoError(t, err)
	assert.Equal(t, []prism.Mock{{Port: 8080, BasePath: "/api", Schema: "api.yaml", MockPort: 8080}}, res.Mocks)
	assert.NoDirExists(t, filepath.Join(out, prism.RouterDirName))

	// Without router sources the build context must not reference them.
	dockerfile, err := os.ReadFile(filepath.Join(out, "Dockerfile"))
	require.NoError(t, err)
	assert.Equal(t, `FROM prism
RUN chmod +x /usr/local/bin/prism
COPY api.yaml /choreo/api.yaml
COPY entrypoint.sh /choreo/entrypoint.sh
RUN chmod +x /choreo/entrypoint.sh
ENTRYPOINT ["/choreo/entrypoint.sh"]
`, string(dockerfile))

	entrypoint, err := os.ReadFile(filepath.Join(out, "entrypoint.sh"))
	require.NoError(t, err)
	assert.Equal(t, `#!/bin/sh
prism mock -m -p 8080 -h 0.0.0.0 -v warn /choreo/api.yaml &
wait
`, string(entrypoint))
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	repo, _ := setupRepo(t)

	tests := []struct {
		name     string
		opts     prism.Opts
		wantCode apperrors.Code
		wantMsg  string
	}{
		{
			name:     "missing repo path",
			opts:     prism.Opts{PrismImage: "prism"},
			wantCode: apperrors.CodeUser,
			wantMsg:  "USER_REPO_PATH",
		},
		{
			name:     "missing image",
			opts:     prism.Opts{RepoPath: repo},
			wantCode: apperrors.CodeUser,
			wantMsg:  "CHOREO_MANAGED_PRISM_IMAGE",
		},
		{
			name:     "no descriptor",
			opts:     prism.Opts{RepoPath: t.TempDir(), PrismImage: "prism"},
			wantCode: apperrors.CodeUser,
			wantMsg:  "No valid configuration file found",
		},
		{
			name:     "missing router",
			opts:     prism.Opts{RepoPath: repo, PrismImage: "prism", RouterDir: filepath.Join(t.TempDir(), "none")},
			wantCode: apperrors.CodeInternal,
			wantMsg:  "Failed to copy traffic router",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := tt.opts
			opts.Output = t.TempDir()

			_, err := prism.Run(&opts)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestMocks(t *testing.T) {
	t.Parallel()

	mocks, err := prism.Mocks([]descriptor.ServedEndpoint{
		{Port: 9090, BasePath: "/a", SchemaFilePath: "./a.yaml"},
		{Port: 9091, BasePath: "/tcp"},
		{Port: 9092, BasePath: "/b", SchemaFilePath: "docs/../b.yaml"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []prism.Mock{
		{Port: 9090, BasePath: "/a", Schema: "a.yaml", MockPort: 4015},
		{Port: 9092, BasePath: "/b", Schema: "b.yaml", MockPort: 4016},
	}, mocks)
}

func TestMocks_OutsideRepository(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"../secret.yaml", "/etc/passwd", "a/../../b.yaml"} {
		_, err := prism.Mocks([]descriptor.ServedEndpoint{{Port: 9090, SchemaFilePath: p}}, nil)
		require.Error(t, err, p)
		assert.Equal(t, apperrors.CodeUser, apperrors.CodeOf(err))
	}
}

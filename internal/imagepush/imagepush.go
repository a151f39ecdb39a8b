// Package imagepush logs in to the configured container registries and
// pushes the built image to each of them.
package imagepush

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/distribution/reference"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/choreo-dev/choreo-steps/internal/config"
	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
)

// Run types.
const (
	TypeLoginAndPush = "login_and_push"
	TypeLogin        = "login"
)

// DefaultImageName is the local name the build gives the image.
const DefaultImageName = "choreo/app-image:latest"

// Opts configures a login or push run.
type Opts struct {
	// Type is login_and_push (default) or login.
	Type      string
	ChoreoApp string
	SHA       string
	// ImageName selects the image inside ImageLayout.
	ImageName string
	// ImageLayout is the OCI image layout directory the build wrote.
	ImageLayout string
	// DockerConfigDir receives config.json. Defaults to a fresh directory
	// under RunnerTemp.
	DockerConfigDir string
	RunnerTemp      string
	CredentialsPath string
	Logger          *slog.Logger

	// ECR creates ECR API clients. Defaults to NewECRClient.
	ECR ECRFactory
	// Target opens push destinations. Defaults to RemoteTarget.
	Target TargetFunc
}

// Result lists what a run did.
type Result struct {
	DockerConfigDir string
	LoggedIn        []string
	Pushed          []string
}

type runner struct {
	opts   *Opts
	logger *slog.Logger
	store  credentials.Store
	result *Result

	source *ocispec.Descriptor
}

// Run logs in to every applicable registry and, for login_and_push, pushes
// the image tagged with the commit SHA.
func Run(ctx context.Context, opts *Opts) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := applyDefaults(opts); err != nil {
		return nil, err
	}

	creds, err := config.LoadRegistryCredentials(opts.CredentialsPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "Failed to load registry credentials", err)
	}

	if err := os.MkdirAll(opts.DockerConfigDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating docker config dir %s: %w", opts.DockerConfigDir, err)
	}

	store, err := credentials.NewStore(filepath.Join(opts.DockerConfigDir, "config.json"),
		credentials.StoreOptions{AllowPlaintextPut: true})
	if err != nil {
		return nil, fmt.Errorf("opening docker config: %w", err)
	}

	r := &runner{
		opts:   opts,
		logger: logger,
		store:  store,
		result: &Result{DockerConfigDir: opts.DockerConfigDir},
	}

	for i := range creds {
		c := &creds[i]

		if opts.Type == TypeLogin && c.ManagedByPlatform() && !c.IsChoreoDockerHub() {
			logger.Debug("skipping platform managed registry", "registry_id", c.RegistryID)

			continue
		}

		if err := r.handle(ctx, c); err != nil {
			return nil, err
		}
	}

	return r.result, nil
}

func applyDefaults(opts *Opts) error {
	if opts.Type == "" {
		opts.Type = TypeLoginAndPush
	}

	if opts.Type != TypeLogin && opts.Type != TypeLoginAndPush {
		return apperrors.Newf(apperrors.CodeUser, "Unknown type: %s", opts.Type)
	}

	if opts.ChoreoApp == "" || opts.SHA == "" {
		return apperrors.New(apperrors.CodeUser, "Missing required parameters: --choreo-app and --sha")
	}

	if opts.Type == TypeLoginAndPush && opts.ImageLayout == "" {
		return apperrors.New(apperrors.CodeUser, "Missing required parameter: --image-layout")
	}

	if opts.ImageName == "" {
		opts.ImageName = DefaultImageName
	}

	if opts.DockerConfigDir == "" {
		opts.DockerConfigDir = os.Getenv("DOCKER_CONFIG")
	}

	if opts.DockerConfigDir == "" {
		base := opts.RunnerTemp
		if base == "" {
			base = os.TempDir()
		}

		opts.DockerConfigDir = filepath.Join(base, "docker_login_"+strconv.FormatInt(time.Now().UnixMilli(), 10))
	}

	if opts.ECR == nil {
		opts.ECR = NewECRClient
	}

	if opts.Target == nil {
		opts.Target = RemoteTarget
	}

	return nil
}

func (r *runner) handle(ctx context.Context, c *config.RegistryCredential) error {
	l, err := r.login(ctx, c)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal,
			fmt.Sprintf("Failed to log in to %s", c.Credentials.Registry), err)
	}

	r.result.LoggedIn = append(r.result.LoggedIn, l.server)
	r.logger.Info("logged in", "registry_id", c.RegistryID, "server", l.server)

	if r.opts.Type != TypeLoginAndPush || c.IsChoreoDockerHub() {
		return nil
	}

	ref, err := pushReference(c, l, r.opts.ChoreoApp, r.opts.SHA)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "Failed to build image reference", err)
	}

	if err := r.push(ctx, ref, l); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal,
			fmt.Sprintf("Failed to push image to %s", c.Credentials.Registry), err)
	}

	r.result.Pushed = append(r.result.Pushed, ref.String())
	r.logger.Info("pushed image", "image", ref.String())

	if err := r.store.Delete(ctx, l.server); err != nil {
		r.logger.Warn("logout failed", "server", l.server, "error", err)
	}

	return nil
}

// pushReference returns <registry>/<app>:<sha>, or the Artifact Registry
// path for GCP entries.
func pushReference(c *config.RegistryCredential, l *login, app, sha string) (reference.NamedTagged, error) {
	name := c.Credentials.Registry + "/" + app
	if c.Type == config.RegistryGCP {
		name = fmt.Sprintf("%s-docker.pkg.dev/%s/%s/%s", c.Credentials.Region, l.projectID, c.Credentials.Repository, app)
	}

	named, err := reference.ParseNormalizedNamed(name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	tagged, err := reference.WithTag(named, sha)
	if err != nil {
		return nil, fmt.Errorf("tagging %s with %s: %w", name, sha, err)
	}

	return tagged, nil
}

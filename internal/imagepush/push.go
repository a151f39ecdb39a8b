package imagepush

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/distribution/reference"
	"github.com/hashicorp/go-cleanhttp"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
)

// dockerHubRegistry serves the Docker Hub registry API.
const dockerHubRegistry = "registry-1.docker.io"

// TargetFunc opens the repository ref is pushed to.
type TargetFunc func(ref reference.Named, cred auth.Credential) (oras.Target, error)

// RemoteTarget opens ref's repository on its registry with static
// credentials.
func RemoteTarget(ref reference.Named, cred auth.Credential) (oras.Target, error) {
	host := reference.Domain(ref)
	if host == "docker.io" {
		host = dockerHubRegistry
	}

	repo, err := remote.NewRepository(host + "/" + reference.Path(ref))
	if err != nil {
		return nil, fmt.Errorf("opening repository %s: %w", ref.Name(), err)
	}

	repo.Client = &auth.Client{
		Client:     cleanhttp.DefaultPooledClient(),
		Cache:      auth.NewCache(),
		Credential: auth.StaticCredential(host, cred),
	}

	return repo, nil
}

// ResolveSource finds the manifest for imageName in the OCI layout at dir.
// The ref name annotation may hold the full name or only the tag.
func ResolveSource(dir, imageName string) (ocispec.Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(filepath.Clean(dir), ocispec.ImageIndexFile))
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("reading image layout %s: %w", dir, err)
	}

	var index ocispec.Index
	if err := json.Unmarshal(data, &index); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("parsing image index in %s: %w", dir, err)
	}

	candidates, err := refNames(imageName)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	for _, m := range index.Manifests {
		name := m.Annotations[ocispec.AnnotationRefName]
		for _, c := range candidates {
			if name == c {
				return m, nil
			}
		}
	}

	return ocispec.Descriptor{}, fmt.Errorf("image %s not found in layout %s", imageName, dir)
}

func refNames(imageName string) ([]string, error) {
	named, err := reference.ParseNormalizedNamed(imageName)
	if err != nil {
		return nil, fmt.Errorf("parsing image name %s: %w", imageName, err)
	}

	tagged, ok := reference.TagNameOnly(named).(reference.NamedTagged)
	if !ok {
		return []string{imageName}, nil
	}

	return []string{imageName, reference.FamiliarString(tagged), tagged.String(), tagged.Tag()}, nil
}

func (r *runner) push(ctx context.Context, ref reference.NamedTagged, l *login) error {
	if r.source == nil {
		desc, err := ResolveSource(r.opts.ImageLayout, r.opts.ImageName)
		if err != nil {
			return err
		}

		r.source = &desc
	}

	src, err := oci.NewFromFS(ctx, os.DirFS(r.opts.ImageLayout))
	if err != nil {
		return fmt.Errorf("opening image layout %s: %w", r.opts.ImageLayout, err)
	}

	dst, err := r.opts.Target(ref, l.credential)
	if err != nil {
		return err
	}

	root := *r.source
	root.Annotations = nil

	if err := oras.CopyGraph(ctx, src, dst, root, oras.DefaultCopyGraphOptions); err != nil {
		return fmt.Errorf("copying %s to %s: %w", r.opts.ImageName, ref.String(), err)
	}

	if err := dst.Tag(ctx, root, ref.Tag()); err != nil {
		return fmt.Errorf("tagging %s: %w", ref.String(), err)
	}

	r.logger.Debug("copied manifest", "digest", root.Digest.String(), "media_type", root.MediaType)

	return nil
}

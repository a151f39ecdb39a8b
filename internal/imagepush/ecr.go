package imagepush

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/hashicorp/go-cleanhttp"
	"oras.land/oras-go/v2/registry/remote/auth"

	"github.com/choreo-dev/choreo-steps/internal/config"
)

// ECRAPI is the subset of the ECR client used for login.
type ECRAPI interface {
	GetAuthorizationToken(ctx context.Context, in *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
	DescribeRepositories(ctx context.Context, in *ecr.DescribeRepositoriesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error)
	CreateRepository(ctx context.Context, in *ecr.CreateRepositoryInput, optFns ...func(*ecr.Options)) (*ecr.CreateRepositoryOutput, error)
}

// ECRFactory returns a client for region using static access keys.
type ECRFactory func(region, accessKeyID, secretAccessKey string) ECRAPI

// NewECRClient returns an ECR client authenticated with static keys.
func NewECRClient(region, accessKeyID, secretAccessKey string) ECRAPI {
	return ecr.New(ecr.Options{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		HTTPClient:  cleanhttp.DefaultPooledClient(),
	})
}

// ecrLogin exchanges the entry's access keys for a registry token and makes
// sure the app repository exists.
func (r *runner) ecrLogin(ctx context.Context, c *config.RegistryCredential) (*login, error) {
	client := r.opts.ECR(c.Credentials.Region, c.Credentials.RegistryUser, c.Credentials.RegistryPassword)

	out, err := client.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return nil, fmt.Errorf("getting ECR authorization token: %w", err)
	}

	if len(out.AuthorizationData) == 0 || out.AuthorizationData[0].AuthorizationToken == nil {
		return nil, errors.New("ECR returned no authorization data")
	}

	user, password, err := decodeECRToken(aws.ToString(out.AuthorizationData[0].AuthorizationToken))
	if err != nil {
		return nil, err
	}

	if err := r.ensureRepository(ctx, client); err != nil {
		return nil, err
	}

	return &login{
		server: c.Credentials.Registry,
		credential: auth.Credential{
			Username: user,
			Password: password,
		},
	}, nil
}

func decodeECRToken(token string) (string, string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("decoding ECR authorization token: %w", err)
	}

	user, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", "", errors.New("malformed ECR authorization token")
	}

	return user, password, nil
}

func (r *runner) ensureRepository(ctx context.Context, client ECRAPI) error {
	name := r.opts.ChoreoApp

	_, err := client.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
		RepositoryNames: []string{name},
	})
	if err == nil {
		return nil
	}

	var notFound *types.RepositoryNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describing ECR repository %s: %w", name, err)
	}

	r.logger.Info("creating ECR repository", "repository", name)

	_, err = client.CreateRepository(ctx, &ecr.CreateRepositoryInput{
		RepositoryName: aws.String(name),
		ImageScanningConfiguration: &types.ImageScanningConfiguration{
			ScanOnPush: true,
		},
	})
	if err != nil {
		return fmt.Errorf("creating ECR repository %s: %w", name, err)
	}

	return nil
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type SpacesConfig struct {
	Key      string `toml:"key"`
	Secret   string `toml:"secret"`
	Region   string `toml:"region"`
	Bucket   string `toml:"bucket"`
	Object   string `toml:"object"`
	Endpoint string `toml:"endpoint"`
}

func (c SpacesConfig) Enabled() bool {
	return c.Bucket != "" && c.Object != ""
}

// ObjectGetter is the part of *s3.Client the source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// SpacesSource reads the key list from one object in an S3 compatible bucket,
// in the same one-key-per-line format as FileSource.
type SpacesSource struct {
	client ObjectGetter
	bucket string
	object string
}

func NewSpacesSource(ctx context.Context, cfg SpacesConfig) (*SpacesSource, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.digitaloceanspaces.com", cfg.Region)
	}
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint}, nil
	})

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, "")),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load spaces config: %w", err)
	}

	return NewSpacesSourceWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Object), nil
}

func NewSpacesSourceWithClient(client ObjectGetter, bucket, object string) *SpacesSource {
	return &SpacesSource{client: client, bucket: bucket, object: object}
}

func (s *SpacesSource) Name() string {
	return "spaces:" + s.bucket + "/" + s.object
}

func (s *SpacesSource) Candidates(ctx context.Context) ([]string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.object),
	})
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		slog.Warn("Key object not found, nothing to ingest",
			slog.String("type", "sys"),
			slog.String("source", s.Name()))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch key object: %w", err)
	}
	defer out.Body.Close()

	return readLines(ctx, out.Body)
}

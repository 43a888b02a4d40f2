package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage implements Storage against an S3 bucket.
type S3Storage struct {
	client        *s3.Client
	bucket        string
	region        string
	publicBaseURL string
}

// NewS3Storage builds an S3-backed store using the ambient AWS credential
// chain. publicBaseURL overrides the default virtual-hosted URL when outputs
// are served through a CDN; pass "" to use the bucket URL.
func NewS3Storage(ctx context.Context, bucket, region, publicBaseURL string) (*S3Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Storage{
		client:        s3.NewFromConfig(cfg),
		bucket:        bucket,
		region:        region,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// GetObject opens a streaming read of the object at key.
func (s *S3Storage) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	return resp.Body, nil
}

// PutObject writes body to key with the given content type and cache policy.
func (s *S3Storage) PutObject(ctx context.Context, key string, body io.Reader, contentType, cacheControl string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the client-facing URL for a key.
func (s *S3Storage) PublicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/er-ebrahimi/architecture-ai/pkg/config"
)

// ImageStorageImpl provides a concrete implementation for the ImageStorage
// interface backed by an S3-compatible object store (AWS S3 or minio).
type ImageStorageImpl struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewImageStorage creates an S3 client from config. A non-empty Endpoint
// targets a custom (e.g. minio) deployment with path-style addressing.
func NewImageStorage(ctx context.Context, cfg config.S3Config) (*ImageStorageImpl, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBaseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.BucketName)
	}

	return &ImageStorageImpl{
		client:        client,
		bucket:        cfg.BucketName,
		publicBaseURL: publicBaseURL,
	}, nil
}

// Save stores image bytes under the given filename.
func (s *ImageStorageImpl) Save(ctx context.Context, filename string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(filename),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", filename, err)
	}
	slog.Debug("Image uploaded to object storage", "filename", filename, "size", len(data))
	return nil
}

// Delete removes a stored image.
func (s *ImageStorageImpl) Delete(ctx context.Context, filename string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(filename),
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", filename, err)
	}
	return nil
}

// URL returns the public URL for a stored image.
func (s *ImageStorageImpl) URL(filename string) string {
	return s.publicBaseURL + "/" + filename
}

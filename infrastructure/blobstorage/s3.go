package blobstorage

import (
	"context"
	"fmt"
	"time"

	cfg "crosspost/infrastructure/configuration"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage presigns download URLs for stored video objects so platforms can
// pull them without credentials.
type S3Storage struct {
	presigner *s3.PresignClient
	bucket    string
}

func NewS3Storage(ctx context.Context, storage cfg.Storage) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(storage.Region),
	}
	if storage.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(storage.AccessKey, storage.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(storage.Endpoint)
			o.UsePathStyle = true // MinIO and friends
		}
	})
	return &S3Storage{
		presigner: s3.NewPresignClient(client),
		bucket:    storage.Bucket,
	}, nil
}

func (s *S3Storage) GetSignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

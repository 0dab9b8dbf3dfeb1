package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"time"

	"medical-records/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// R2Store talks to a Cloudflare R2 bucket over the S3 API.
type R2Store struct {
	client *minio.Client
	bucket string
}

func NewR2Store(cfg config.R2Config) (*R2Store, error) {
	if !cfg.Enabled() {
		return nil, ErrStoreUnavailable
	}

	client, err := minio.New(cfg.EndpointHost(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: true,
		Region: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("create r2 client: %w", err)
	}

	return &R2Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *R2Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *R2Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil
	}
	return err
}

func (s *R2Store) PresignGet(ctx context.Context, key, downloadName string, expiry time.Duration) (string, error) {
	params := url.Values{}
	if downloadName != "" {
		params.Set("response-content-disposition",
			mime.FormatMediaType("attachment", map[string]string{"filename": downloadName}))
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Package minio implements store.Store with the MinIO client.
package minio

import (
	"context"
	"fmt"
	"net/url"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/slmtnm/s4fs/internal/config"
	"github.com/slmtnm/s4fs/internal/store"
)

type Store struct {
	client *minio.Client
	bucket string
}

// New creates a MinIO client from an .s3cfg profile. host_base may carry a
// scheme, which then overrides use_https.
func New(cfg *config.S3Config, bucket string) (*Store, error) {
	endpoint, secure := endpointOf(cfg)

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	cli.SetAppInfo("s4", "1.0")

	return &Store{client: cli, bucket: bucket}, nil
}

func endpointOf(cfg *config.S3Config) (string, bool) {
	endpoint, secure := cfg.HostBase, cfg.UseHTTPS
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}
	return endpoint, secure
}

func (s *Store) List(ctx context.Context, prefix string) ([]store.Object, error) {
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}

	var objects []store.Object
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		objects = append(objects, store.Object{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return objects, nil
}

func (s *Store) Put(ctx context.Context, localPath, key string) error {
	if _, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key, localPath string) error {
	if err := s.client.FGetObject(ctx, s.bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	src := minio.CopySrcOptions{Bucket: s.bucket, Object: srcKey}
	dst := minio.CopyDestOptions{Bucket: s.bucket, Object: dstKey}
	if _, err := s.client.CopyObject(ctx, dst, src); err != nil {
		return fmt.Errorf("failed to copy object %s to %s: %w", srcKey, dstKey, err)
	}
	return nil
}

func (s *Store) Check(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to access bucket '%s': %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket '%s' does not exist", s.bucket)
	}
	return nil
}

func (s *Store) Bucket() string {
	return s.bucket
}

var _ store.Store = (*Store)(nil)

// Package s3 implements store.Store on top of the AWS SDK, for AWS and any
// S3-compatible service configured through .s3cfg.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/slmtnm/s4fs/internal/config"
	"github.com/slmtnm/s4fs/internal/store"
)

// Store wraps the AWS S3 client for one bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// New creates a client from an .s3cfg profile.
func New(ctx context.Context, cfg *config.S3Config, bucket string) (*Store, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.GetEndpointURL())
		o.UsePathStyle = true // Required for MinIO and some S3-compatible services
	})

	return &Store{client: client, bucket: bucket}, nil
}

// List returns every object under prefix, following continuation tokens.
func (s *Store) List(ctx context.Context, prefix string) ([]store.Object, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var objects []store.Object
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		objects = append(objects, toObjects(page.Contents)...)
	}
	return objects, nil
}

func toObjects(contents []types.Object) []store.Object {
	objects := make([]store.Object, 0, len(contents))
	for _, obj := range contents {
		o := store.Object{Key: aws.ToString(obj.Key)}
		if obj.Size != nil {
			o.Size = *obj.Size
		}
		if obj.LastModified != nil {
			o.LastModified = *obj.LastModified
		}
		objects = append(objects, o)
	}
	return objects
}

// Put uploads the file at localPath under key.
func (s *Store) Put(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file '%s': %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file '%s': %w", localPath, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// Get streams key into localPath. A partially written file is removed.
func (s *Store) Get(ctx context.Context, key, localPath string) error {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get object: %w", err)
	}
	defer result.Body.Close()

	return writeFile(localPath, result.Body)
}

func writeFile(localPath string, body io.Reader) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create file '%s': %w", localPath, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(localPath)
		return fmt.Errorf("failed to read object data: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(localPath)
		return fmt.Errorf("failed to write file '%s': %w", localPath, err)
	}
	return nil
}

// Delete deletes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Copy copies srcKey to dstKey within the bucket.
func (s *Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(copySource(s.bucket, srcKey)),
	})
	if err != nil {
		return fmt.Errorf("failed to copy object: %w", err)
	}
	return nil
}

// copySource builds the "bucket/key" header value with each key segment
// URL-escaped.
func copySource(bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return bucket + "/" + strings.Join(parts, "/")
}

// Check checks if the bucket exists and is accessible.
func (s *Store) Check(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return bucketError(s.bucket, err)
	}
	return nil
}

func bucketError(bucket string, err error) error {
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchBucket) ||
		strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchBucket") {
		return fmt.Errorf("bucket '%s' does not exist", bucket)
	}
	return fmt.Errorf("failed to access bucket '%s': %w", bucket, err)
}

func (s *Store) Bucket() string {
	return s.bucket
}

var _ store.Store = (*Store)(nil)

package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 writes artifacts as objects. Directories are key prefixes marked by a
// zero-byte "<dir>/" object.
type S3 struct {
	client S3API
	bucket string
	prefix string
}

// NewS3 creates an S3 store on an existing client.
func NewS3(client S3API, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// NewS3FromConfig loads the default AWS configuration for the region and
// creates the store.
func NewS3FromConfig(ctx context.Context, cfg S3Config) (*S3, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return NewS3(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

func (s *S3) key(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(p)), "/")
	if s.prefix == "" {
		return p
	}
	return s.prefix + "/" + p
}

// CreateDir implements Store.
func (s *S3) CreateDir(ctx context.Context, dir string) error {
	prefix := s.key(dir) + "/"
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, prefix, err)
	}
	if len(out.Contents) > 0 {
		return fmt.Errorf("%w: s3://%s/%s", ErrExists, s.bucket, prefix)
	}
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(prefix),
		Body:   bytes.NewReader(nil),
	}); err != nil {
		return fmt.Errorf("failed to create s3://%s/%s: %w", s.bucket, prefix, err)
	}
	return nil
}

// WriteFile implements Store.
func (s *S3) WriteFile(ctx context.Context, p string, data []byte) error {
	contentType := mime.TypeByExtension(path.Ext(p))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := s.key(p)
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}); err != nil {
		return fmt.Errorf("failed to write s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// RemoveDir implements Store. Only the directory marker is deleted.
func (s *S3) RemoveDir(ctx context.Context, dir string) error {
	prefix := s.key(dir) + "/"
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(2),
	})
	if err != nil {
		return fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, prefix, err)
	}
	for _, obj := range out.Contents {
		if aws.ToString(obj.Key) != prefix {
			return fmt.Errorf("%w: s3://%s/%s", ErrNotEmpty, s.bucket, prefix)
		}
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(prefix),
	}); err != nil {
		return fmt.Errorf("failed to remove s3://%s/%s: %w", s.bucket, prefix, err)
	}
	return nil
}

// Location implements Store.
func (s *S3) Location(p string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key(p))
}

// Package s3 keeps blobs in an S3 compatible bucket (AWS, MinIO, R2).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ebrain/board/backend/internal/service"
	internal_errors "github.com/ebrain/board/shared/errors"
	"github.com/ebrain/board/shared/logger"
)

// api is the part of *s3.Client the store uses.
type api interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// Prefix is prepended to every key, e.g. "board/".
	Prefix         string
	ForcePathStyle bool
}

type Storage struct {
	client api
	bucket string
	prefix string
}

var _ service.BlobWalker = (*Storage)(nil)

func New(cfg Config) *Storage {
	client := s3.New(s3.Options{}, func(o *s3.Options) {
		o.Region = cfg.Region
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	logger.Log.Info("s3 blob storage initialized", "bucket", cfg.Bucket, "endpoint", cfg.Endpoint)
	return newWithClient(client, cfg.Bucket, cfg.Prefix)
}

func newWithClient(client api, bucket, prefix string) *Storage {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Storage{client: client, bucket: bucket, prefix: prefix}
}

func (s *Storage) key(blobPath string) string {
	return s.prefix + strings.TrimPrefix(path.Clean("/"+blobPath), "/")
}

// Save buffers r so the request carries a known length and a seekable body for signing.
func (s *Storage) Save(ctx context.Context, dir, name string, r io.Reader) (int64, error) {
	if name == "" || strings.Contains(name, "/") {
		return 0, fmt.Errorf("invalid blob name %q", name)
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, fmt.Errorf("read blob data: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(path.Join(dir, name))),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(n),
	})
	if err != nil {
		return 0, fmt.Errorf("s3 upload failed: %w", err)
	}
	return n, nil
}

func (s *Storage) Read(ctx context.Context, blobPath string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(blobPath)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, internal_errors.NotFound(internal_errors.CodeFileNotFound, "file not found")
		}
		return nil, fmt.Errorf("s3 download failed: %w", err)
	}
	return out.Body, nil
}

// Delete is idempotent: S3 reports success for missing keys.
func (s *Storage) Delete(ctx context.Context, blobPath string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(blobPath)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// Walk lists every key under the prefix, relative to it.
func (s *Storage) Walk(ctx context.Context) ([]string, error) {
	var paths []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list failed: %w", err)
		}
		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			paths = append(paths, key)
		}
	}
	return paths, nil
}

func (s *Storage) ModTime(ctx context.Context, blobPath string) (time.Time, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(blobPath)),
	})
	if err != nil {
		if isNotFound(err) {
			return time.Time{}, internal_errors.NotFound(internal_errors.CodeFileNotFound, "file not found")
		}
		return time.Time{}, fmt.Errorf("s3 head failed: %w", err)
	}
	return aws.ToTime(out.LastModified), nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"

	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage implements IStorage on an S3-compatible bucket. Every key is
// placed under Prefix so several stores can share one bucket.
type MinioStorage struct {
	client *minio.Client
	bucket string
	prefix string
}

// -----------------------------------------------------------------------------

// NewMinioStorage connects and makes sure the bucket exists.
func NewMinioStorage(ctx context.Context, cfg models.MMinioConfig, prefix string) (*MinioStorage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, helpers.NewConfigurationError("minio endpoint and bucket are required", nil)
	}

	// Accept both "host:9000" and "https://host:9000"
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, helpers.NewStorageError("create minio client", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, helpers.NewStorageError("check bucket "+cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, helpers.NewStorageError("create bucket "+cfg.Bucket, err)
		}
	}

	return &MinioStorage{client: client, bucket: cfg.Bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// -----------------------------------------------------------------------------

func (s *MinioStorage) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// -----------------------------------------------------------------------------

func (s *MinioStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, false, nil
		}
		return nil, false, helpers.NewStorageError("get "+key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, false, nil
		}
		return nil, false, helpers.NewStorageError("read "+key, err)
	}
	return data, true, nil
}

// -----------------------------------------------------------------------------

func (s *MinioStorage) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.objectKey(key), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return helpers.NewStorageError("put "+key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *MinioStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	base := ""
	if s.prefix != "" {
		base = s.prefix + "/"
	}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    base + prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, helpers.NewStorageError(fmt.Sprintf("list %s/%s", s.bucket, base+prefix), obj.Err)
		}
		keys = append(keys, strings.TrimPrefix(obj.Key, base))
	}
	sort.Strings(keys)
	return keys, nil
}

// -----------------------------------------------------------------------------

func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, s.objectKey(key), minio.RemoveObjectOptions{}); err != nil && !isNoSuchKey(err) {
		return helpers.NewStorageError("delete "+key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

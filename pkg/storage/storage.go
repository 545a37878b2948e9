// Package storage reads and writes the small side files of a run (manifest,
// known-bad name list, audit log) on the local filesystem or in S3.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Storage is a flat key/value view over a base location.
type Storage interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	Exists(ctx context.Context, path string) (bool, error)
}

// LocalStorage implements Storage for the local filesystem.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

func (s *LocalStorage) resolve(path string) string {
	if filepath.IsAbs(path) || s.basePath == "" {
		return path
	}
	return filepath.Join(s.basePath, path)
}

func (s *LocalStorage) ReadFile(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(s.resolve(path))
}

func (s *LocalStorage) WriteFile(_ context.Context, path string, data []byte) error {
	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (s *LocalStorage) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(s.resolve(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// S3URI is a parsed s3://bucket/key location.
type S3URI struct {
	Bucket string
	Key    string
}

// IsS3URI reports whether path names an S3 object.
func IsS3URI(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// ParseS3URI parses a URI like s3://bucket/path/to/object.
func ParseS3URI(uri string) (*S3URI, error) {
	if !IsS3URI(uri) {
		return nil, fmt.Errorf("invalid S3 URI %q: must start with s3://", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "s3://"), "/", 2)
	if parts[0] == "" {
		return nil, fmt.Errorf("invalid S3 URI %q: missing bucket name", uri)
	}
	u := &S3URI{Bucket: parts[0]}
	if len(parts) == 2 {
		u.Key = parts[1]
	}
	return u, nil
}

// S3Storage implements Storage for AWS S3. Keys are joined onto prefix.
type S3Storage struct {
	bucket     string
	prefix     string
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

// NewS3Storage loads the default AWS configuration and returns a backend
// rooted at uri (s3://bucket or s3://bucket/prefix).
func NewS3Storage(ctx context.Context, uri string) (*S3Storage, error) {
	u, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)

	return &S3Storage{
		bucket:     u.Bucket,
		prefix:     strings.TrimSuffix(u.Key, "/"),
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
	}, nil
}

func (s *S3Storage) fullKey(path string) string {
	if s.prefix == "" {
		return path
	}
	if path == "" {
		return s.prefix
	}
	return s.prefix + "/" + path
}

func (s *S3Storage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	key := s.fullKey(path)
	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
	}
	return buf.Bytes(), nil
}

func (s *S3Storage) WriteFile(ctx context.Context, path string, data []byte) error {
	key := s.fullKey(path)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *S3Storage) Exists(ctx context.Context, path string) (bool, error) {
	key := s.fullKey(path)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewStorage creates the backend for base: S3 for s3:// locations, the local
// filesystem otherwise.
func NewStorage(ctx context.Context, base string) (Storage, error) {
	if IsS3URI(base) {
		return NewS3Storage(ctx, base)
	}
	return NewLocalStorage(base), nil
}

// ReadLocation reads a single file named by a full local path or S3 URI.
func ReadLocation(ctx context.Context, location string) ([]byte, error) {
	st, key, err := split(ctx, location)
	if err != nil {
		return nil, err
	}
	return st.ReadFile(ctx, key)
}

// WriteLocation writes a single file named by a full local path or S3 URI.
func WriteLocation(ctx context.Context, location string, data []byte) error {
	st, key, err := split(ctx, location)
	if err != nil {
		return err
	}
	return st.WriteFile(ctx, key, data)
}

// ExistsLocation reports whether a full local path or S3 URI names an
// existing file.
func ExistsLocation(ctx context.Context, location string) (bool, error) {
	st, key, err := split(ctx, location)
	if err != nil {
		return false, err
	}
	return st.Exists(ctx, key)
}

func split(ctx context.Context, location string) (Storage, string, error) {
	base, key := "", location
	if IsS3URI(location) {
		u, err := ParseS3URI(location)
		if err != nil {
			return nil, "", err
		}
		if u.Key == "" {
			return nil, "", fmt.Errorf("S3 location %q names a bucket, not an object", location)
		}
		base, key = "s3://"+u.Bucket, u.Key
	}
	st, err := NewStorage(ctx, base)
	if err != nil {
		return nil, "", err
	}
	return st, key, nil
}

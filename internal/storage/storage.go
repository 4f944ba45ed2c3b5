// Package storage writes command output to the local filesystem or to S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"threatkit/internal/logging"
)

const s3Scheme = "s3://"

// S3PutObject is the only S3 operation the store needs
type S3PutObject interface {
	PutObject(
		ctx context.Context,
		params *s3.PutObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.PutObjectOutput, error)
}

// Store saves byte payloads to a destination path or s3://bucket/key URI.
// The S3 client is created on first use so local-only runs never touch AWS
// configuration.
type Store struct {
	newS3Client func(ctx context.Context) (S3PutObject, error)

	mu       sync.Mutex
	s3Client S3PutObject
}

// New returns a store whose S3 client uses the default AWS credential chain
func New() *Store {
	return &Store{newS3Client: defaultS3Client}
}

// NewWithS3 returns a store backed by the given S3 client
func NewWithS3(client S3PutObject) *Store {
	return &Store{s3Client: client}
}

func defaultS3Client(ctx context.Context) (S3PutObject, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRetryMaxAttempts(5),
		config.WithRetryer(func() aws.Retryer {
			return retry.NewAdaptiveMode(func(o *retry.AdaptiveModeOptions) {
				o.StandardOptions = append(o.StandardOptions, func(so *retry.StandardOptions) {
					so.MaxBackoff = 30 * time.Second
				})
			})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

func (s *Store) s3Conn(ctx context.Context) (S3PutObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.s3Client != nil {
		return s.s3Client, nil
	}
	if s.newS3Client == nil {
		return nil, fmt.Errorf("no S3 client configured")
	}
	client, err := s.newS3Client(ctx)
	if err != nil {
		return nil, err
	}
	s.s3Client = client
	return client, nil
}

// ParseS3URI splits s3://bucket/key. ok is false for anything else.
func ParseS3URI(dest string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(dest, s3Scheme)
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", false
	}
	return bucket, key, true
}

// IsS3 reports whether dest names an S3 location
func IsS3(dest string) bool {
	return strings.HasPrefix(dest, s3Scheme)
}

// Join appends a file name to a directory that may be a local path or an s3:// prefix
func Join(dir, name string) string {
	if IsS3(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}

// Save writes data to dest and returns the location written
func (s *Store) Save(ctx context.Context, dest string, data []byte) (string, error) {
	if IsS3(dest) {
		return s.saveS3(ctx, dest, data)
	}
	return saveLocal(dest, data)
}

func saveLocal(dest string, data []byte) (string, error) {
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	logging.LogDebug("Wrote output", map[string]interface{}{"path": dest, "bytes": len(data)})
	return dest, nil
}

func (s *Store) saveS3(ctx context.Context, dest string, data []byte) (string, error) {
	bucket, key, ok := ParseS3URI(dest)
	if !ok {
		return "", fmt.Errorf("invalid S3 destination %q, want s3://bucket/key", dest)
	}

	client, err := s.s3Conn(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	start := time.Now()
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(key)),
	})
	logging.LogAPICall(dest, 0, err == nil, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", dest, err)
	}
	return dest, nil
}

func contentType(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".csv":
		return "text/csv"
	case ".ics":
		return "text/calendar"
	default:
		return "application/octet-stream"
	}
}

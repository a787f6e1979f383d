package docstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/assessment-portal/internal/domain/assessment"
)

// S3Storage stores documents in an S3-compatible bucket (R2, MinIO, S3).
type S3Storage struct {
	client *minio.Client
	bucket string
	logger *slog.Logger

	mu          sync.Mutex
	bucketReady bool
}

// NewS3Storage constructs the storage adapter.
func NewS3Storage(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*S3Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	useSSL := strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "https")
	client, err := minio.New(sanitizeEndpoint(endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage client: %w", err)
	}
	return &S3Storage{client: client, bucket: bucket, logger: logger.With("component", "docstore.s3")}, nil
}

// ensureBucket creates the bucket when missing. Only success is remembered, so
// a failed check is retried by the next upload.
func (s *S3Storage) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		s.bucketReady = true
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	s.bucketReady = true
	return nil
}

// Put implements assessment.DocumentStore.
func (s *S3Storage) Put(ctx context.Context, doc assessment.Document) (string, error) {
	if doc.Body == nil {
		return "", fmt.Errorf("document %q has no body", doc.Filename)
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	size := doc.Size
	if size <= 0 {
		size = -1
	}
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := ObjectKey(doc.SessionID, doc.Filename)
	info, err := s.client.PutObject(ctx, s.bucket, key, doc.Body, size, minio.PutObjectOptions{
		ContentType:      contentType,
		DisableMultipart: size > 0 && size < 5*1024*1024,
		UserMetadata:     map[string]string{"original-filename": doc.Filename},
	})
	if err != nil {
		return "", err
	}
	s.logger.Debug("document stored", "key", key, "size", info.Size)
	return key, nil
}

// Get fetches a document for reading.
func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, statErr := obj.Stat(); statErr != nil {
		return nil, statErr
	}
	return obj, nil
}

// Delete removes a document.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

var _ assessment.DocumentStore = (*S3Storage)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

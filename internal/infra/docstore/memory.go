package docstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/yanqian/assessment-portal/internal/domain/assessment"
)

// MemoryStorage keeps documents in memory. Useful for tests and local dev.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string]storedBlob
}

type storedBlob struct {
	data        []byte
	contentType string
}

// NewMemoryStorage constructs storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string]storedBlob)}
}

// Put implements assessment.DocumentStore.
func (s *MemoryStorage) Put(_ context.Context, doc assessment.Document) (string, error) {
	if doc.Body == nil {
		return "", fmt.Errorf("document %q has no body", doc.Filename)
	}
	data, err := io.ReadAll(doc.Body)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	key := ObjectKey(doc.SessionID, doc.Filename)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = storedBlob{data: data, contentType: doc.ContentType}
	return key, nil
}

// Get returns a reader for the stored document.
func (s *MemoryStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("document %q not found", key)
	}
	return io.NopCloser(bytes.NewReader(blob.data)), nil
}

// Delete removes the document.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

var _ assessment.DocumentStore = (*MemoryStorage)(nil)

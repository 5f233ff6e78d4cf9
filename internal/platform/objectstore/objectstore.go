// Package objectstore stores uploaded report files by key and hands out
// time-limited retrieval URLs. The S3 backend talks to AWS S3 or any
// S3-compatible server; the in-memory backend serves development and tests.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrEmptyKey       = errors.New("object key is required")
)

// SignedURLExpiry is how long a signed retrieval URL stays valid.
const SignedURLExpiry = time.Hour

// Store is the contract the upload pipeline depends on. Put overwrites an
// existing key; collision avoidance is the caller's job.
type Store interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	SignedURL(ctx context.Context, key string) (string, error)
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

type storedObject struct {
	content     []byte
	contentType string
	storedAt    time.Time
}

// MemoryStore is a thread-safe Store kept entirely in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]storedObject
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore. bucket only shows up in the
// signed URLs it produces.
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:  bucket,
		objects: make(map[string]storedObject),
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, key string, content []byte, contentType string) error {
	if key == "" {
		return ErrEmptyKey
	}
	buf := make([]byte, len(content))
	copy(buf, content)

	s.mu.Lock()
	s.objects[key] = storedObject{content: buf, contentType: contentType, storedAt: s.now()}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SignedURL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	u := url.URL{
		Scheme:   "memory",
		Host:     s.bucket,
		Path:     "/" + key,
		RawQuery: url.Values{"expires": {fmt.Sprint(s.now().Add(SignedURLExpiry).Unix())}}.Encode(),
	}
	return u.String(), nil
}

// Get returns a copy of the stored bytes and their content type.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, string, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	buf := make([]byte, len(obj.content))
	copy(buf, obj.content)
	return buf, obj.contentType, nil
}

// Len reports how many objects are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Ping always succeeds; present so both backends fit the readiness check.
func (s *MemoryStore) Ping(context.Context) error { return nil }

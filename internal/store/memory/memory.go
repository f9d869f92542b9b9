// Package memory is an in-process Store used for offline browsing and tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/slmtnm/s4fs/internal/store"
)

// Store keeps objects in a map guarded by a mutex.
type Store struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	mtimes  map[string]time.Time
	now     func() time.Time
}

// New creates an empty bucket.
func New(bucket string) *Store {
	return &Store{
		bucket:  bucket,
		objects: make(map[string][]byte),
		mtimes:  make(map[string]time.Time),
		now:     time.Now,
	}
}

// Seed stores data under key without touching the filesystem.
func (s *Store) Seed(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	s.mtimes[key] = s.now()
}

// Keys returns every key in lexical order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Data returns a copy of the object body.
func (s *Store) Data(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

func (s *Store) List(ctx context.Context, prefix string) ([]store.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var objects []store.Object
	for key, data := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		objects = append(objects, store.Object{
			Key:          key,
			Size:         int64(len(data)),
			LastModified: s.mtimes[key],
		})
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Key < objects[j].Key
	})
	return objects, nil
}

func (s *Store) Put(ctx context.Context, localPath, key string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", localPath, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	s.Seed(key, data)
	return nil
}

func (s *Store) Get(ctx context.Context, key, localPath string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to get object: %w", err)
	}
	data, ok := s.Data(key)
	if !ok {
		return fmt.Errorf("failed to get object: %s: not found", key)
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file '%s': %w", localPath, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("failed to delete object: %s: not found", key)
	}
	delete(s.objects, key)
	delete(s.mtimes, key)
	return nil
}

func (s *Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to copy object: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[srcKey]
	if !ok {
		return fmt.Errorf("failed to copy object: %s: not found", srcKey)
	}
	s.objects[dstKey] = append([]byte(nil), data...)
	s.mtimes[dstKey] = s.now()
	return nil
}

func (s *Store) Check(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Bucket() string {
	return s.bucket
}

var _ store.Store = (*Store)(nil)

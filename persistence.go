package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Collection keys
const (
	CollectionItems   = "items"
	CollectionText    = "textData"
	CollectionStyle   = "style"
	CollectionBackups = "backups"
)

// ErrCollectionNotFound is returned when a collection has never been written
var ErrCollectionNotFound = errors.New("collection not found")

// DocumentStore persists whole collections as JSON documents. The last
// full write of a key wins.
type DocumentStore interface {
	GetCollection(ctx context.Context, key string, dst any) error
	PutCollection(ctx context.Context, key string, data any) error
}

// record is the stored envelope around a collection
type record struct {
	Key          string          `json:"key"`
	Data         json.RawMessage `json:"data"`
	LastModified time.Time       `json:"lastModified"`
}

func encodeRecord(key string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", key, err)
	}
	return json.Marshal(record{Key: key, Data: raw, LastModified: time.Now().UTC()})
}

func decodeRecord(key string, stored []byte, dst any) error {
	var rec record
	if err := json.Unmarshal(stored, &rec); err != nil {
		return fmt.Errorf("decoding %s record: %w", key, err)
	}
	if err := json.Unmarshal(rec.Data, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// MemoryStore keeps collections in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (s *MemoryStore) GetCollection(ctx context.Context, key string, dst any) error {
	s.mu.RLock()
	stored, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, key)
	}
	return decodeRecord(key, stored, dst)
}

func (s *MemoryStore) PutCollection(ctx context.Context, key string, data any) error {
	encoded, err := encodeRecord(key, data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records[key] = encoded
	s.mu.Unlock()
	return nil
}

// FileStore keeps one JSON file per collection in a directory
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir if needed and returns a store rooted there
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) GetCollection(ctx context.Context, key string, dst any) error {
	stored, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	return decodeRecord(key, stored, dst)
}

// PutCollection writes to a temp file and renames it over the old one so a
// crash never leaves a half-written collection
func (s *FileStore) PutCollection(ctx context.Context, key string, data any) error {
	encoded, err := encodeRecord(key, data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("replacing %s: %w", key, err)
	}
	return nil
}

// RedisStore keeps collections as Redis strings under prefix:collection:key
type RedisStore struct {
	client *redis.Client
	prefix string
}

// Close closes the underlying redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "scrapboard"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return fmt.Sprintf("%s:collection:%s", s.prefix, key)
}

func (s *RedisStore) GetCollection(ctx context.Context, key string, dst any) error {
	stored, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, key)
		}
		return fmt.Errorf("reading %s from redis: %w", key, err)
	}
	return decodeRecord(key, stored, dst)
}

func (s *RedisStore) PutCollection(ctx context.Context, key string, data any) error {
	encoded, err := encodeRecord(key, data)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(key), encoded, 0)
	pipe.SAdd(ctx, s.prefix+":collections", key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing %s to redis: %w", key, err)
	}
	return nil
}

// OpenDocumentStore builds the store named by the storage settings
func OpenDocumentStore(ctx context.Context, settings StorageSettings) (DocumentStore, error) {
	switch settings.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file", "":
		return NewFileStore(settings.Directory)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: settings.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("could not connect to redis (%s): %w", settings.RedisAddr, err)
		}
		return NewRedisStore(client, settings.RedisPrefix), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", settings.Backend)
}

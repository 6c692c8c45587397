package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const adherenceBucket = "adherence"

// BoltStore is a BoltDB-backed KeyValueStore.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens a BoltDB-backed store at the provided path, creating
// the file and the adherence bucket when missing.
func OpenBolt(path string) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bolt.Open(filepath.Clean(path), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(adherenceBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %q: %w", adherenceBucket, err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(adherenceBucket)).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		value = string(v)
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *BoltStore) Set(key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(adherenceBucket)).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying BoltDB database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

package dedupe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var reportedBucket = []byte(`reported`)

type boltStore struct {
	db  *bbolt.DB
	now Clock
}

// NewBoltStore opens (or creates) a bbolt database holding one key per day and signature.
func NewBoltStore(filePath string, now Clock) (Store, error) {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dedupe db dir: %w", err)
		}
	}
	db, err := bbolt.Open(filePath, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open dedupe db %s: %w", filePath, err)
	}

	initBucket := func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(reportedBucket)
		return err
	}
	if err := db.Update(initBucket); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db, now: now}, nil
}

func (s *boltStore) HasBeenReportedToday(_ context.Context, signature string) (bool, error) {
	key := []byte(dayKey(s.now(), signature))
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(reportedBucket)
		if bucket == nil {
			return errors.New("dedupe storage not initialized")
		}
		found = bucket.Get(key) != nil
		return nil
	})
	return found, err
}

func (s *boltStore) RecordReported(_ context.Context, signature, ticketID string) error {
	key := []byte(dayKey(s.now(), signature))
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(reportedBucket)
		if bucket == nil {
			return errors.New("dedupe storage not initialized")
		}
		return bucket.Put(key, []byte(ticketID))
	})
}

func (s *boltStore) Close() error {
	return s.db.Close()
}

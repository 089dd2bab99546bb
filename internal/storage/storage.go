// Package storage provides persistent storage for the fraud scoring service.
// It uses BoltDB as the underlying storage engine to keep a history of model
// artifact loads, so operators can see which model version served when.
//
// Scoring requests and their results are never stored.
package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	modelLoadsBucket = "model_loads" // Bucket name for model load records
)

// ModelLoad is one successful artifact load.
type ModelLoad struct {
	Version       string    `json:"version"`
	Path          string    `json:"path"`
	Checksum      string    `json:"checksum"`
	SchemaVersion string    `json:"schema_version"`
	Trees         int       `json:"trees"`
	TrainedAt     time.Time `json:"trained_at"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// Store provides persistent storage using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New creates a new storage instance with the specified data path.
// It initializes the BoltDB database and creates necessary buckets.
// Returns an error if the database cannot be opened or buckets cannot be created.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "fraud-scorer.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(modelLoadsBucket)); err != nil {
			return fmt.Errorf("create model loads bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordModelLoad appends a load record. Keys are zero-padded bucket
// sequence numbers so cursor order is insertion order.
func (s *Store) RecordModelLoad(rec ModelLoad) error {
	if rec.LoadedAt.IsZero() {
		rec.LoadedAt = time.Now().UTC()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(modelLoadsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal model load: %w", err)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}

		return b.Put(loadKey(seq), data)
	})
}

// LastModelLoad returns the most recent record, or nil if there is none.
func (s *Store) LastModelLoad() (*ModelLoad, error) {
	loads, err := s.ListModelLoads(1)
	if err != nil || len(loads) == 0 {
		return nil, err
	}
	return &loads[0], nil
}

// ListModelLoads returns up to limit records, newest first. A limit <= 0
// returns all records.
func (s *Store) ListModelLoads(limit int) ([]ModelLoad, error) {
	var loads []ModelLoad

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(modelLoadsBucket)).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var rec ModelLoad
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			loads = append(loads, rec)
			if limit > 0 && len(loads) >= limit {
				break
			}
		}
		return nil
	})

	return loads, err
}

func loadKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%020d", seq))
}

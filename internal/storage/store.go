package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	runsBucket = []byte("runs")
	metaBucket = []byte("metadata")

	lastRunKey = []byte("last_run")
)

var ErrNotFound = errors.New("run not found")

// Store is an append-only journal of digest runs. Nothing read from it
// influences what a later run sends.
type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{runsBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// runKey sorts chronologically: big-endian start time, then the run ID.
func runKey(run *Run) []byte {
	key := make([]byte, 8, 8+len(run.ID))
	binary.BigEndian.PutUint64(key, uint64(run.StartedAt.UnixNano()))
	return append(key, run.ID...)
}

func (s *Store) AppendRun(run *Run) error {
	if run.ID == "" {
		return errors.New("run has no ID")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(run)
		if err != nil {
			return err
		}
		key := runKey(run)
		if err := tx.Bucket(runsBucket).Put(key, data); err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put(lastRunKey, key)
	})
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	var runs []*Run
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(runsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				continue
			}
			runs = append(runs, &run)
			if limit > 0 && len(runs) >= limit {
				break
			}
		}
		return nil
	})
	return runs, err
}

// GetRun finds a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	var run *Run
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(_ []byte, v []byte) error {
			var r Run
			if err := json.Unmarshal(v, &r); err != nil {
				return nil
			}
			if r.ID == id {
				run = &r
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, nil
}

// LastRun returns the most recently appended run.
func (s *Store) LastRun() (*Run, error) {
	var run Run
	err := s.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(metaBucket).Get(lastRunKey)
		if key == nil {
			return ErrNotFound
		}
		data := tx.Bucket(runsBucket).Get(key)
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &run)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) Summarize() (Summary, error) {
	var sum Summary
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(_ []byte, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return nil
			}
			sum.Runs++
			if run.Delivered {
				sum.Delivered++
			} else {
				sum.Failed++
			}
			if run.StartedAt.After(sum.LastRun) {
				sum.LastRun = run.StartedAt
			}
			return nil
		})
	})
	return sum, err
}

// Prune keeps the newest keep runs and deletes the rest.
func (s *Store) Prune(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	deleted := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		var stale [][]byte
		c := b.Cursor()
		seen := 0
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			seen++
			if seen > keep {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			deleted++
		}
		if keep == 0 {
			return tx.Bucket(metaBucket).Delete(lastRunKey)
		}
		return nil
	})
	return deleted, err
}

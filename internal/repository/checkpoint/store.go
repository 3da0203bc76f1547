// Package checkpoint persists ingestion progress in a local bbolt file so an
// interrupted run can resume after the last committed batch.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketProgress = []byte("progress")

// Progress is the last committed position for one (source, index) pair.
type Progress struct {
	Batch     int       `json:"batch"`
	Records   int       `json:"records"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a bbolt-backed checkpoint store.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the checkpoint file.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open checkpoint %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketProgress); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketProgress, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the file lock.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	return nil
}

// Load returns the saved progress; ok is false when nothing was committed yet.
func (s *Store) Load(source, index string) (Progress, bool, error) {
	var (
		p     Progress
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketProgress).Get(key(source, index))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return Progress{}, false, fmt.Errorf("load checkpoint %s -> %s: %w", source, index, err)
	}
	return p, found, nil
}

// Position returns the last committed batch number and the number of source
// records it covers, or zeros.
func (s *Store) Position(source, index string) (batch, records int, err error) {
	p, _, err := s.Load(source, index)
	if err != nil {
		return 0, 0, err
	}
	return p.Batch, p.Records, nil
}

// Commit records batch as done; records is the total number of source records
// committed so far. Both must grow with every commit.
func (s *Store) Commit(source, index string, batch, records int) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketProgress)
		k := key(source, index)

		if data := b.Get(k); data != nil {
			var prev Progress
			if err := json.Unmarshal(data, &prev); err != nil {
				return err
			}
			if batch <= prev.Batch {
				return fmt.Errorf("%w: batch %d, last committed %d", ErrOutOfOrder, batch, prev.Batch)
			}
			if records < prev.Records {
				return fmt.Errorf("%w: %d records, last committed %d", ErrOutOfOrder, records, prev.Records)
			}
		}

		data, err := json.Marshal(Progress{Batch: batch, Records: records, UpdatedAt: s.now().UTC()})
		if err != nil {
			return err
		}
		return b.Put(k, data)
	})
	if err != nil {
		return fmt.Errorf("commit checkpoint %s -> %s: %w", source, index, err)
	}
	return nil
}

// Reset forgets progress for the pair.
func (s *Store) Reset(source, index string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProgress).Delete(key(source, index))
	})
	if err != nil {
		return fmt.Errorf("reset checkpoint %s -> %s: %w", source, index, err)
	}
	return nil
}

// ErrOutOfOrder is returned when a batch is committed at or below the saved one.
var ErrOutOfOrder = errors.New("checkpoint out of order")

func key(source, index string) []byte {
	return []byte(index + "\x00" + source)
}

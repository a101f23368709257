// Package history persists the record of data files opened for review, so the
// shell can offer recent files and per-file session continuity.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/watchtrace/watchtrace/pkg/logx"
)

const bucketFiles = "files"

// FileRecord tracks one data file across review sessions.
type FileRecord struct {
	Path        string    `json:"path"`
	SessionID   string    `json:"session_id"`
	FirstOpened time.Time `json:"first_opened"`
	LastOpened  time.Time `json:"last_opened"`
	OpenCount   int       `json:"open_count"`
	LastRow     int       `json:"last_row"`
}

// Store is a bbolt-backed history database.
type Store struct {
	db     *bolt.DB
	logger *logx.Logger
}

// Open opens (creating if needed) the history database at path.
func Open(path string, logger *logx.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketFiles))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}

	logger.Debug("History database opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Touch records an open of the given data file, creating its record on first
// sight, and returns the updated record.
func (s *Store) Touch(path string) (FileRecord, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	var rec FileRecord
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketFiles))
		now := time.Now().UTC()

		if data := b.Get([]byte(abs)); data != nil {
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("failed to decode history record: %w", err)
			}
		} else {
			rec = FileRecord{
				Path:        abs,
				SessionID:   uuid.New().String(),
				FirstOpened: now,
			}
		}

		rec.LastOpened = now
		rec.OpenCount++

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode history record: %w", err)
		}
		return b.Put([]byte(abs), data)
	})
	if err != nil {
		return FileRecord{}, err
	}

	s.logger.Debug("History record touched", "path", abs, "opens", rec.OpenCount)
	return rec, nil
}

// SetLastRow stores the last visited row for a data file, so a later session
// can resume near where the previous one stopped.
func (s *Store) SetLastRow(path string, row int) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketFiles))
		data := b.Get([]byte(abs))
		if data == nil {
			return nil
		}
		var rec FileRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to decode history record: %w", err)
		}
		rec.LastRow = row
		out, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode history record: %w", err)
		}
		return b.Put([]byte(abs), out)
	})
}

// Get returns the record for a data file, if one exists.
func (s *Store) Get(path string) (FileRecord, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	var rec FileRecord
	found := false
	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketFiles)).Get([]byte(abs))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to decode history record: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return FileRecord{}, false, err
	}
	return rec, found, nil
}

// Recent returns up to n records ordered by most recent open.
func (s *Store) Recent(n int) ([]FileRecord, error) {
	var recs []FileRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketFiles)).ForEach(func(_, v []byte) error {
			var rec FileRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode history record: %w", err)
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].LastOpened.After(recs[j].LastOpened)
	})
	if n > 0 && len(recs) > n {
		recs = recs[:n]
	}
	return recs, nil
}

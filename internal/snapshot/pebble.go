// Package snapshot persists the store's table documents to a local
// pebble database. Writes are best effort: a failed snapshot is logged
// and retried on the next tick, never surfaced to request handlers.
package snapshot

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

const keyPrefix = "table/"

// Sink wraps an open pebble handle. One key per table document.
type Sink struct {
	db  *pebble.DB
	log *zap.Logger
}

func Open(path string, log *zap.Logger) (*Sink, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	log.Info("snapshot store opened", zap.String("path", path))
	return &Sink{db: db, log: log}, nil
}

func (s *Sink) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// WriteTables persists all table documents in one synced batch, so a
// crash mid-write never leaves a mixed-generation snapshot on disk.
func (s *Sink) WriteTables(docs map[string][]byte) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for name, doc := range docs {
		if err := batch.Set([]byte(keyPrefix+name), doc, nil); err != nil {
			return fmt.Errorf("stage table %s: %w", name, err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit snapshot batch: %w", err)
	}
	return nil
}

// ReadTables loads every persisted table document. An empty map (no
// error) means no snapshot has ever been written.
func (s *Sink) ReadTables() (map[string][]byte, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "\xff"),
	})
	if err != nil {
		return nil, fmt.Errorf("iterate snapshot keys: %w", err)
	}
	defer iter.Close()

	docs := make(map[string][]byte)
	for iter.First(); iter.Valid(); iter.Next() {
		name := strings.TrimPrefix(string(iter.Key()), keyPrefix)
		val, err := iter.ValueAndErr()
		if err != nil {
			return nil, fmt.Errorf("read table %s: %w", name, err)
		}
		doc := make([]byte, len(val))
		copy(doc, val)
		docs[name] = doc
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("snapshot iterator: %w", err)
	}
	return docs, nil
}

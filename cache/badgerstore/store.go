// Copyright 2025 Harvestra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package badgerstore implements the persistent cache tier on BadgerDB.
package badgerstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/harvestra/corpus/cache"
	"github.com/harvestra/corpus/core"
)

// Store persists cache entries in a BadgerDB database. Entries are
// mus-encoded; badger's native TTL is set alongside the entry's own TTL as
// a backstop so expired values eventually vanish even if never read.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ cache.Tier = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a badger-backed tier at the given directory, creating it if
// needed. An empty path with inMemory=true opens a throwaway in-memory DB.
func Open(filePath string, inMemory bool) (*Store, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, err
			}
			info, err = os.Stat(filePath)
			if err != nil {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default()
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// NewMemoryTier creates an in-memory tier for testing.
// Caller must close it when done.
func NewMemoryTier() (*Store, error) {
	return Open("", true)
}

// Get loads and decodes the entry for key. Undecodable bytes are reported
// as cache.ErrCorruptEntry so the manager can evict and refetch.
func (s *Store) Get(key string) (*cache.Entry, error) {
	var raw []byte
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
		}
		return nil, err
	}

	entry, _, err := cache.EntryMUS.Unmarshal(raw)
	if err != nil {
		s.logger.Warn("undecodable cache entry", "key", key, "err", err)
		return nil, fmt.Errorf("%w: %s", cache.ErrCorruptEntry, key)
	}
	return &entry, nil
}

// Set encodes and stores the entry, carrying its TTL into badger.
func (s *Store) Set(e *cache.Entry) error {
	bs := make([]byte, cache.EntryMUS.Size(*e))
	cache.EntryMUS.Marshal(*e, bs)

	return s.db.Update(func(tx *badger.Txn) error {
		badgerEntry := badger.NewEntry([]byte(e.Key), bs)
		if e.TTL > 0 {
			badgerEntry = badgerEntry.WithTTL(e.TTL)
		}
		return tx.SetEntry(badgerEntry)
	})
}

// Delete removes the entry. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Delete([]byte(key))
	})
}

// Keys returns every stored key. Key-only iteration, values stay on disk.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := tx.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

// Clear drops every entry.
func (s *Store) Clear() error {
	return s.db.DropAll()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

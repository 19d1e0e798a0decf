package storage

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/tinygambit/tinygambit/internal/board"
)

// bookKeyPrefix namespaces opening-book entries within the database.
const bookKeyPrefix = "book:"

// bookMetaPrefix namespaces the freshness record for a loaded book file.
const bookMetaPrefix = "bookmeta:"

// BookEntry mirrors book.BookEntry without importing the book package, so
// that book can depend on storage for its cache without a cycle.
type BookEntry struct {
	Move   board.Move
	Weight uint16
}

// BookCache persists a parsed Polyglot opening book in BadgerDB so that
// subsequent engine starts can skip re-parsing the (often multi-megabyte)
// source file. The cache is keyed by the book's source path; entries are
// invalidated whenever the source file's size or modification time changes.
type BookCache struct {
	db *badger.DB
}

// NewBookCache opens (creating if necessary) a BadgerDB database rooted at
// dir for caching opening-book data.
func NewBookCache(dir string) (*BookCache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BookCache{db: db}, nil
}

// Close closes the underlying database.
func (c *BookCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Fresh reports whether the cache already holds entries for sourcePath built
// from a file of the given size and modification time (as a Unix nanosecond
// timestamp).
func (c *BookCache) Fresh(sourcePath string, size int64, modTimeNano int64) bool {
	var fresh bool
	_ = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(sourcePath))
		if err != nil {
			return nil
		}
		return item.Value(func(val []byte) error {
			if len(val) != 16 {
				return nil
			}
			cachedSize := int64(binary.BigEndian.Uint64(val[0:8]))
			cachedMod := int64(binary.BigEndian.Uint64(val[8:16]))
			fresh = cachedSize == size && cachedMod == modTimeNano
			return nil
		})
	})
	return fresh
}

// Store replaces the cached entries for sourcePath with entries, and records
// the source file's size and modification time for freshness checks.
func (c *BookCache) Store(sourcePath string, size int64, modTimeNano int64, entries map[uint64][]BookEntry) error {
	return c.db.Update(func(txn *badger.Txn) error {
		prefix := []byte(bookKeyPrefix + sourcePath + ":")
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		var stale [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}

		for key, list := range entries {
			data := encodeEntries(list)
			if err := txn.Set(positionKey(sourcePath, key), data); err != nil {
				return err
			}
		}

		meta := make([]byte, 16)
		binary.BigEndian.PutUint64(meta[0:8], uint64(size))
		binary.BigEndian.PutUint64(meta[8:16], uint64(modTimeNano))
		return txn.Set(metaKey(sourcePath), meta)
	})
}

// Load reconstructs the cached entries for sourcePath, scanning every key
// stored under its namespace.
func (c *BookCache) Load(sourcePath string) (map[uint64][]BookEntry, error) {
	entries := make(map[uint64][]BookEntry)
	prefix := []byte(bookKeyPrefix + sourcePath + ":")

	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			k := item.Key()
			posKey := binary.BigEndian.Uint64(k[len(prefix):])

			err := item.Value(func(val []byte) error {
				entries[posKey] = decodeEntries(val)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return entries, err
}

func metaKey(sourcePath string) []byte {
	return []byte(bookMetaPrefix + sourcePath)
}

func positionKey(sourcePath string, key uint64) []byte {
	b := make([]byte, len(bookKeyPrefix)+len(sourcePath)+1+8)
	n := copy(b, bookKeyPrefix)
	n += copy(b[n:], sourcePath)
	b[n] = ':'
	n++
	binary.BigEndian.PutUint64(b[n:], key)
	return b
}

// encodeEntries packs a list of book entries as 4 bytes each: move (uint16)
// then weight (uint16), both big-endian.
func encodeEntries(list []BookEntry) []byte {
	out := make([]byte, len(list)*4)
	for i, e := range list {
		binary.BigEndian.PutUint16(out[i*4:], uint16(e.Move))
		binary.BigEndian.PutUint16(out[i*4+2:], e.Weight)
	}
	return out
}

func decodeEntries(data []byte) []BookEntry {
	n := len(data) / 4
	out := make([]BookEntry, n)
	for i := 0; i < n; i++ {
		out[i] = BookEntry{
			Move:   board.Move(binary.BigEndian.Uint16(data[i*4:])),
			Weight: binary.BigEndian.Uint16(data[i*4+2:]),
		}
	}
	return out
}

// StatFile is a small indirection so callers can obtain the (size, modTime)
// pair a freshness check needs without importing os themselves.
func StatFile(path string) (size int64, modTimeNano int64, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, fmt.Errorf("stat book source: %w", err)
	}
	return info.Size(), info.ModTime().UnixNano(), nil
}

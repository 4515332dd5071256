// Package speccache persists a contract's decoded spec entries to a local
// file keyed by the sha256 of its wasm, so later lookups (e.g. resolving
// an invocation's argument types) skip re-fetching and re-parsing the
// wasm binary.
package speccache

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/stellar/go/xdr"
)

// Cache stores encoded spec entries under dir, one file per wasm hash.
type Cache struct {
	dir string
}

// New returns a Cache rooted at dir, creating it if necessary.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "speccache: creating cache dir")
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(hash [32]byte) string {
	return filepath.Join(c.dir, hex.EncodeToString(hash[:]))
}

// Get returns the cached spec entries for hash, or (nil, false) on a miss.
func (c *Cache) Get(hash [32]byte) ([]xdr.ScSpecEntry, bool, error) {
	b, err := os.ReadFile(c.path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "speccache: reading cache entry")
	}
	entries, err := decodeEntries(b)
	if err != nil {
		return nil, false, errors.Wrap(err, "speccache: decoding cache entry")
	}
	return entries, true, nil
}

// Put stores entries for hash, writing to a temp file in the same
// directory and renaming into place so a concurrent Get never observes a
// partially written file.
func (c *Cache) Put(hash [32]byte, entries []xdr.ScSpecEntry) error {
	b, err := encodeEntries(entries)
	if err != nil {
		return errors.Wrap(err, "speccache: encoding cache entry")
	}
	tmp, err := os.CreateTemp(c.dir, "speccache-*.tmp")
	if err != nil {
		return errors.Wrap(err, "speccache: creating temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.Wrap(err, "speccache: writing temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "speccache: closing temp file")
	}
	if err := os.Rename(tmpName, c.path(hash)); err != nil {
		return errors.Wrap(err, "speccache: renaming into place")
	}
	return nil
}

func encodeEntries(entries []xdr.ScSpecEntry) ([]byte, error) {
	var out []byte
	for _, e := range entries {
		b, err := e.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func decodeEntries(b []byte) ([]xdr.ScSpecEntry, error) {
	var out []xdr.ScSpecEntry
	dec := xdr.NewDecoder(bytes.NewReader(b))
	for read := 0; read < len(b); {
		var entry xdr.ScSpecEntry
		n, err := dec.Decode(&entry)
		if err != nil {
			return nil, err
		}
		read += n
		out = append(out, entry)
	}
	return out, nil
}

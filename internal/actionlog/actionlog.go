// Package actionlog records a local, append-only transcript of every
// simulate/send action the toolchain performs against an RPC endpoint,
// one JSON file per action named by a ULID so entries sort by creation
// time and never collide.
package actionlog

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

// Kind distinguishes the two actions the transcript records.
type Kind string

const (
	KindSimulate Kind = "simulate"
	KindSend     Kind = "send"
)

// Entry is one recorded action.
type Entry struct {
	Kind   Kind            `json:"kind"`
	RPCURL string          `json:"rpc_url"`
	Result json.RawMessage `json:"result"`
}

// Log appends entries under dir.
type Log struct {
	dir    string
	source io.Reader
}

// New returns a Log rooted at dir, creating it if necessary. When entropy
// is nil, a monotonic ULID source is used so entries written within the
// same millisecond still sort in write order.
func New(dir string, entropy io.Reader) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "actionlog: creating log dir")
	}
	if entropy == nil {
		entropy = ulid.Monotonic(rand.Reader, 0)
	}
	return &Log{dir: dir, source: entropy}, nil
}

// Write appends entry to the log and returns its ULID.
func (l *Log) Write(entry Entry) (ulid.ULID, error) {
	id, err := ulid.New(ulid.Now(), l.source)
	if err != nil {
		return ulid.ULID{}, errors.Wrap(err, "actionlog: generating id")
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return ulid.ULID{}, errors.Wrap(err, "actionlog: marshaling entry")
	}
	file := filepath.Join(l.dir, id.String()+".json")
	if err := os.WriteFile(file, b, 0o644); err != nil {
		return ulid.ULID{}, errors.Wrap(err, "actionlog: writing entry")
	}
	return id, nil
}

// Read loads the entry recorded under id.
func (l *Log) Read(id ulid.ULID) (*Entry, error) {
	file := filepath.Join(l.dir, id.String()+".json")
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "actionlog: reading entry")
	}
	var entry Entry
	if err := json.Unmarshal(b, &entry); err != nil {
		return nil, errors.Wrap(err, "actionlog: unmarshaling entry")
	}
	return &entry, nil
}

// List returns the ids of all recorded actions, oldest first.
func (l *Log) List() ([]ulid.ULID, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, errors.Wrap(err, "actionlog: listing entries")
	}
	var ids []ulid.ULID
	for _, e := range dirEntries {
		name := strings.TrimSuffix(e.Name(), ".json")
		id, err := ulid.ParseStrict(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
	return ids, nil
}

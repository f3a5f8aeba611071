package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/mod/semver"
)

// FileSchemaVersion is the on-disk document version written by File.
const FileSchemaVersion = "v1.1.0"

// ErrSchemaTooNew is returned when a file was written by a newer engine.
var ErrSchemaTooNew = errors.New("storage file schema is newer than supported")

// fileDocument is the on-disk layout.
//
//	{"schema": "v1.1.0", "entries": {"wishlist-items": "[...]", ...}}
//
// Files without a schema field are treated as a bare key/value object
// (the v1.0.0 layout) and are upgraded on the next write.
type fileDocument struct {
	Schema  string            `json:"schema"`
	Entries map[string]string `json:"entries"`
}

// File is a Store persisted as a single JSON document.
// Every mutation rewrites the document atomically (temp file + rename).
type File struct {
	mem  *Memory
	path string

	writeMu sync.Mutex
}

// OpenFile loads or creates the store at path.
func OpenFile(path string) (*File, error) {
	seed, err := readFileDocument(path)
	if err != nil {
		return nil, err
	}
	return &File{
		mem:  NewMemoryFrom(seed),
		path: path,
	}, nil
}

func readFileDocument(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading storage file: %w", err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing storage file: %w", err)
	}

	if _, versioned := probe["schema"]; !versioned {
		var flat map[string]string
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, fmt.Errorf("parsing unversioned storage file: %w", err)
		}
		return flat, nil
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing storage file: %w", err)
	}
	if !semver.IsValid(doc.Schema) {
		return nil, fmt.Errorf("invalid storage schema version %q", doc.Schema)
	}
	if semver.Compare(doc.Schema, FileSchemaVersion) > 0 {
		return nil, fmt.Errorf("%w: %s > %s", ErrSchemaTooNew, doc.Schema, FileSchemaVersion)
	}
	if doc.Entries == nil {
		doc.Entries = map[string]string{}
	}
	return doc.Entries, nil
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	return f.mem.Get(ctx, key)
}

func (f *File) Set(ctx context.Context, key, value string) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	if err := f.mem.Set(ctx, key, value); err != nil {
		return err
	}
	return f.flushLocked()
}

func (f *File) Delete(ctx context.Context, key string) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	if err := f.mem.Delete(ctx, key); err != nil {
		return err
	}
	return f.flushLocked()
}

func (f *File) Subscribe(ctx context.Context) (<-chan Change, error) {
	return f.mem.Subscribe(ctx)
}

// Path returns the file path used by this store.
func (f *File) Path() string {
	return f.path
}

func (f *File) Close() error {
	return f.mem.Close()
}

// flushLocked writes the current snapshot. Caller holds writeMu.
func (f *File) flushLocked() error {
	doc := fileDocument{
		Schema:  FileSchemaVersion,
		Entries: f.mem.Snapshot(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding storage file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".storefront-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing storage file: %w", err)
	}
	return nil
}

var _ Store = (*File)(nil)

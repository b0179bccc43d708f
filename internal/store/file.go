package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval coalesces bursts of file events (editors often write a
// file several times in quick succession) into a single change callback.
const debounceInterval = 200 * time.Millisecond

// ErrReadOnly is returned by mutating operations on a FileStore.
var ErrReadOnly = errors.New("file store is read-only")

// FileStore serves ruleset documents from a directory. Each .json, .yaml
// or .yml file holds one document; the service name is the file name
// without its extension. The store is read-only; documents are edited on
// disk and picked up via Watch.
type FileStore struct {
	dir string
	env string
}

// NewFileStore creates a store backed by the given directory. All records
// it serves carry the given environment name.
func NewFileStore(dir, env string) (*FileStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("ruleset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("ruleset directory: %s is not a directory", dir)
	}
	return &FileStore{dir: dir, env: env}, nil
}

// GetAll reads every document file in the directory.
func (f *FileStore) GetAll(ctx context.Context, env string) ([]Record, error) {
	if env != f.env {
		return []Record{}, nil
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		service, ok := serviceName(e.Name())
		if !ok {
			continue
		}
		rec, err := f.read(service, filepath.Join(f.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// GetByService reads the document file for a single service.
func (f *FileStore) GetByService(ctx context.Context, service, env string) (*Record, error) {
	if env != f.env {
		return nil, ErrNotFound
	}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(f.dir, service+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return f.read(service, path)
	}
	return nil, ErrNotFound
}

// Upsert is not supported; edit the document file instead.
func (f *FileStore) Upsert(ctx context.Context, params UpsertParams) error {
	return ErrReadOnly
}

// Delete is not supported; remove the document file instead.
func (f *FileStore) Delete(ctx context.Context, service, env string) error {
	return ErrReadOnly
}

// Close is a no-op.
func (f *FileStore) Close() error {
	return nil
}

// Watch invokes onChange whenever a document file is created, modified or
// removed. Events are debounced so one save produces one callback. Blocks
// until ctx is cancelled.
func (f *FileStore) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(f.dir); err != nil {
		return err
	}

	// Single debounce timer, reset on each event. Initialized stopped;
	// the first event starts it.
	debounce := time.NewTimer(debounceInterval)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounce.C:
			onChange()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, isDoc := serviceName(filepath.Base(event.Name)); !isDoc {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(debounceInterval)

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

func (f *FileStore) read(service, path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &Record{
		Service:   service,
		Env:       f.env,
		Document:  data,
		UpdatedAt: info.ModTime().UTC(),
	}, nil
}

// serviceName maps a document file name to its service name. Returns
// false for files that are not ruleset documents (partial writes, editor
// backups, unrelated files).
func serviceName(name string) (string, bool) {
	ext := filepath.Ext(name)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return "", false
	}
	base := strings.TrimSuffix(name, ext)
	if base == "" || strings.HasPrefix(base, ".") {
		return "", false
	}
	return base, true
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"pagebuilder/internal/domain"
)

// FileDocumentStore keeps each site as <dir>/<siteID>.json. Writes go through
// a temp file and rename so readers never see a partial document.
type FileDocumentStore struct {
	dir string

	mu        sync.Mutex
	lastWrite map[string][]byte // siteID -> bytes this store last wrote
}

var _ domain.DocumentStore = (*FileDocumentStore)(nil)

func NewFileDocumentStore(dir string) (*FileDocumentStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create document directory: %w", err)
	}
	return &FileDocumentStore{dir: dir, lastWrite: map[string][]byte{}}, nil
}

func (s *FileDocumentStore) Dir() string { return s.dir }

func (s *FileDocumentStore) path(siteID string) string {
	return filepath.Join(s.dir, siteID+".json")
}

func (s *FileDocumentStore) LoadDocument(ctx context.Context, siteID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(siteID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

func (s *FileDocumentStore) SaveDocument(ctx context.Context, siteID string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, siteID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp document: %w", err)
	}

	s.mu.Lock()
	s.lastWrite[siteID] = bytes.Clone(data)
	s.mu.Unlock()

	if err := os.Rename(tmp.Name(), s.path(siteID)); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

func (s *FileDocumentStore) Close() error { return nil }

// ownWrite reports whether data is what this store last wrote for siteID.
func (s *FileDocumentStore) ownWrite(siteID string, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastWrite[siteID]
	return ok && bytes.Equal(last, data)
}

// ExternalChangeHandler receives a site's document after another process
// rewrote its file.
type ExternalChangeHandler func(siteID string, data []byte)

// FileWatcher reports edits made to a FileDocumentStore's directory by
// anything other than the store itself.
type FileWatcher struct {
	store    *FileDocumentStore
	watcher  *fsnotify.Watcher
	onChange ExternalChangeHandler
	logger   *zap.Logger
	done     chan struct{}
}

func NewFileWatcher(store *FileDocumentStore, onChange ExternalChangeHandler, logger *zap.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(store.Dir()); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", store.Dir(), err)
	}

	w := &FileWatcher{
		store:    store,
		watcher:  watcher,
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Close stops the watcher and waits for its loop to exit.
func (w *FileWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *FileWatcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Base(event.Name)
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			siteID := strings.TrimSuffix(name, ".json")
			data, err := os.ReadFile(event.Name)
			if err != nil {
				w.logger.Warn("read changed document", zap.String("path", event.Name), zap.Error(err))
				continue
			}
			if len(data) == 0 || w.store.ownWrite(siteID, data) {
				continue
			}
			if w.onChange != nil {
				w.onChange(siteID, data)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("document watcher error", zap.Error(err))
		}
	}
}

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/storage"
)

const defaultPollInterval = 2 * time.Second

// pageWatcher polls the SQLite document row for changes made by another
// process sharing the database (e.g. a standalone MCP server next to the
// HTTP server) and reloads the session when the stored document moves on.
type pageWatcher struct {
	ctx      context.Context
	app      *App
	store    *storage.SQLiteDocumentStore
	interval time.Duration

	mu      sync.Mutex
	lastRev int // -1 until the first successful poll

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func newPageWatcher(ctx context.Context, app *App, store *storage.SQLiteDocumentStore) *pageWatcher {
	return &pageWatcher{
		ctx:      ctx,
		app:      app,
		store:    store,
		interval: defaultPollInterval,
		lastRev:  -1,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start records the current revision and begins the polling loop.
func (w *pageWatcher) Start() {
	w.check()
	go w.pollLoop()
}

// Stop terminates the polling loop and waits for it to exit.
func (w *pageWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.done
}

func (w *pageWatcher) pollLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *pageWatcher) check() {
	siteID := w.app.cfg.Site.ID
	rev, err := w.store.Revision(w.ctx, siteID)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return
	}
	if err != nil {
		w.app.logger.Debug("poll document revision", zap.Error(err))
		return
	}

	w.mu.Lock()
	prev := w.lastRev
	w.lastRev = rev
	w.mu.Unlock()
	if prev == -1 || prev == rev {
		return
	}
	if own, ok := w.store.WrittenRevision(siteID); ok && own == rev {
		return
	}

	data, err := w.store.LoadDocument(w.ctx, siteID)
	if err != nil {
		w.app.logger.Warn("reload changed document", zap.Error(err))
		return
	}
	// an identical payload needs no reload
	current, err := json.Marshal(w.app.site.Document())
	if err == nil && bytes.Equal(current, data) {
		return
	}
	w.app.applyExternal(w.ctx, data)
}

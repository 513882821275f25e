package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
	"pagebuilder/internal/pagetree"
	"pagebuilder/internal/sections"
	"pagebuilder/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Site Service: the editing session for one site
// ─────────────────────────────────────────────────────────────

var (
	ErrNothingToUndo = fmt.Errorf("nothing to undo: %w", domain.ErrBoundary)
	ErrNothingToRedo = fmt.Errorf("nothing to redo: %w", domain.ErrBoundary)
	ErrNotLoaded     = fmt.Errorf("%w: document not loaded", domain.ErrInvalidInput)
)

// SiteService owns the current document snapshot and the session state
// around it: the active page, the authenticated flag and unsaved changes.
// Every edit goes through the editor package and is recorded in history.
// Callers on different goroutines (MCP, HTTP, autosave) are serialised.
type SiteService struct {
	gateway  *storage.Gateway
	history  storage.HistoryStore
	settings *storage.SettingsStore
	plugins  *PluginRegistry
	emitter  EventEmitter
	logger   *zap.Logger
	seed     func() domain.Document

	mu            sync.Mutex
	doc           domain.Document
	loaded        bool
	activePageID  string
	authenticated bool
	dirty         bool
	rev           uint64 // bumped on every change to doc
}

// Option customises a SiteService.
type Option func(*SiteService)

// WithSettings remembers the active page across restarts.
func WithSettings(s *storage.SettingsStore) Option {
	return func(svc *SiteService) { svc.settings = s }
}

func WithPlugins(r *PluginRegistry) Option {
	return func(svc *SiteService) { svc.plugins = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(svc *SiteService) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithSeed sets the document used when the store has none for the site.
func WithSeed(seed func() domain.Document) Option {
	return func(svc *SiteService) {
		if seed != nil {
			svc.seed = seed
		}
	}
}

// WithAuthenticated starts the session already signed in.
func WithAuthenticated(v bool) Option {
	return func(svc *SiteService) { svc.authenticated = v }
}

func NewSiteService(gateway *storage.Gateway, history storage.HistoryStore, emitter EventEmitter, opts ...Option) *SiteService {
	svc := &SiteService{
		gateway: gateway,
		history: history,
		emitter: emitter,
		logger:  zap.NewNop(),
		seed:    func() domain.Document { return editor.New("") },
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.history == nil {
		svc.history = storage.NewMemoryHistoryStore(storage.DefaultHistoryLimit)
	}
	if svc.emitter == nil {
		svc.emitter = LogEmitter{Logger: svc.logger}
	}
	return svc
}

func (s *SiteService) siteID() string {
	if s.gateway == nil {
		return ""
	}
	return s.gateway.SiteID()
}

// ── Lifecycle ──────────────────────────────────────────────

// Load reads the site's document, seeding a fresh one when the store has
// nothing yet. A seeded document is marked unsaved.
func (s *SiteService) Load(ctx context.Context) error {
	doc, found, err := s.gateway.Load(ctx)
	if err != nil {
		return err
	}
	if !found {
		doc = s.seed()
		s.logger.Info("no stored document, starting from template", zap.String("title", doc.Title))
	}
	if err := editor.Validate(doc); err != nil {
		return fmt.Errorf("load site %s: %w", s.siteID(), err)
	}

	lastActive := ""
	if s.settings != nil {
		if lastActive, err = s.settings.LastActivePage(ctx, s.siteID()); err != nil {
			s.logger.Warn("read last active page", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.doc = doc
	s.loaded = true
	s.dirty = !found
	s.rev++
	s.activePageID = editor.ResolveActivePage(doc, lastActive)
	s.recordLocked(ctx, "load", true)
	active := s.activePageID
	s.mu.Unlock()

	s.emitter.Emit(ctx, EventDocumentLoaded, map[string]any{"found": found, "activePageId": active})
	return nil
}

// ApplyExternal replaces the snapshot with a document written by another
// process, e.g. a hand edit of the file store. The result counts as saved
// and becomes the root of a fresh history.
func (s *SiteService) ApplyExternal(ctx context.Context, data []byte) error {
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: decode external document: %v", domain.ErrInvalidInput, err)
	}
	if err := editor.Validate(doc); err != nil {
		return err
	}

	s.mu.Lock()
	s.doc = doc
	s.loaded = true
	s.dirty = false
	s.rev++
	s.activePageID = editor.ResolveActivePage(doc, s.activePageID)
	// history starts over: undoing past this point would resurrect a
	// document the store no longer holds
	if err := s.history.Clear(ctx, s.siteID()); err != nil {
		s.logger.Warn("clear history", zap.Error(err))
	}
	s.recordLocked(ctx, "external edit", false)
	s.mu.Unlock()

	s.emitter.Emit(ctx, EventDocumentChanged, map[string]any{"label": "external edit"})
	return nil
}

// Save writes the current snapshot. The store call happens outside the lock
// so readers and edits are never blocked on I/O.
func (s *SiteService) Save(ctx context.Context) storage.SaveResult {
	s.mu.Lock()
	if !s.authenticated {
		s.mu.Unlock()
		return storage.SaveResult{Error: domain.ErrUnauthenticated.Error()}
	}
	if !s.loaded {
		s.mu.Unlock()
		return storage.SaveResult{Error: ErrNotLoaded.Error()}
	}
	doc, rev := s.doc, s.rev
	s.mu.Unlock()

	res := s.gateway.Save(ctx, doc)
	if res.Success {
		s.mu.Lock()
		if s.rev == rev {
			s.dirty = false
		}
		s.mu.Unlock()
		s.emitter.Emit(ctx, EventDocumentSaved, nil)
	}
	return res
}

// SaveIfDirty saves only when there are unsaved changes. The bool reports
// whether a save was attempted.
func (s *SiteService) SaveIfDirty(ctx context.Context) (storage.SaveResult, bool) {
	s.mu.Lock()
	dirty := s.dirty && s.authenticated
	s.mu.Unlock()
	if !dirty {
		return storage.SaveResult{Success: true}, false
	}
	return s.Save(ctx), true
}

// ── Session ────────────────────────────────────────────────

func (s *SiteService) Login(ctx context.Context) {
	s.setAuthenticated(ctx, true)
}

func (s *SiteService) Logout(ctx context.Context) {
	s.setAuthenticated(ctx, false)
}

func (s *SiteService) setAuthenticated(ctx context.Context, v bool) {
	s.mu.Lock()
	changed := s.authenticated != v
	s.authenticated = v
	s.mu.Unlock()
	if changed {
		s.emitter.Emit(ctx, EventSessionChanged, map[string]bool{"authenticated": v})
	}
}

func (s *SiteService) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *SiteService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// ── Reads ──────────────────────────────────────────────────

// Document returns the current snapshot. Snapshots are never modified after
// they are published, so the caller may keep it.
func (s *SiteService) Document() domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

func (s *SiteService) ActivePageID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePageID
}

// ActivePage resolves the active page with its ancestor path.
func (s *SiteService) ActivePage() (domain.PageState, error) {
	s.mu.Lock()
	doc, id := s.doc, s.activePageID
	s.mu.Unlock()
	return editor.PageState(doc, id)
}

func (s *SiteService) Page(pageID string) (domain.PageState, error) {
	return editor.PageState(s.Document(), s.resolvePageID(pageID))
}

// SetActivePage switches the page being edited. It needs no sign-in.
func (s *SiteService) SetActivePage(ctx context.Context, pageID string) error {
	s.mu.Lock()
	if _, ok := pagetree.FindByID(s.doc.Pages, pageID); !ok {
		s.mu.Unlock()
		return fmt.Errorf("page %q: %w", pageID, domain.ErrNotFound)
	}
	s.activePageID = pageID
	s.mu.Unlock()

	if s.settings != nil {
		if err := s.settings.SaveActivePage(ctx, s.siteID(), pageID); err != nil {
			s.logger.Warn("remember active page", zap.Error(err))
		}
	}
	s.emitter.Emit(ctx, EventPageActivated, map[string]string{"pageId": pageID})
	return nil
}

// resolvePageID falls back to the active page when pageID is empty.
func (s *SiteService) resolvePageID(pageID string) string {
	if pageID != "" {
		return pageID
	}
	return s.ActivePageID()
}

// History returns the edit history tree, or nil before the first edit.
func (s *SiteService) History(ctx context.Context) (*storage.HistoryTree, error) {
	return s.history.LoadTree(ctx, s.siteID())
}

// ── Mutations ──────────────────────────────────────────────

// mutate applies fn to the current snapshot under the lock. On success the
// result becomes current, is recorded under label and announced.
func (s *SiteService) mutate(ctx context.Context, label string, fn func(domain.Document) (domain.Document, error)) (domain.Document, error) {
	s.mu.Lock()
	if !s.authenticated {
		s.mu.Unlock()
		return domain.Document{}, domain.ErrUnauthenticated
	}
	if !s.loaded {
		s.mu.Unlock()
		return domain.Document{}, ErrNotLoaded
	}
	next, err := fn(s.doc)
	if err != nil {
		doc := s.doc
		s.mu.Unlock()
		return doc, err
	}
	s.doc = next
	s.dirty = true
	s.rev++
	s.activePageID = editor.ResolveActivePage(next, s.activePageID)
	s.recordLocked(ctx, label, false)
	active := s.activePageID
	s.mu.Unlock()

	s.emitter.Emit(ctx, EventDocumentChanged, map[string]any{"label": label, "activePageId": active})
	return next, nil
}

// recordLocked pushes the current snapshot onto history. With dedupe set, an
// identical current node is reused instead. History failures are logged:
// losing an undo step must not fail the edit.
func (s *SiteService) recordLocked(ctx context.Context, label string, dedupe bool) {
	data, err := json.Marshal(s.doc)
	if err != nil {
		s.logger.Error("encode history snapshot", zap.Error(err))
		return
	}
	if dedupe {
		if cur, err := s.history.Current(ctx, s.siteID()); err == nil && cur != nil && bytes.Equal(cur.Snapshot, data) {
			return
		}
	}
	if _, err := s.history.Push(ctx, s.siteID(), label, data); err != nil {
		s.logger.Warn("record history", zap.String("label", label), zap.Error(err))
	}
}

func (s *SiteService) AddBlock(ctx context.Context, pageID string, t domain.BlockType) (domain.Block, error) {
	return s.AddBlockWithData(ctx, pageID, t, nil)
}

// AddBlockWithData adds a block and merges data over its defaults as one
// edit. If data is rejected the block is not added.
func (s *SiteService) AddBlockWithData(ctx context.Context, pageID string, t domain.BlockType, data json.RawMessage) (domain.Block, error) {
	pageID = s.resolvePageID(pageID)
	var added domain.Block
	_, err := s.mutate(ctx, "add "+string(t)+" block", func(doc domain.Document) (domain.Document, error) {
		next, b, err := editor.AddBlock(doc, pageID, t)
		if err != nil {
			return doc, err
		}
		if !hasJSON(data) {
			added = b
			return next, nil
		}
		next, err = s.applyBlockPatch(next, pageID, b.ID, BlockPatch{Data: data})
		if err != nil {
			return doc, err
		}
		added, err = findBlock(next, pageID, b.ID)
		return next, err
	})
	return added, err
}

// BlockPatch changes any subset of a block. Data fields are merged over the
// current payload. SetStyle with a nil Style clears the style overrides.
type BlockPatch struct {
	Data     json.RawMessage
	Width    *domain.Width
	Padding  *domain.Padding
	Style    *domain.BlockStyle
	SetStyle bool
}

// UpdateBlock applies every part of patch as a single edit: either all of
// it lands or the document is unchanged.
func (s *SiteService) UpdateBlock(ctx context.Context, pageID, blockID string, patch BlockPatch) (domain.Block, error) {
	pageID = s.resolvePageID(pageID)
	if !hasJSON(patch.Data) && patch.Width == nil && patch.Padding == nil && !patch.SetStyle {
		return s.Block(pageID, blockID)
	}
	var updated domain.Block
	_, err := s.mutate(ctx, "edit block", func(doc domain.Document) (domain.Document, error) {
		next, err := s.applyBlockPatch(doc, pageID, blockID, patch)
		if err != nil {
			return doc, err
		}
		updated, err = findBlock(next, pageID, blockID)
		return next, err
	})
	return updated, err
}

// applyBlockPatch chains the block edits over doc without publishing
// anything. It runs under s.mu.
func (s *SiteService) applyBlockPatch(doc domain.Document, pageID, blockID string, patch BlockPatch) (domain.Document, error) {
	block, err := findBlock(doc, pageID, blockID)
	if err != nil {
		return doc, err
	}
	next := doc
	if hasJSON(patch.Data) {
		merged, err := mergePayload(block.Type, block.Data, patch.Data)
		if err != nil {
			return doc, err
		}
		if merged, err = s.plugins.Normalize(block.Type, merged); err != nil {
			return doc, err
		}
		if next, err = editor.UpdateBlockData(next, pageID, blockID, merged); err != nil {
			return doc, err
		}
	}
	if patch.Width != nil {
		if next, err = editor.UpdateBlockWidth(next, pageID, blockID, *patch.Width); err != nil {
			return doc, err
		}
	}
	if patch.Padding != nil {
		if next, err = editor.UpdateBlockPadding(next, pageID, blockID, *patch.Padding); err != nil {
			return doc, err
		}
	}
	if patch.SetStyle {
		if next, err = editor.UpdateBlockStyle(next, pageID, blockID, patch.Style); err != nil {
			return doc, err
		}
	}
	return next, nil
}

func hasJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// UpdateBlockData replaces a block's payload after the block type's plugin
// has normalised it.
func (s *SiteService) UpdateBlockData(ctx context.Context, pageID, blockID string, data domain.Payload) error {
	pageID = s.resolvePageID(pageID)
	if data == nil {
		return fmt.Errorf("%w: nil payload", domain.ErrInvalidInput)
	}
	data, err := s.plugins.Normalize(data.BlockType(), data)
	if err != nil {
		return err
	}
	_, err = s.mutate(ctx, "edit block", func(doc domain.Document) (domain.Document, error) {
		return editor.UpdateBlockData(doc, pageID, blockID, data)
	})
	return err
}

// PatchBlockData merges the fields in patch over the block's current payload
// and stores the result. Fields absent from patch keep their values.
func (s *SiteService) PatchBlockData(ctx context.Context, pageID, blockID string, patch json.RawMessage) (domain.Payload, error) {
	if !hasJSON(patch) {
		return nil, fmt.Errorf("%w: block data is required", domain.ErrInvalidInput)
	}
	block, err := s.UpdateBlock(ctx, pageID, blockID, BlockPatch{Data: patch})
	if err != nil {
		return nil, err
	}
	return block.Data, nil
}

// Block finds one block on a page.
func (s *SiteService) Block(pageID, blockID string) (domain.Block, error) {
	return findBlock(s.Document(), s.resolvePageID(pageID), blockID)
}

func findBlock(doc domain.Document, pageID, blockID string) (domain.Block, error) {
	state, err := editor.PageState(doc, pageID)
	if err != nil {
		return domain.Block{}, err
	}
	b, ok := sections.Find(state.Page.Sections, blockID)
	if !ok {
		return domain.Block{}, fmt.Errorf("block %q: %w", blockID, domain.ErrNotFound)
	}
	return b, nil
}

func mergePayload(t domain.BlockType, current domain.Payload, patch json.RawMessage) (domain.Payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, fmt.Errorf("%w: block data must be a JSON object: %v", domain.ErrInvalidInput, err)
	}
	base := map[string]json.RawMessage{}
	if current != nil {
		raw, err := json.Marshal(current)
		if err != nil {
			return nil, fmt.Errorf("encode current payload: %w", err)
		}
		if err := json.Unmarshal(raw, &base); err != nil {
			return nil, fmt.Errorf("decode current payload: %w", err)
		}
	}
	for k, v := range fields {
		base[k] = v
	}
	raw, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("encode merged payload: %w", err)
	}
	p, err := domain.DecodePayload(t, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return p, nil
}

func (s *SiteService) UpdateBlockWidth(ctx context.Context, pageID, blockID string, w domain.Width) error {
	pageID = s.resolvePageID(pageID)
	_, err := s.mutate(ctx, "resize block", func(doc domain.Document) (domain.Document, error) {
		return editor.UpdateBlockWidth(doc, pageID, blockID, w)
	})
	return err
}

func (s *SiteService) UpdateBlockPadding(ctx context.Context, pageID, blockID string, p domain.Padding) error {
	pageID = s.resolvePageID(pageID)
	_, err := s.mutate(ctx, "change block padding", func(doc domain.Document) (domain.Document, error) {
		return editor.UpdateBlockPadding(doc, pageID, blockID, p)
	})
	return err
}

func (s *SiteService) UpdateBlockStyle(ctx context.Context, pageID, blockID string, style *domain.BlockStyle) error {
	pageID = s.resolvePageID(pageID)
	_, err := s.mutate(ctx, "style block", func(doc domain.Document) (domain.Document, error) {
		return editor.UpdateBlockStyle(doc, pageID, blockID, style)
	})
	return err
}

func (s *SiteService) DeleteBlock(ctx context.Context, pageID, blockID string) error {
	pageID = s.resolvePageID(pageID)
	_, err := s.mutate(ctx, "delete block", func(doc domain.Document) (domain.Document, error) {
		return editor.DeleteBlock(doc, pageID, blockID)
	})
	return err
}

func (s *SiteService) MoveBlock(ctx context.Context, pageID string, index int, dir domain.Direction) error {
	pageID = s.resolvePageID(pageID)
	_, err := s.mutate(ctx, "move block "+string(dir), func(doc domain.Document) (domain.Document, error) {
		return editor.MoveBlock(doc, pageID, index, dir)
	})
	return err
}

func (s *SiteService) AddPage(ctx context.Context, name, parentID string) (domain.Page, error) {
	var added domain.Page
	_, err := s.mutate(ctx, "add page", func(doc domain.Document) (domain.Document, error) {
		next, p, err := editor.AddPage(doc, name, parentID)
		added = p
		return next, err
	})
	return added, err
}

func (s *SiteService) RenamePage(ctx context.Context, pageID, name string) error {
	_, err := s.mutate(ctx, "rename page", func(doc domain.Document) (domain.Document, error) {
		return editor.RenamePage(doc, pageID, name)
	})
	return err
}

// DeletePage removes a page subtree. If the active page goes with it the
// session falls back to the first root page.
func (s *SiteService) DeletePage(ctx context.Context, pageID string) error {
	_, err := s.mutate(ctx, "delete page", func(doc domain.Document) (domain.Document, error) {
		return editor.DeletePage(doc, pageID)
	})
	return err
}

func (s *SiteService) MovePage(ctx context.Context, pageID string, dir domain.Direction) error {
	_, err := s.mutate(ctx, "move page "+string(dir), func(doc domain.Document) (domain.Document, error) {
		return editor.MovePage(doc, pageID, dir)
	})
	return err
}

func (s *SiteService) TogglePageOpen(ctx context.Context, pageID string) error {
	_, err := s.mutate(ctx, "toggle page", func(doc domain.Document) (domain.Document, error) {
		return editor.TogglePageOpen(doc, pageID)
	})
	return err
}

func (s *SiteService) UpdateSettings(ctx context.Context, patch editor.SettingsPatch) (domain.Document, error) {
	return s.mutate(ctx, "update settings", func(doc domain.Document) (domain.Document, error) {
		return editor.UpdateSettings(doc, patch)
	})
}

// ── Undo / redo ────────────────────────────────────────────

// Undo restores the snapshot before the current one.
func (s *SiteService) Undo(ctx context.Context) error {
	return s.travel(ctx, "undo", func(cur *storage.HistoryNode) (*storage.HistoryNode, error) {
		if cur == nil || cur.ParentID == nil {
			return nil, ErrNothingToUndo
		}
		return s.history.Get(ctx, s.siteID(), *cur.ParentID)
	})
}

// Redo follows the most recent branch forward from the current snapshot.
func (s *SiteService) Redo(ctx context.Context) error {
	return s.travel(ctx, "redo", func(cur *storage.HistoryNode) (*storage.HistoryNode, error) {
		if cur == nil {
			return nil, ErrNothingToRedo
		}
		return s.history.LatestChild(ctx, s.siteID(), cur.ID)
	})
}

func (s *SiteService) travel(ctx context.Context, label string, pick func(*storage.HistoryNode) (*storage.HistoryNode, error)) error {
	s.mu.Lock()
	target, err := s.travelLocked(ctx, label, pick)
	active := s.activePageID
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventDocumentChanged, map[string]any{"label": label, "to": target.Label, "activePageId": active})
	return nil
}

func (s *SiteService) travelLocked(ctx context.Context, label string, pick func(*storage.HistoryNode) (*storage.HistoryNode, error)) (*storage.HistoryNode, error) {
	if !s.authenticated {
		return nil, domain.ErrUnauthenticated
	}
	cur, err := s.history.Current(ctx, s.siteID())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	target, err := pick(cur)
	if err != nil {
		return nil, err
	}
	if target == nil {
		if label == "undo" {
			return nil, ErrNothingToUndo
		}
		return nil, ErrNothingToRedo
	}

	var doc domain.Document
	if err := json.Unmarshal(target.Snapshot, &doc); err != nil {
		return nil, fmt.Errorf("%s: decode snapshot: %w", label, err)
	}
	if err := s.history.GoTo(ctx, s.siteID(), target.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	s.doc = doc
	s.dirty = true
	s.rev++
	s.activePageID = editor.ResolveActivePage(doc, s.activePageID)
	return target, nil
}

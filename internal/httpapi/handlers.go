// Package httpapi exposes the editing session as a JSON API for the
// presentation layer.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/editor"
	"pagebuilder/internal/service"
)

const maxBodyBytes = 1 << 20

// Handlers serves the site editing endpoints.
type Handlers struct {
	site   *service.SiteService
	logger *zap.Logger
}

func New(site *service.SiteService, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{site: site, logger: logger}
}

// Router builds the full handler tree with middleware.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(traceRequests)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(limitBody(maxBodyBytes))
	r.Route("/api", h.Routes)
	return r
}

// Routes registers the endpoints against r.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/healthz", h.healthz)

	r.Get("/document", h.getDocument)
	r.Put("/settings", h.updateSettings)
	r.Put("/active-page", h.setActivePage)

	r.Post("/pages", h.addPage)
	r.Get("/pages/{pageID}", h.getPage)
	r.Patch("/pages/{pageID}", h.renamePage)
	r.Delete("/pages/{pageID}", h.deletePage)
	r.Post("/pages/{pageID}/move", h.movePage)
	r.Post("/pages/{pageID}/toggle", h.togglePage)

	r.Post("/blocks", h.addBlock)
	r.Post("/blocks/move", h.moveBlock)
	r.Patch("/blocks/{blockID}", h.updateBlock)
	r.Delete("/blocks/{blockID}", h.deleteBlock)

	r.Post("/undo", h.undo)
	r.Post("/redo", h.redo)
	r.Get("/history", h.history)
	r.Post("/save", h.save)
	r.Post("/session/login", h.login)
	r.Post("/session/logout", h.logout)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// writeMove reports a reorder. A move at a boundary is not an error.
func (h *Handlers) writeMove(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"moved": true})
	case errors.Is(err, domain.ErrBoundary):
		writeJSON(w, http.StatusOK, map[string]any{"moved": false, "reason": err.Error()})
	default:
		h.writeError(w, r, err)
	}
}

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ── Document ───────────────────────────────────────────────

type documentResponse struct {
	Document      domain.Document `json:"document"`
	ActivePageID  string          `json:"activePageId"`
	Authenticated bool            `json:"authenticated"`
	Dirty         bool            `json:"dirty"`
}

func (h *Handlers) getDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, documentResponse{
		Document:      h.site.Document(),
		ActivePageID:  h.site.ActivePageID(),
		Authenticated: h.site.Authenticated(),
		Dirty:         h.site.Dirty(),
	})
}

func (h *Handlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	var patch editor.SettingsPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	doc, err := h.site.UpdateSettings(r.Context(), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handlers) setActivePage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PageID string `json:"pageId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.site.SetActivePage(r.Context(), body.PageID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writePage(w, r, body.PageID)
}

// ── Pages ──────────────────────────────────────────────────

func (h *Handlers) writePage(w http.ResponseWriter, r *http.Request, pageID string) {
	state, err := h.site.Page(pageID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) getPage(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, chi.URLParam(r, "pageID"))
}

func (h *Handlers) addPage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		ParentID string `json:"parentId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.site.AddPage(r.Context(), body.Name, body.ParentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, page)
}

func (h *Handlers) renamePage(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.site.RenamePage(r.Context(), pageID, body.Name); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writePage(w, r, pageID)
}

func (h *Handlers) deletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.site.DeletePage(r.Context(), chi.URLParam(r, "pageID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) movePage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Direction domain.Direction `json:"direction"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeMove(w, r, h.site.MovePage(r.Context(), chi.URLParam(r, "pageID"), body.Direction))
}

func (h *Handlers) togglePage(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	if err := h.site.TogglePageOpen(r.Context(), pageID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writePage(w, r, pageID)
}

// ── Blocks ─────────────────────────────────────────────────

func (h *Handlers) addBlock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type   domain.BlockType `json:"type"`
		PageID string           `json:"pageId"`
		Data   json.RawMessage  `json:"data"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	block, err := h.site.AddBlockWithData(r.Context(), body.PageID, body.Type, body.Data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

// blockPatch changes any subset of a block in one edit. Style "null" clears
// the overrides.
type blockPatch struct {
	PageID  string          `json:"pageId"`
	Data    json.RawMessage `json:"data"`
	Width   *domain.Width   `json:"width"`
	Padding *domain.Padding `json:"padding"`
	Style   json.RawMessage `json:"style"`
}

func (h *Handlers) updateBlock(w http.ResponseWriter, r *http.Request) {
	blockID := chi.URLParam(r, "blockID")
	var body blockPatch
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	patch := service.BlockPatch{Data: body.Data, Width: body.Width, Padding: body.Padding}
	if len(body.Style) > 0 {
		patch.SetStyle = true
		if err := json.Unmarshal(body.Style, &patch.Style); err != nil {
			h.writeError(w, r, fmt.Errorf("%w: style: %v", domain.ErrInvalidInput, err))
			return
		}
	}

	block, err := h.site.UpdateBlock(r.Context(), body.PageID, blockID, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (h *Handlers) deleteBlock(w http.ResponseWriter, r *http.Request) {
	pageID := r.URL.Query().Get("pageId")
	if err := h.site.DeleteBlock(r.Context(), pageID, chi.URLParam(r, "blockID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) moveBlock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PageID    string           `json:"pageId"`
		Index     int              `json:"index"`
		Direction domain.Direction `json:"direction"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeMove(w, r, h.site.MoveBlock(r.Context(), body.PageID, body.Index, body.Direction))
}

// ── History, persistence and session ──────────────────────

func (h *Handlers) undo(w http.ResponseWriter, r *http.Request) {
	h.writeMove(w, r, h.site.Undo(r.Context()))
}

func (h *Handlers) redo(w http.ResponseWriter, r *http.Request) {
	h.writeMove(w, r, h.site.Redo(r.Context()))
}

func (h *Handlers) history(w http.ResponseWriter, r *http.Request) {
	tree, err := h.site.History(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (h *Handlers) save(w http.ResponseWriter, r *http.Request) {
	if !h.site.Authenticated() {
		h.writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	res := h.site.Save(r.Context())
	status := http.StatusOK
	if !res.Success {
		// the edit session is intact; only the store failed
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	h.site.Login(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.site.Logout(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
}

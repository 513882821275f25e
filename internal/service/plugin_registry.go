package service

import (
	"fmt"
	"sort"
	"sync"

	"pagebuilder/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Payload Plugin Registry: per-type payload normalisation
// ─────────────────────────────────────────────────────────────

// PayloadPlugin cleans up the payload of one block type before it enters
// the document, e.g. by sanitising HTML or rejecting unsafe URLs.
type PayloadPlugin interface {
	// BlockType returns the block type this plugin handles (e.g. "richText").
	BlockType() domain.BlockType
	// Normalize returns the payload to store, or an error wrapping
	// domain.ErrInvalidInput when it must be rejected.
	Normalize(p domain.Payload) (domain.Payload, error)
}

// PluginRegistry holds at most one PayloadPlugin per block type.
type PluginRegistry struct {
	mu      sync.RWMutex
	plugins map[domain.BlockType]PayloadPlugin
}

func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{plugins: make(map[domain.BlockType]PayloadPlugin)}
}

// Register adds a plugin to the registry. Panics on duplicate registration.
func (r *PluginRegistry) Register(p PayloadPlugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := p.BlockType()
	if _, exists := r.plugins[t]; exists {
		panic(fmt.Sprintf("plugin registry: duplicate registration for block type %q", t))
	}
	r.plugins[t] = p
}

// Normalize runs the plugin registered for t, if any.
func (r *PluginRegistry) Normalize(t domain.BlockType, p domain.Payload) (domain.Payload, error) {
	if r == nil {
		return p, nil
	}
	r.mu.RLock()
	plugin, ok := r.plugins[t]
	r.mu.RUnlock()
	if !ok {
		return p, nil
	}
	out, err := plugin.Normalize(p)
	if err != nil {
		return nil, fmt.Errorf("%s plugin: %w", t, err)
	}
	return out, nil
}

// Types lists the block types that have a plugin, sorted.
func (r *PluginRegistry) Types() []domain.BlockType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.BlockType, 0, len(r.plugins))
	for t := range r.plugins {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

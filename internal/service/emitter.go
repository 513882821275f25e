package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples the session from its listeners
// ─────────────────────────────────────────────────────────────

// Event names emitted by SiteService.
const (
	EventDocumentChanged = "document:changed"
	EventDocumentLoaded  = "document:loaded"
	EventDocumentSaved   = "document:saved"
	EventPageActivated   = "page:activated"
	EventSessionChanged  = "session:changed"
)

// EventEmitter is an interface for emitting events to whatever is watching
// the session (MCP notifications, logs, tests).
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event
	}
	return out
}

// LogEmitter writes every event to a zap logger at debug level.
type LogEmitter struct {
	Logger *zap.Logger
}

func (l LogEmitter) Emit(_ context.Context, event string, data any) {
	if l.Logger == nil {
		return
	}
	l.Logger.Debug("event", zap.String("event", event), zap.Any("data", data))
}

// MultiEmitter fans an event out to several emitters.
type MultiEmitter []EventEmitter

func (m MultiEmitter) Emit(ctx context.Context, event string, data any) {
	for _, e := range m {
		if e != nil {
			e.Emit(ctx, event, data)
		}
	}
}

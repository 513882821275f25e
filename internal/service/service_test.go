package service_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
)

// ─────────────────────────────────────────────────────────────
// runningGuard tests
// ─────────────────────────────────────────────────────────────

func TestRunningGuard_TryLock(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("autosave") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("autosave") {
		t.Fatal("expected second TryLock for same task to fail")
	}
	if !g.TryLock("export") {
		t.Fatal("expected TryLock for different task to succeed")
	}
	g.Unlock("autosave")
	g.Unlock("export")

	if !g.TryLock("autosave") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("autosave")
}

func TestRunningGuard_UnlockUnknownIsNoop(t *testing.T) {
	var g service.ExportedRunningGuard
	g.Unlock("never-locked")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	g.WaitAll(ctx)
	if ctx.Err() != nil {
		t.Fatal("WaitAll should return immediately with nothing running")
	}
}

func TestRunningGuard_WaitAll(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("autosave") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("autosave")
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// Emitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if got := m.Names(); got[0] != "test:event" || got[1] != "test:event2" {
		t.Errorf("unexpected names %v", got)
	}
}

func TestLogEmitter_WritesDebugEntry(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := service.LogEmitter{Logger: zap.New(core)}

	e.Emit(context.Background(), service.EventDocumentSaved, nil)

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["event"]; got != service.EventDocumentSaved {
		t.Errorf("expected event field %q, got %v", service.EventDocumentSaved, got)
	}
}

func TestMultiEmitter_FansOut(t *testing.T) {
	a, b := &service.MockEmitter{}, &service.MockEmitter{}
	service.MultiEmitter{a, nil, b}.Emit(context.Background(), "x", nil)
	if len(a.Events) != 1 || len(b.Events) != 1 {
		t.Fatalf("expected both emitters to receive the event")
	}
}

// ─────────────────────────────────────────────────────────────
// PluginRegistry tests
// ─────────────────────────────────────────────────────────────

type upperPlugin struct{}

func (upperPlugin) BlockType() domain.BlockType { return domain.BlockTypeHeading }
func (upperPlugin) Normalize(p domain.Payload) (domain.Payload, error) {
	h := p.(domain.HeadingPayload)
	h.Text = "[" + h.Text + "]"
	return h, nil
}

func TestPluginRegistry(t *testing.T) {
	r := service.NewPluginRegistry()
	r.Register(upperPlugin{})

	out, err := r.Normalize(domain.BlockTypeHeading, domain.HeadingPayload{Text: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if out.(domain.HeadingPayload).Text != "[hi]" {
		t.Errorf("plugin not applied: %+v", out)
	}

	same, err := r.Normalize(domain.BlockTypeSpacer, domain.SpacerPayload{Height: 3})
	if err != nil || same.(domain.SpacerPayload).Height != 3 {
		t.Errorf("types without a plugin pass through unchanged")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	r.Register(upperPlugin{})
}

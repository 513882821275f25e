package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"pagebuilder/internal/config"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/storage"
)

func newTestApp(t *testing.T, env map[string]string) *App {
	t.Helper()
	dir := t.TempDir()
	values := map[string]string{
		"PAGEBUILDER_STORE_PATH":          filepath.Join(dir, "site.db"),
		"PAGEBUILDER_STORE_DIR":           filepath.Join(dir, "sites"),
		"PAGEBUILDER_START_AUTHENTICATED": "true",
		"PAGEBUILDER_AUTOSAVE":            "false",
		"PAGEBUILDER_LOG_LEVEL":           "error",
	}
	for k, v := range env {
		values[k] = v
	}
	a, err := New(context.Background(), "test",
		config.WithEnvMap(values),
		config.WithoutSystemEnv(),
		config.WithEnvFile(""),
	)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func TestNewSeedsDefaultSite(t *testing.T) {
	a := newTestApp(t, nil)

	s := a.Summary()
	assert.Equal(t, "default", s.SiteID)
	assert.Equal(t, "sqlite", s.Driver)
	assert.Equal(t, "My Site", s.Title)
	assert.Equal(t, 1, s.PageCount)
	assert.True(t, s.Dirty)
	require.Len(t, s.Outline, 1)
	assert.True(t, s.Outline[0].Active)
	assert.NotNil(t, a.MCP())
}

func TestNewSeedsFromTemplate(t *testing.T) {
	tpl := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(tpl, []byte(`
title: Corner Bakery
font: lato
pages:
  - name: Home
    sections:
      - type: hero
  - name: Menu
    subPages:
      - name: Bread
`), 0o644))

	a := newTestApp(t, map[string]string{"PAGEBUILDER_TEMPLATE_FILE": tpl})

	s := a.Summary()
	assert.Equal(t, "Corner Bakery", s.Title)
	assert.Equal(t, domain.FontLato, s.Font)
	assert.Equal(t, 3, s.PageCount)
	assert.Equal(t, 1, s.BlockCount)
	assert.Equal(t, 1, s.Outline[2].Depth)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(context.Background(), "test",
		config.WithEnvMap(map[string]string{
			"PAGEBUILDER_STORE_PATH":   filepath.Join(t.TempDir(), "site.db"),
			"PAGEBUILDER_STORE_DRIVER": "cassandra",
		}),
		config.WithoutSystemEnv(),
		config.WithEnvFile(""),
	)
	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields(), "Store.Driver")
}

func TestCloseFlushesThroughAutosave(t *testing.T) {
	dir := t.TempDir()
	env := map[string]string{
		"PAGEBUILDER_STORE_PATH":          filepath.Join(dir, "site.db"),
		"PAGEBUILDER_START_AUTHENTICATED": "true",
		"PAGEBUILDER_AUTOSAVE_SCHEDULE":   "@every 1h",
		"PAGEBUILDER_STORE_WATCH":         "false",
		"PAGEBUILDER_LOG_LEVEL":           "error",
	}
	opts := []config.Option{config.WithEnvMap(env), config.WithoutSystemEnv(), config.WithEnvFile("")}

	a, err := New(context.Background(), "test", opts...)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	_, err = a.Site().AddPage(context.Background(), "About", "")
	require.NoError(t, err)
	a.Close(context.Background())

	reopened, err := New(context.Background(), "test", opts...)
	require.NoError(t, err)
	defer reopened.Close(context.Background())
	assert.Equal(t, 2, reopened.Summary().PageCount)
	assert.False(t, reopened.Summary().Dirty)
}

func TestFileStoreExternalEdit(t *testing.T) {
	a := newTestApp(t, map[string]string{"PAGEBUILDER_STORE_DRIVER": "file"})
	ctx := context.Background()
	require.NoError(t, a.Start(ctx))
	require.True(t, a.Site().Save(ctx).Success)

	doc := a.Site().Document()
	doc.Title = "Edited by hand"
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	// write-then-rename, the way editors save
	tmp := filepath.Join(a.Config().Store.Dir, "edit.tmp")
	require.NoError(t, os.WriteFile(tmp, data, 0o644))
	require.NoError(t, os.Rename(tmp, filepath.Join(a.Config().Store.Dir, "default.json")))

	assert.Eventually(t, func() bool {
		return a.Site().Document().Title == "Edited by hand"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSQLiteWatcherPicksUpOtherWriters(t *testing.T) {
	a := newTestApp(t, map[string]string{"PAGEBUILDER_STORE_WATCH": "false"})
	ctx := context.Background()
	require.True(t, a.Site().Save(ctx).Success)

	store := a.store.(*storage.SQLiteDocumentStore)
	w := newPageWatcher(ctx, a, store)
	w.interval = 10 * time.Millisecond
	w.Start()
	defer w.Stop()

	// our own save must not count as an external change
	_, err := a.Site().AddPage(ctx, "About", "")
	require.NoError(t, err)
	require.True(t, a.Site().Save(ctx).Success)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, a.Site().Document().Pages, 2)

	doc := a.Site().Document()
	doc.Title = "Written elsewhere"
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, store.SaveDocument(ctx, "default", data))

	assert.Eventually(t, func() bool {
		return a.Site().Document().Title == "Written elsewhere"
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, a.Site().Dirty())
}

func TestSQLiteWatcherSkipsOwnSavesWithPendingEdits(t *testing.T) {
	a := newTestApp(t, map[string]string{"PAGEBUILDER_STORE_WATCH": "false"})
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	a.logger = zap.New(core)
	require.True(t, a.Site().Save(ctx).Success)

	w := newPageWatcher(ctx, a, a.store.(*storage.SQLiteDocumentStore))
	w.interval = 10 * time.Millisecond
	w.Start()
	defer w.Stop()

	_, err := a.Site().AddPage(ctx, "About", "")
	require.NoError(t, err)
	require.True(t, a.Site().Save(ctx).Success)
	// edited again before the next poll sees the save above
	_, err = a.Site().AddPage(ctx, "Contact", "")
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)

	assert.Zero(t, logs.Len(), "own save reported as an external change")
	assert.Len(t, a.Site().Document().Pages, 3)
	assert.True(t, a.Site().Dirty())
}

func TestWatcherKeepsUnsavedEdits(t *testing.T) {
	a := newTestApp(t, map[string]string{"PAGEBUILDER_STORE_WATCH": "false"})
	ctx := context.Background()

	doc := a.Site().Document()
	doc.Title = "Written elsewhere"
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	require.True(t, a.Site().Dirty())
	a.applyExternal(ctx, data)
	assert.Equal(t, "My Site", a.Site().Document().Title)
}

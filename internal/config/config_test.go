package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/pagetree"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Site.ID)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "pagebuilder.db", cfg.Store.Path)
	assert.True(t, cfg.Store.Watch)
	assert.Equal(t, 40, cfg.History.Limit)
	assert.Equal(t, "@every 30s", cfg.Autosave.Schedule)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Site.StartAuthenticated)
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"PAGEBUILDER_SITE_ID":              "bakery",
		"PAGEBUILDER_STORE_DRIVER":         "Postgres",
		"PAGEBUILDER_STORE_DSN":            "postgres://app@db/site",
		"PAGEBUILDER_STORE_PASSWORD":       "secret://db-password",
		"PAGEBUILDER_FIRESTORE_PROJECT_ID": "bakery-prod",
		"PAGEBUILDER_HISTORY_LIMIT":        "10",
		"PAGEBUILDER_HTTP_READ_TIMEOUT":    "3s",
		"PAGEBUILDER_LOG_LEVEL":            "DEBUG",
		"PAGEBUILDER_AUTOSAVE":             "off",
		"PAGEBUILDER_START_AUTHENTICATED":  "yes",
	}
	var asked []string
	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		asked = append(asked, ref)
		return "hunter2", nil
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	require.NoError(t, err)

	assert.Equal(t, "bakery", cfg.Site.ID)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "hunter2", cfg.Store.Password)
	assert.Equal(t, "postgres://app@db/site", cfg.Store.DSN)
	assert.Equal(t, []string{"secret://db-password"}, asked)
	assert.Equal(t, "bakery-prod", cfg.Secrets.ProjectID)
	assert.Equal(t, 10, cfg.History.Limit)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Autosave.Enabled)
	assert.True(t, cfg.Site.StartAuthenticated)
}

func TestLoadValidation(t *testing.T) {
	env := map[string]string{
		"PAGEBUILDER_STORE_DRIVER":  "cassandra",
		"PAGEBUILDER_HISTORY_LIMIT": "0",
		"PAGEBUILDER_LOG_LEVEL":     "chatty",
	}
	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"Store.Driver", "History.Limit", "Log.Level"}, verr.Fields())

	_, err = Load(context.Background(), WithEnvMap(map[string]string{"PAGEBUILDER_STORE_DRIVER": "redis"}), WithoutSystemEnv(), WithEnvFile(""))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Store.DSN"}, verr.Fields())
}

func TestLoadSecretFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := Load(context.Background(),
		WithEnvMap(map[string]string{"PAGEBUILDER_STORE_PASSWORD": "sm://db"}),
		WithoutSystemEnv(), WithEnvFile(""),
		WithSecretResolver(SecretResolverFunc(func(context.Context, string) (string, error) { return "", boom })),
	)
	var serr *SecretError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "sm://db", serr.Ref)
	assert.ErrorIs(t, err, boom)

	_, err = Load(context.Background(),
		WithEnvMap(map[string]string{"PAGEBUILDER_STORE_PASSWORD": "secret://db"}),
		WithoutSystemEnv(), WithEnvFile(""),
	)
	assert.ErrorIs(t, err, errSecretResolverNotConfigured)
}

func TestDotEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "# local\nexport PAGEBUILDER_SITE_ID=\"from-file\"\nPAGEBUILDER_HTTP_ADDR=:9000\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := Load(context.Background(), WithEnvFile(envFile), WithoutSystemEnv(),
		WithEnvMap(map[string]string{"PAGEBUILDER_HTTP_ADDR": ":7000"}))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Site.ID)
	assert.Equal(t, ":7000", cfg.HTTP.Addr, "explicit map beats .env")

	v, err := Lookup("PAGEBUILDER_SITE_ID", WithEnvFile(envFile), WithoutSystemEnv())
	require.NoError(t, err)
	assert.Equal(t, "from-file", v)
}

const bakeryTemplate = `
title: Bakery
font: lato
primaryColor: "#7c2d12"
pages:
  - name: Home
    sections:
      - type: hero
        data:
          title: Fresh bread daily
      - type: spacer
        width: 1/2
        padding: lg
  - name: Menu
    subPages:
      - name: Cakes
      - name: Bread
`

func TestTemplateBuild(t *testing.T) {
	tmpl, err := ParseTemplate([]byte(bakeryTemplate))
	require.NoError(t, err)

	doc, err := tmpl.Build()
	require.NoError(t, err)

	assert.Equal(t, "Bakery", doc.Title)
	assert.Equal(t, domain.FontLato, doc.Font)
	assert.Equal(t, "#7c2d12", doc.PrimaryColor)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, 4, pagetree.Count(doc.Pages))

	home := doc.Pages[0]
	assert.Equal(t, "home", home.Slug)
	require.Len(t, home.Sections, 2)
	hero := home.Sections[0].Data.(domain.HeroPayload)
	assert.Equal(t, "Fresh bread daily", hero.Title)
	assert.Equal(t, domain.WidthHalf, home.Sections[1].Width)
	assert.Equal(t, domain.PaddingLG, home.Sections[1].Padding)

	menu := doc.Pages[1]
	assert.Equal(t, "menu", menu.Slug)
	assert.False(t, menu.IsOpen)
	assert.Equal(t, []string{"Cakes", "Bread"}, []string{menu.SubPages[0].Name, menu.SubPages[1].Name})
}

func TestTemplateRejectsUnknownBlock(t *testing.T) {
	tmpl, err := ParseTemplate([]byte("pages:\n  - name: Home\n    sections:\n      - type: carousel3d\n"))
	require.NoError(t, err)
	_, err = tmpl.Build()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = ParseTemplate([]byte("pages: [unclosed"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoadTemplateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(bakeryTemplate), 0o600))
	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "Bakery", tmpl.Title)

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile          = ".env"
	defaultSiteID           = "default"
	defaultStoreDriver      = "sqlite"
	defaultStorePath        = "pagebuilder.db"
	defaultStoreDir         = "sites"
	defaultHistoryLimit     = 40
	defaultAutosaveSchedule = "@every 30s"
	defaultHTTPAddr         = ":8080"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultLogLevel         = "info"
)

var drivers = map[string]bool{
	"sqlite": true, "postgres": true, "mysql": true, "mongodb": true,
	"redis": true, "firestore": true, "file": true,
}

// Config captures all runtime configuration organised by concern.
type Config struct {
	Site     SiteConfig
	Store    StoreConfig
	History  HistoryConfig
	Autosave AutosaveConfig
	HTTP     HTTPConfig
	Log      LogConfig
	Secrets  SecretsConfig
}

// SiteConfig names the document being edited and how a new one is seeded.
type SiteConfig struct {
	ID                 string
	TemplateFile       string
	StartAuthenticated bool
}

// StoreConfig selects and configures the document store driver.
type StoreConfig struct {
	Driver                string
	DSN                   string
	Path                  string // sqlite database; also holds history and settings
	Dir                   string // file driver
	Password              string
	Database              string
	FirestoreProjectID    string
	FirestoreEmulatorHost string
	Watch                 bool
}

type HistoryConfig struct {
	Limit int
}

type AutosaveConfig struct {
	Enabled  bool
	Schedule string
}

type HTTPConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level string
}

// SecretsConfig configures secret:// resolution.
type SecretsConfig struct {
	ProjectID   string
	UseKeychain bool
}

// SecretResolver resolves secret:// references.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secret       SecretResolver
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// WithSecretResolver sets the resolver used for secret:// values.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) { o.secret = resolver }
}

// Lookup returns the raw value of key with the same precedence as Load
// (explicit map, then OS env, then .env). Bootstrap code uses it to build
// the secret resolver before Load runs.
func Lookup(key string, opts ...Option) (string, error) {
	options := defaults()
	for _, opt := range opts {
		opt(&options)
	}
	lookup, err := options.lookupFunc()
	if err != nil {
		return "", err
	}
	v, _ := lookup(key)
	return v, nil
}

func defaults() loaderOptions {
	return loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(ctx context.Context, ref string) (string, error) {
			return "", errSecretResolverNotConfigured
		}),
	}
}

func (o loaderOptions) lookupFunc() (func(string) (string, bool), error) {
	dotEnvValues, err := loadDotEnv(o.envFile)
	if err != nil {
		return nil, err
	}
	return func(key string) (string, bool) {
		if o.envMap != nil {
			if value, ok := o.envMap[key]; ok {
				return value, true
			}
		}
		if o.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}, nil
}

// Load assembles the configuration from defaults, .env overrides, environment
// variables and secret lookups.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := defaults()
	for _, opt := range opts {
		opt(&options)
	}
	lookup, err := options.lookupFunc()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Site: SiteConfig{
			ID:                 stringWithDefault(lookup, "PAGEBUILDER_SITE_ID", defaultSiteID),
			TemplateFile:       stringWithDefault(lookup, "PAGEBUILDER_TEMPLATE_FILE", ""),
			StartAuthenticated: boolWithDefault(lookup, "PAGEBUILDER_START_AUTHENTICATED", false),
		},
		Store: StoreConfig{
			Driver:                strings.ToLower(stringWithDefault(lookup, "PAGEBUILDER_STORE_DRIVER", defaultStoreDriver)),
			DSN:                   stringWithDefault(lookup, "PAGEBUILDER_STORE_DSN", ""),
			Path:                  stringWithDefault(lookup, "PAGEBUILDER_STORE_PATH", defaultStorePath),
			Dir:                   stringWithDefault(lookup, "PAGEBUILDER_STORE_DIR", defaultStoreDir),
			Password:              stringWithDefault(lookup, "PAGEBUILDER_STORE_PASSWORD", ""),
			Database:              stringWithDefault(lookup, "PAGEBUILDER_STORE_DATABASE", ""),
			FirestoreProjectID:    stringWithDefault(lookup, "PAGEBUILDER_FIRESTORE_PROJECT_ID", ""),
			FirestoreEmulatorHost: stringWithDefault(lookup, "PAGEBUILDER_FIRESTORE_EMULATOR_HOST", ""),
			Watch:                 boolWithDefault(lookup, "PAGEBUILDER_STORE_WATCH", true),
		},
		History: HistoryConfig{
			Limit: intWithDefault(lookup, "PAGEBUILDER_HISTORY_LIMIT", defaultHistoryLimit),
		},
		Autosave: AutosaveConfig{
			Enabled:  boolWithDefault(lookup, "PAGEBUILDER_AUTOSAVE", true),
			Schedule: stringWithDefault(lookup, "PAGEBUILDER_AUTOSAVE_SCHEDULE", defaultAutosaveSchedule),
		},
		HTTP: HTTPConfig{
			Addr:         stringWithDefault(lookup, "PAGEBUILDER_HTTP_ADDR", defaultHTTPAddr),
			ReadTimeout:  durationWithDefault(lookup, "PAGEBUILDER_HTTP_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "PAGEBUILDER_HTTP_WRITE_TIMEOUT", defaultWriteTimeout),
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "PAGEBUILDER_LOG_LEVEL", defaultLogLevel)),
		},
		Secrets: SecretsConfig{
			ProjectID:   stringWithDefault(lookup, "PAGEBUILDER_SECRETS_PROJECT_ID", ""),
			UseKeychain: boolWithDefault(lookup, "PAGEBUILDER_SECRETS_KEYCHAIN", false),
		},
	}

	// Secret Manager and Firestore usually live in the same project.
	if cfg.Secrets.ProjectID == "" {
		cfg.Secrets.ProjectID = cfg.Store.FirestoreProjectID
	}

	for _, field := range []*string{&cfg.Store.Password, &cfg.Store.DSN} {
		resolved, err := resolveSecret(ctx, *field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*field = resolved
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if strings.TrimSpace(cfg.Site.ID) == "" {
		invalid = append(invalid, "Site.ID")
	}
	if !drivers[cfg.Store.Driver] {
		invalid = append(invalid, "Store.Driver")
	}
	switch cfg.Store.Driver {
	case "postgres", "mysql", "mongodb", "redis":
		if cfg.Store.DSN == "" {
			invalid = append(invalid, "Store.DSN")
		}
	case "file":
		if cfg.Store.Dir == "" {
			invalid = append(invalid, "Store.Dir")
		}
	}
	if cfg.Store.Path == "" {
		invalid = append(invalid, "Store.Path")
	}
	if cfg.History.Limit < 1 {
		invalid = append(invalid, "History.Limit")
	}
	if cfg.Autosave.Enabled && strings.TrimSpace(cfg.Autosave.Schedule) == "" {
		invalid = append(invalid, "Autosave.Schedule")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "Log.Level")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if value == "" || !isSecretReference(value) {
		return value, nil
	}
	ref := strings.TrimSpace(value)
	if resolver == nil {
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Ref: ref, Err: err}
	}
	return secret, nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

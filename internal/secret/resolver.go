package secret

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrSecretNotFound means no source had a value for the reference.
var ErrSecretNotFound = errors.New("secret not found")

var secretManagerClientFactory = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Resolver turns secret://name references into values. Local stores are
// consulted first, in order; Google Secret Manager is tried last when a
// project is configured. Resolved values are cached for the process.
type Resolver struct {
	stores     []SecretStore
	client     secretManagerClient
	ownsClient bool
	projectID  string
	logger     *zap.Logger

	mu    sync.RWMutex
	cache map[string]string
}

type resolverConfig struct {
	stores     []SecretStore
	projectID  string
	logger     *zap.Logger
	client     secretManagerClient
	clientOpts []option.ClientOption
}

// ResolverOption customises NewResolver.
type ResolverOption func(*resolverConfig)

// WithStores sets the local stores, consulted in order.
func WithStores(stores ...SecretStore) ResolverOption {
	return func(cfg *resolverConfig) { cfg.stores = append(cfg.stores, stores...) }
}

// WithProject enables Secret Manager lookups in projectID.
func WithProject(projectID string) ResolverOption {
	return func(cfg *resolverConfig) { cfg.projectID = strings.TrimSpace(projectID) }
}

func WithLogger(logger *zap.Logger) ResolverOption {
	return func(cfg *resolverConfig) { cfg.logger = logger }
}

// WithSecretManagerClient injects a client, mostly for tests.
func WithSecretManagerClient(client secretManagerClient) ResolverOption {
	return func(cfg *resolverConfig) { cfg.client = client }
}

// WithClientOptions forwards options when the Secret Manager client is built.
func WithClientOptions(opts ...option.ClientOption) ResolverOption {
	return func(cfg *resolverConfig) { cfg.clientOpts = append(cfg.clientOpts, opts...) }
}

// NewResolver builds a Resolver. A Secret Manager client is only created
// when a project is set and none was injected; failing to create one
// leaves the resolver working from local stores.
func NewResolver(ctx context.Context, opts ...ResolverOption) *Resolver {
	cfg := resolverConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	r := &Resolver{
		stores:    cfg.stores,
		projectID: cfg.projectID,
		logger:    cfg.logger,
		cache:     map[string]string{},
	}
	switch {
	case cfg.client != nil:
		r.client = cfg.client
	case cfg.projectID != "":
		client, err := secretManagerClientFactory(ctx, cfg.clientOpts...)
		if err != nil {
			cfg.logger.Warn("secret manager unavailable, using local stores only", zap.Error(err))
		} else {
			r.client = client
			r.ownsClient = true
		}
	}
	return r
}

func (r *Resolver) Close() error {
	if r.ownsClient && r.client != nil {
		return r.client.Close()
	}
	return nil
}

// IsReference reports whether value names a secret instead of holding one.
func IsReference(value string) bool {
	v := strings.TrimSpace(value)
	return strings.HasPrefix(v, "secret://") || strings.HasPrefix(v, "sm://")
}

// ResolveSecret resolves ref. It satisfies config.SecretResolver.
func (r *Resolver) ResolveSecret(ctx context.Context, ref string) (string, error) {
	parsed, err := parseReference(ref)
	if err != nil {
		return "", err
	}
	key := parsed.name + "#" + parsed.version

	r.mu.RLock()
	v, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return v, nil
	}

	for _, store := range r.stores {
		val, err := store.Get(parsed.name)
		if err != nil {
			r.logger.Debug("secret store lookup failed", zap.String("secret", parsed.name), zap.Error(err))
			continue
		}
		if len(val) > 0 {
			return r.remember(key, string(val)), nil
		}
	}

	project := parsed.project
	if project == "" {
		project = r.projectID
	}
	if r.client != nil && project != "" {
		val, err := r.fetchRemote(ctx, project, parsed.name, parsed.version)
		if err == nil {
			return r.remember(key, val), nil
		}
		if status.Code(err) != codes.NotFound {
			return "", fmt.Errorf("secret %s: %w", parsed.name, err)
		}
	}
	return "", fmt.Errorf("secret %s: %w", parsed.name, ErrSecretNotFound)
}

func (r *Resolver) remember(key, value string) string {
	r.mu.Lock()
	r.cache[key] = value
	r.mu.Unlock()
	return value
}

func (r *Resolver) fetchRemote(ctx context.Context, projectID, name, version string) (string, error) {
	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", projectID, name, version)
	resp, err := r.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resource})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("secret manager returned empty payload for %s", resource)
	}
	return string(resp.Payload.GetData()), nil
}

type reference struct {
	name    string
	version string
	project string
}

func parseReference(ref string) (reference, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "sm://") {
		ref = "secret://" + strings.TrimPrefix(ref, "sm://")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return reference{}, fmt.Errorf("invalid secret reference %q: %w", ref, err)
	}
	if u.Scheme != "secret" {
		return reference{}, fmt.Errorf("unsupported secret scheme %q", u.Scheme)
	}
	name := strings.Trim(u.Host+u.Path, "/")
	if name == "" {
		return reference{}, fmt.Errorf("missing secret name in %q", ref)
	}
	q := u.Query()
	version := strings.TrimSpace(q.Get("version"))
	if version == "" {
		version = "latest"
	}
	return reference{name: name, version: version, project: strings.TrimSpace(q.Get("project"))}, nil
}

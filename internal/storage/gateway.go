package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"pagebuilder/internal/domain"
)

var tracer = otel.Tracer("pagebuilder/internal/storage")

// SaveResult reports the outcome of a save. Failures are values, not errors:
// the caller's in-memory document stays authoritative either way.
type SaveResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Gateway moves one site's document between memory and a DocumentStore.
type Gateway struct {
	store  domain.DocumentStore
	siteID string
	logger *zap.Logger
}

func NewGateway(store domain.DocumentStore, siteID string, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{store: store, siteID: siteID, logger: logger.With(zap.String("siteId", siteID))}
}

func (g *Gateway) SiteID() string { return g.siteID }

// Load reads and decodes the site's document. found is false when the store
// has nothing for the site yet.
func (g *Gateway) Load(ctx context.Context) (doc domain.Document, found bool, err error) {
	data, err := g.store.LoadDocument(ctx, g.siteID)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return domain.Document{}, false, nil
	}
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("load site %s: %w", g.siteID, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, false, fmt.Errorf("decode site %s: %w", g.siteID, err)
	}
	return doc, true, nil
}

// Save encodes doc and overwrites the stored copy.
func (g *Gateway) Save(ctx context.Context, doc domain.Document) (res SaveResult) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "gateway.save")
	span.SetAttributes(attribute.String("site.id", g.siteID))
	defer func() {
		if r := recover(); r != nil {
			res = SaveResult{Error: fmt.Sprintf("save panicked: %v", r)}
			g.logger.Error("save document panicked", zap.Any("panic", r))
		}
		if !res.Success {
			span.SetStatus(codes.Error, res.Error)
		}
		span.End()
	}()

	data, err := json.Marshal(doc)
	if err != nil {
		g.logger.Error("encode document", zap.Error(err))
		return SaveResult{Error: fmt.Sprintf("encode document: %v", err)}
	}
	span.SetAttributes(attribute.Int("document.bytes", len(data)))
	if err := g.store.SaveDocument(ctx, g.siteID, data); err != nil {
		g.logger.Warn("save document failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return SaveResult{Error: err.Error()}
	}
	g.logger.Debug("document saved", zap.Int("bytes", len(data)), zap.Duration("elapsed", time.Since(start)))
	return SaveResult{Success: true}
}

func (g *Gateway) Close() error {
	return g.store.Close()
}

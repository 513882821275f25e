package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"pagebuilder/internal/domain"
)

const (
	firestoreCollection = "sites"
	envEmulatorHost     = "FIRESTORE_EMULATOR_HOST"
	envGoogleProjectID  = "GOOGLE_CLOUD_PROJECT"
)

// firestoreDocumentStore writes each site to sites/<siteID> as
// {document, updatedAt}.
type firestoreDocumentStore struct {
	client *firestore.Client
}

type firestoreSiteRecord struct {
	Document  string    `firestore:"document"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func openFirestoreDocumentStore(ctx context.Context, projectID, emulatorHost string) (*firestoreDocumentStore, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		projectID = strings.TrimSpace(os.Getenv(envGoogleProjectID))
	}
	if projectID == "" {
		return nil, errors.New("firestore: project id is required")
	}

	var opts []option.ClientOption
	if emulatorHost == "" {
		emulatorHost = os.Getenv(envEmulatorHost)
	}
	if emulatorHost != "" {
		opts = append(opts,
			option.WithoutAuthentication(),
			option.WithEndpoint(emulatorHost),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := firestore.NewClient(dialCtx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}
	return &firestoreDocumentStore{client: client}, nil
}

func (s *firestoreDocumentStore) LoadDocument(ctx context.Context, siteID string) ([]byte, error) {
	snap, err := s.client.Collection(firestoreCollection).Doc(siteID).Get(ctx)
	if err != nil {
		return nil, wrapFirestoreError("firestore load document", err)
	}
	var rec firestoreSiteRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("firestore decode document: %w", err)
	}
	return []byte(rec.Document), nil
}

func (s *firestoreDocumentStore) SaveDocument(ctx context.Context, siteID string, data []byte) error {
	rec := firestoreSiteRecord{Document: string(data), UpdatedAt: time.Now().UTC()}
	if _, err := s.client.Collection(firestoreCollection).Doc(siteID).Set(ctx, rec); err != nil {
		return wrapFirestoreError("firestore save document", err)
	}
	return nil
}

func (s *firestoreDocumentStore) Close() error {
	return s.client.Close()
}

// wrapFirestoreError maps gRPC status codes onto the store's sentinels.
// Context cancellations pass through unchanged.
func wrapFirestoreError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return domain.ErrDocumentNotFound
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	return fmt.Errorf("%s: %w", op, err)
}

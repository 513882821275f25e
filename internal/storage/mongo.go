package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"pagebuilder/internal/domain"
)

const mongoCollection = "site_documents"

// mongoDocumentStore keeps one BSON document per site. The site document is
// stored as a JSON string so the bytes handed back are exactly what was saved.
type mongoDocumentStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoSiteRecord struct {
	SiteID    string    `bson:"_id"`
	Document  string    `bson:"document"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func openMongoDocumentStore(ctx context.Context, uri, password, database string) (*mongoDocumentStore, error) {
	// Atlas connection strings ship with a password placeholder.
	if password != "" {
		uri = strings.ReplaceAll(uri, "<password>", password)
		uri = strings.ReplaceAll(uri, "<db_password>", password)
	}
	if database == "" {
		database = "pagebuilder"
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetConnectTimeout(10 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &mongoDocumentStore{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
	}, nil
}

func (s *mongoDocumentStore) LoadDocument(ctx context.Context, siteID string) ([]byte, error) {
	var rec mongoSiteRecord
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: siteID}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo load document: %w", err)
	}
	return []byte(rec.Document), nil
}

func (s *mongoDocumentStore) SaveDocument(ctx context.Context, siteID string, data []byte) error {
	rec := mongoSiteRecord{SiteID: siteID, Document: string(data), UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: siteID}}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save document: %w", err)
	}
	return nil
}

func (s *mongoDocumentStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

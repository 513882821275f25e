package storage

import (
	"context"
	"errors"
	"fmt"

	"pagebuilder/internal/domain"
)

// Driver names a document store backend.
type Driver string

const (
	DriverSQLite    Driver = "sqlite"
	DriverPostgres  Driver = "postgres"
	DriverMySQL     Driver = "mysql"
	DriverMongoDB   Driver = "mongodb"
	DriverRedis     Driver = "redis"
	DriverFirestore Driver = "firestore"
	DriverFile      Driver = "file"
)

// StoreOptions selects and configures a document store. Password is kept out
// of DSN so it can come from the secret store.
type StoreOptions struct {
	Driver   Driver
	DSN      string
	Password string
	Database string

	Dir string // file driver

	FirestoreProjectID    string
	FirestoreEmulatorHost string
}

// NewDocumentStore opens the store named by opts.Driver. The sqlite driver
// reuses db, which must be non-nil for it.
func NewDocumentStore(ctx context.Context, opts StoreOptions, db *DB) (domain.DocumentStore, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		if db == nil {
			return nil, errors.New("sqlite document store: no database")
		}
		return NewSQLiteDocumentStore(db), nil
	case DriverPostgres:
		return openSQLDocumentStore(ctx, postgresDialect, withPostgresPassword(opts.DSN, opts.Password))
	case DriverMySQL:
		return openSQLDocumentStore(ctx, mysqlDialect, withMySQLPassword(opts.DSN, opts.Password))
	case DriverMongoDB:
		return openMongoDocumentStore(ctx, opts.DSN, opts.Password, opts.Database)
	case DriverRedis:
		return NewRedisDocumentStore(ctx, opts.DSN, opts.Password)
	case DriverFirestore:
		return openFirestoreDocumentStore(ctx, opts.FirestoreProjectID, opts.FirestoreEmulatorHost)
	case DriverFile:
		return NewFileDocumentStore(opts.Dir)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", opts.Driver)
	}
}

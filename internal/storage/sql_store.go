package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"pagebuilder/internal/domain"
)

// dialect holds the statements that differ between server databases.
type dialect struct {
	driver string
	create string
	load   string
	upsert string
}

var postgresDialect = dialect{
	driver: "postgres",
	create: `CREATE TABLE IF NOT EXISTS site_documents (
		site_id TEXT PRIMARY KEY,
		document_json TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	load: `SELECT document_json FROM site_documents WHERE site_id = $1`,
	upsert: `INSERT INTO site_documents (site_id, document_json, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (site_id) DO UPDATE SET document_json = EXCLUDED.document_json, updated_at = EXCLUDED.updated_at`,
}

var mysqlDialect = dialect{
	driver: "mysql",
	create: `CREATE TABLE IF NOT EXISTS site_documents (
		site_id VARCHAR(191) PRIMARY KEY,
		document_json LONGTEXT NOT NULL,
		updated_at DATETIME(6) NOT NULL
	) CHARACTER SET utf8mb4`,
	load: `SELECT document_json FROM site_documents WHERE site_id = ?`,
	upsert: `INSERT INTO site_documents (site_id, document_json, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE document_json = VALUES(document_json), updated_at = VALUES(updated_at)`,
}

// sqlDocumentStore stores documents in a Postgres or MySQL table that
// mirrors the SQLite site_documents layout.
type sqlDocumentStore struct {
	db      *sql.DB
	dialect dialect
}

func openSQLDocumentStore(ctx context.Context, d dialect, dsn string) (*sqlDocumentStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	if _, err := db.ExecContext(ctx, d.create); err != nil {
		db.Close()
		return nil, fmt.Errorf("create site_documents: %w", err)
	}
	return &sqlDocumentStore{db: db, dialect: d}, nil
}

func (s *sqlDocumentStore) LoadDocument(ctx context.Context, siteID string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, s.dialect.load, siteID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s load document: %w", s.dialect.driver, err)
	}
	return []byte(data), nil
}

func (s *sqlDocumentStore) SaveDocument(ctx context.Context, siteID string, data []byte) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, siteID, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("%s save document: %w", s.dialect.driver, err)
	}
	return nil
}

func (s *sqlDocumentStore) Close() error {
	return s.db.Close()
}

// withPostgresPassword sets the password on a URL or key=value DSN.
func withPostgresPassword(dsn, password string) string {
	if password == "" {
		return dsn
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		u.User = url.UserPassword(u.User.Username(), password)
		return u.String()
	}
	return fmt.Sprintf("%s password='%s'", dsn, strings.ReplaceAll(password, "'", `\'`))
}

func withMySQLPassword(dsn, password string) string {
	if password == "" {
		return dsn
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return dsn
	}
	cfg.Passwd = password
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

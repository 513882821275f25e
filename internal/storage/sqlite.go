package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"pagebuilder/internal/domain"
)

// DB wraps the SQLite database that holds site documents, edit history and
// session settings.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (or creates) the SQLite file at dbPath and runs migrations.
// The special path ":memory:" opens a private in-memory database.
func New(dbPath string) (*DB, error) {
	dsn := ":memory:"
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer only; this also keeps a :memory: database alive across calls.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, path: dbPath}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Path() string {
	return db.path
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS site_documents (
			site_id TEXT PRIMARY KEY,
			document_json TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		// Save counter, added after the first release
		`ALTER TABLE site_documents ADD COLUMN revision INTEGER NOT NULL DEFAULT 0`,
		// History nodes, one snapshot per edit
		`CREATE TABLE IF NOT EXISTS history_nodes (
			id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL,
			parent_id TEXT,
			label TEXT NOT NULL,
			snapshot_json TEXT NOT NULL,
			seq INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_nodes_site ON history_nodes(site_id)`,
		// Current position pointer per site
		`CREATE TABLE IF NOT EXISTS history_state (
			site_id TEXT PRIMARY KEY,
			current_node_id TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			// ALTER TABLE fails if the column already exists
			if strings.Contains(m, "ALTER TABLE") && strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("exec %q: %w", m[:min(len(m), 60)], err)
		}
	}
	return nil
}

// SQLiteDocumentStore keeps each site's document as one row of
// site_documents.
type SQLiteDocumentStore struct {
	db *DB

	mu      sync.Mutex
	written map[string]int // revision of this store's last write per site
}

var _ domain.DocumentStore = (*SQLiteDocumentStore)(nil)

func NewSQLiteDocumentStore(db *DB) *SQLiteDocumentStore {
	return &SQLiteDocumentStore{db: db, written: make(map[string]int)}
}

func (s *SQLiteDocumentStore) LoadDocument(ctx context.Context, siteID string) ([]byte, error) {
	var data string
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT document_json FROM site_documents WHERE site_id = ?`, siteID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return []byte(data), nil
}

func (s *SQLiteDocumentStore) SaveDocument(ctx context.Context, siteID string, data []byte) error {
	var rev int
	err := s.db.Conn().QueryRowContext(ctx,
		`INSERT INTO site_documents (site_id, document_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(site_id) DO UPDATE SET
		   document_json = excluded.document_json,
		   updated_at = excluded.updated_at,
		   revision = site_documents.revision + 1
		 RETURNING revision`,
		siteID, string(data), time.Now().UTC(),
	).Scan(&rev)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	s.mu.Lock()
	s.written[siteID] = rev
	s.mu.Unlock()
	return nil
}

// WrittenRevision returns the revision produced by this store's most recent
// save of siteID. ok is false if it has not saved that site.
func (s *SQLiteDocumentStore) WrittenRevision(siteID string) (rev int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev, ok = s.written[siteID]
	return rev, ok
}

// Revision returns how many times the site's document has been overwritten.
func (s *SQLiteDocumentStore) Revision(ctx context.Context, siteID string) (int, error) {
	var rev int
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT revision FROM site_documents WHERE site_id = ?`, siteID,
	).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrDocumentNotFound
	}
	return rev, err
}

// Close is a no-op; the DB is shared with the history and settings stores
// and is closed by its owner.
func (s *SQLiteDocumentStore) Close() error { return nil }

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SettingsStore is a key/value table for session state that outlives a
// process, such as the last page a site was showing.
type SettingsStore struct {
	db *DB
}

func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func activePageKey(siteID string) string {
	return "active_page:" + siteID
}

// LastActivePage returns the page id remembered for the site, or "".
func (s *SettingsStore) LastActivePage(ctx context.Context, siteID string) (string, error) {
	return s.get(ctx, activePageKey(siteID))
}

func (s *SettingsStore) SaveActivePage(ctx context.Context, siteID, pageID string) error {
	return s.set(ctx, activePageKey(siteID), pageID)
}

func (s *SettingsStore) get(ctx context.Context, key string) (string, error) {
	if s == nil || s.db == nil {
		return "", nil
	}
	var value string
	err := s.db.Conn().QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStore) set(ctx context.Context, key, value string) error {
	if s == nil || s.db == nil {
		return errors.New("settings: no db")
	}
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

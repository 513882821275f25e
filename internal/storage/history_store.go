package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit is how many snapshots a site keeps before the oldest
// are pruned.
const DefaultHistoryLimit = 40

// HistoryNode is one document snapshot in a site's edit history. Undo moves
// to the parent; redo moves to the most recent child.
type HistoryNode struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"siteId"`
	ParentID  *string   `json:"parentId"`
	Label     string    `json:"label"`
	Snapshot  []byte    `json:"-"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryTree is the full history of one site.
type HistoryTree struct {
	Nodes     []HistoryNode `json:"nodes"`
	CurrentID string        `json:"currentId"`
}

// HistoryStore persists edit history. Get, Current and LatestChild return a
// nil node without error when nothing matches.
type HistoryStore interface {
	Push(ctx context.Context, siteID, label string, snapshot []byte) (*HistoryNode, error)
	Current(ctx context.Context, siteID string) (*HistoryNode, error)
	Get(ctx context.Context, siteID, nodeID string) (*HistoryNode, error)
	LatestChild(ctx context.Context, siteID, nodeID string) (*HistoryNode, error)
	GoTo(ctx context.Context, siteID, nodeID string) error
	LoadTree(ctx context.Context, siteID string) (*HistoryTree, error)
	Clear(ctx context.Context, siteID string) error
}

// ── SQLite ─────────────────────────────────────────────────

type SQLiteHistoryStore struct {
	db    *DB
	limit int
}

var _ HistoryStore = (*SQLiteHistoryStore)(nil)

func NewSQLiteHistoryStore(db *DB, limit int) *SQLiteHistoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &SQLiteHistoryStore{db: db, limit: limit}
}

const historyColumns = `id, site_id, parent_id, label, snapshot_json, seq, created_at`

func scanHistoryNode(row interface{ Scan(...any) error }) (*HistoryNode, error) {
	var n HistoryNode
	var snapshot string
	if err := row.Scan(&n.ID, &n.SiteID, &n.ParentID, &n.Label, &snapshot, &n.Seq, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Snapshot = []byte(snapshot)
	return &n, nil
}

func (s *SQLiteHistoryStore) queryOne(ctx context.Context, query string, args ...any) (*HistoryNode, error) {
	n, err := scanHistoryNode(s.db.Conn().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history node: %w", err)
	}
	return n, nil
}

func (s *SQLiteHistoryStore) currentID(ctx context.Context, siteID string) (string, error) {
	var id string
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT current_node_id FROM history_state WHERE site_id = ?`, siteID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

// Push records snapshot as a child of the current node and makes it current.
func (s *SQLiteHistoryStore) Push(ctx context.Context, siteID, label string, snapshot []byte) (*HistoryNode, error) {
	parent, err := s.currentID(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("read history state: %w", err)
	}
	var parentID *string
	if parent != "" {
		parentID = &parent
	}

	var seq int64
	if err := s.db.Conn().QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM history_nodes WHERE site_id = ?`, siteID,
	).Scan(&seq); err != nil {
		return nil, fmt.Errorf("next history seq: %w", err)
	}

	node := &HistoryNode{
		ID:        uuid.New().String(),
		SiteID:    siteID,
		ParentID:  parentID,
		Label:     label,
		Snapshot:  snapshot,
		Seq:       seq,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO history_nodes (`+historyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		node.ID, siteID, parentID, label, string(snapshot), seq, node.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert history node: %w", err)
	}
	if err := s.GoTo(ctx, siteID, node.ID); err != nil {
		return nil, err
	}

	s.prune(ctx, siteID)
	return node, nil
}

func (s *SQLiteHistoryStore) Current(ctx context.Context, siteID string) (*HistoryNode, error) {
	id, err := s.currentID(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("read history state: %w", err)
	}
	if id == "" {
		return nil, nil
	}
	return s.Get(ctx, siteID, id)
}

func (s *SQLiteHistoryStore) Get(ctx context.Context, siteID, nodeID string) (*HistoryNode, error) {
	return s.queryOne(ctx,
		`SELECT `+historyColumns+` FROM history_nodes WHERE site_id = ? AND id = ?`, siteID, nodeID)
}

func (s *SQLiteHistoryStore) LatestChild(ctx context.Context, siteID, nodeID string) (*HistoryNode, error) {
	return s.queryOne(ctx,
		`SELECT `+historyColumns+` FROM history_nodes
		 WHERE site_id = ? AND parent_id = ? ORDER BY seq DESC LIMIT 1`, siteID, nodeID)
}

// GoTo moves the current position pointer.
func (s *SQLiteHistoryStore) GoTo(ctx context.Context, siteID, nodeID string) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO history_state (site_id, current_node_id) VALUES (?, ?)
		 ON CONFLICT(site_id) DO UPDATE SET current_node_id = excluded.current_node_id`,
		siteID, nodeID,
	)
	if err != nil {
		return fmt.Errorf("update history state: %w", err)
	}
	return nil
}

// LoadTree returns every node for the site, oldest first, or nil when the
// site has no history yet.
func (s *SQLiteHistoryStore) LoadTree(ctx context.Context, siteID string) (*HistoryTree, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT `+historyColumns+` FROM history_nodes WHERE site_id = ? ORDER BY seq ASC`, siteID)
	if err != nil {
		return nil, fmt.Errorf("load history nodes: %w", err)
	}
	defer rows.Close()

	var nodes []HistoryNode
	for rows.Next() {
		n, err := scanHistoryNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	current, err := s.currentID(ctx, siteID)
	if err != nil || current == "" {
		current = nodes[len(nodes)-1].ID
	}
	return &HistoryTree{Nodes: nodes, CurrentID: current}, nil
}

func (s *SQLiteHistoryStore) Clear(ctx context.Context, siteID string) error {
	if _, err := s.db.Conn().ExecContext(ctx, `DELETE FROM history_state WHERE site_id = ?`, siteID); err != nil {
		return fmt.Errorf("clear history state: %w", err)
	}
	if _, err := s.db.Conn().ExecContext(ctx, `DELETE FROM history_nodes WHERE site_id = ?`, siteID); err != nil {
		return fmt.Errorf("clear history nodes: %w", err)
	}
	return nil
}

// prune removes the oldest nodes beyond the limit, never the current one.
// Children of a removed node are re-attached to its parent.
func (s *SQLiteHistoryStore) prune(ctx context.Context, siteID string) {
	conn := s.db.Conn()

	var count int
	if conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM history_nodes WHERE site_id = ?`, siteID).Scan(&count) != nil {
		return
	}
	if count <= s.limit {
		return
	}
	currentID, _ := s.currentID(ctx, siteID)

	// Collect ids first; the single connection cannot serve writes while the
	// cursor is open.
	rows, err := conn.QueryContext(ctx,
		`SELECT id, parent_id FROM history_nodes WHERE site_id = ? ORDER BY seq ASC LIMIT ?`,
		siteID, count-s.limit+1,
	)
	if err != nil {
		return
	}
	type victim struct {
		id     string
		parent sql.NullString
	}
	var victims []victim
	for rows.Next() && len(victims) < count-s.limit {
		var v victim
		if rows.Scan(&v.id, &v.parent) != nil || v.id == currentID {
			continue
		}
		victims = append(victims, v)
	}
	rows.Close()

	for _, v := range victims {
		// The parent may itself have been re-pointed by an earlier deletion.
		var parent sql.NullString
		if conn.QueryRowContext(ctx, `SELECT parent_id FROM history_nodes WHERE id = ?`, v.id).Scan(&parent) != nil {
			continue
		}
		conn.ExecContext(ctx, `UPDATE history_nodes SET parent_id = ? WHERE parent_id = ?`, parent, v.id)
		conn.ExecContext(ctx, `DELETE FROM history_nodes WHERE id = ?`, v.id)
	}
}

// ── Memory ─────────────────────────────────────────────────

// MemoryHistoryStore keeps history in process memory. Used when persistence
// of the undo tree is not wanted, and in tests.
type MemoryHistoryStore struct {
	mu      sync.Mutex
	limit   int
	seq     int64
	nodes   map[string][]HistoryNode // siteID -> nodes, oldest first
	current map[string]string
}

var _ HistoryStore = (*MemoryHistoryStore)(nil)

func NewMemoryHistoryStore(limit int) *MemoryHistoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryHistoryStore{
		limit:   limit,
		nodes:   map[string][]HistoryNode{},
		current: map[string]string{},
	}
}

func (m *MemoryHistoryStore) Push(_ context.Context, siteID, label string, snapshot []byte) (*HistoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var parentID *string
	if cur := m.current[siteID]; cur != "" {
		parentID = &cur
	}
	m.seq++
	node := HistoryNode{
		ID:        uuid.New().String(),
		SiteID:    siteID,
		ParentID:  parentID,
		Label:     label,
		Snapshot:  snapshot,
		Seq:       m.seq,
		CreatedAt: time.Now().UTC(),
	}
	m.nodes[siteID] = append(m.nodes[siteID], node)
	m.current[siteID] = node.ID
	m.prune(siteID)
	out := node
	return &out, nil
}

func (m *MemoryHistoryStore) prune(siteID string) {
	nodes := m.nodes[siteID]
	excess := len(nodes) - m.limit
	if excess <= 0 {
		return
	}
	cur := m.current[siteID]
	removed := map[string]*string{}
	kept := nodes[:0:0]
	for _, n := range nodes {
		if excess > 0 && n.ID != cur {
			removed[n.ID] = n.ParentID
			excess--
			continue
		}
		kept = append(kept, n)
	}
	for i := range kept {
		for kept[i].ParentID != nil {
			parent, gone := removed[*kept[i].ParentID]
			if !gone {
				break
			}
			kept[i].ParentID = parent
		}
	}
	m.nodes[siteID] = kept
}

func (m *MemoryHistoryStore) find(siteID, nodeID string) *HistoryNode {
	for _, n := range m.nodes[siteID] {
		if n.ID == nodeID {
			out := n
			return &out
		}
	}
	return nil
}

func (m *MemoryHistoryStore) Current(_ context.Context, siteID string) (*HistoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(siteID, m.current[siteID]), nil
}

func (m *MemoryHistoryStore) Get(_ context.Context, siteID, nodeID string) (*HistoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(siteID, nodeID), nil
}

func (m *MemoryHistoryStore) LatestChild(_ context.Context, siteID, nodeID string) (*HistoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *HistoryNode
	for _, n := range m.nodes[siteID] {
		if n.ParentID != nil && *n.ParentID == nodeID && (latest == nil || n.Seq > latest.Seq) {
			out := n
			latest = &out
		}
	}
	return latest, nil
}

func (m *MemoryHistoryStore) GoTo(_ context.Context, siteID, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(siteID, nodeID) == nil {
		return fmt.Errorf("history node %s not found", nodeID)
	}
	m.current[siteID] = nodeID
	return nil
}

func (m *MemoryHistoryStore) LoadTree(_ context.Context, siteID string) (*HistoryTree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nodes := append([]HistoryNode(nil), m.nodes[siteID]...)
	if len(nodes) == 0 {
		return nil, nil
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Seq < nodes[j].Seq })
	return &HistoryTree{Nodes: nodes, CurrentID: m.current[siteID]}, nil
}

func (m *MemoryHistoryStore) Clear(_ context.Context, siteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, siteID)
	delete(m.current, siteID)
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jake-the-creative/dehc-1/pkg/model"
)

// SQLite implements Store on a local SQLite database.
//
// Layout: items carry their scalar columns plus flags/fields as JSON
// blobs; container_edges keys on child_id, so the single-parent
// invariant of the navigation model is structural, not policed.
type SQLite struct {
	db         *sql.DB
	path       string
	categories []model.Category
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
	id           TEXT PRIMARY KEY,
	category     TEXT NOT NULL,
	display_name TEXT NOT NULL,
	flags        TEXT,
	fields       TEXT,
	notes        TEXT,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);

CREATE TABLE IF NOT EXISTS container_edges (
	child_id  TEXT PRIMARY KEY,
	parent_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_edges_parent ON container_edges(parent_id);
`

// Open opens (creating if necessary) the register database at path.
// categories is the validated schema the store answers Categories with.
func Open(path string, categories []model.Category) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma failed: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	if len(categories) == 0 {
		categories = DefaultCategories()
	}

	return &SQLite{db: db, path: path, categories: categories}, nil
}

// Path returns the database file path, for the status bar and watcher.
func (s *SQLite) Path() string { return s.path }

// Close closes the underlying database.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Categories returns the schema in display order.
func (s *SQLite) Categories(ctx context.Context) ([]model.Category, error) {
	out := make([]model.Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

func (s *SQLite) categoryByName(name string) *model.Category {
	for i := range s.categories {
		if s.categories[i].Name == name {
			return &s.categories[i]
		}
	}
	return nil
}

// QueryItems returns summaries for every item in category.
func (s *SQLite) QueryItems(ctx context.Context, category string) ([]model.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, display_name FROM items WHERE category = ? ORDER BY display_name, id`,
		category)
	if err != nil {
		return nil, fmt.Errorf("querying %s items: %w", category, err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// GetItem returns the full record for id.
func (s *SQLite) GetItem(ctx context.Context, id string) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, category, display_name, flags, fields, notes, created_at, updated_at
		 FROM items WHERE id = ?`, id)

	var it model.Item
	var flagsJSON, fieldsJSON, notes sql.NullString
	err := row.Scan(&it.ID, &it.Category, &it.DisplayName, &flagsJSON, &fieldsJSON, &notes,
		&it.CreatedAt, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading item %s: %w", id, err)
	}

	if notes.Valid {
		it.Notes = notes.String
	}
	if flagsJSON.Valid && flagsJSON.String != "" {
		if err := json.Unmarshal([]byte(flagsJSON.String), &it.Flags); err != nil {
			return nil, fmt.Errorf("decoding flags of %s: %w", id, err)
		}
	}
	if fieldsJSON.Valid && fieldsJSON.String != "" {
		if err := json.Unmarshal([]byte(fieldsJSON.String), &it.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields of %s: %w", id, err)
		}
	}
	return &it, nil
}

// GetParent returns the container holding id, "" when unrooted.
func (s *SQLite) GetParent(ctx context.Context, id string) (string, error) {
	var parent string
	err := s.db.QueryRowContext(ctx,
		`SELECT parent_id FROM container_edges WHERE child_id = ?`, id).Scan(&parent)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving parent of %s: %w", id, err)
	}
	return parent, nil
}

// Children returns the items contained by id, deterministically ordered.
func (s *SQLite) Children(ctx context.Context, id string) ([]model.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.id, i.category, i.display_name
		 FROM container_edges e JOIN items i ON i.id = e.child_id
		 WHERE e.parent_id = ?
		 ORDER BY i.display_name, i.id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying children of %s: %w", id, err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]model.Summary, error) {
	var out []model.Summary
	for rows.Next() {
		var s model.Summary
		if err := rows.Scan(&s.ID, &s.Category, &s.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summaries: %w", err)
	}
	return out, nil
}

// AddContainerEdge records containerID -> itemID, replacing any edge the
// item held before (move semantics). Self-containment and cycles are
// rejected with a ConflictError before anything is written.
func (s *SQLite) AddContainerEdge(ctx context.Context, containerID, itemID string) error {
	if containerID == itemID {
		return &ConflictError{Op: "add edge", Reason: "item cannot contain itself"}
	}

	// Both endpoints must exist.
	for _, id := range []string{containerID, itemID} {
		exists, err := s.itemExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return &NotFoundError{ID: id}
		}
	}

	// Walk the container's ancestor chain; finding itemID there means the
	// new edge would close a cycle.
	seen := map[string]bool{containerID: true}
	cur := containerID
	for {
		parent, err := s.GetParent(ctx, cur)
		if err != nil {
			return err
		}
		if parent == "" {
			break
		}
		if parent == itemID {
			return &ConflictError{Op: "add edge", Reason: fmt.Sprintf("%s is an ancestor of %s", itemID, containerID)}
		}
		if seen[parent] {
			break
		}
		seen[parent] = true
		cur = parent
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add edge: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO container_edges(child_id, parent_id) VALUES(?, ?)`,
		itemID, containerID); err != nil {
		return fmt.Errorf("adding edge %s -> %s: %w", containerID, itemID, err)
	}
	return tx.Commit()
}

// RemoveContainerEdge deletes the edge containerID -> itemID if present.
func (s *SQLite) RemoveContainerEdge(ctx context.Context, containerID, itemID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM container_edges WHERE child_id = ? AND parent_id = ?`,
		itemID, containerID)
	if err != nil {
		return fmt.Errorf("removing edge %s -> %s: %w", containerID, itemID, err)
	}
	return nil
}

// CreateItem inserts a new record, assigning a uuid when ID is empty.
func (s *SQLite) CreateItem(ctx context.Context, it *model.Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if cat := s.categoryByName(it.Category); cat != nil && cat.Singleton {
		existing, err := s.QueryItems(ctx, it.Category)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return &ConflictError{Op: "create", Reason: fmt.Sprintf("category %q is a singleton", it.Category)}
		}
	}

	now := time.Now().UTC()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now

	flagsJSON, fieldsJSON, err := encodeBlobs(it)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO items(id, category, display_name, flags, fields, notes, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Category, it.DisplayName, flagsJSON, fieldsJSON, it.Notes,
		it.CreatedAt, it.UpdatedAt); err != nil {
		return fmt.Errorf("inserting item %s: %w", it.ID, err)
	}
	return tx.Commit()
}

// UpdateItem rewrites the record for it.ID.
func (s *SQLite) UpdateItem(ctx context.Context, it *model.Item) error {
	if it.ID == "" {
		return &NotFoundError{ID: ""}
	}
	it.UpdatedAt = time.Now().UTC()

	flagsJSON, fieldsJSON, err := encodeBlobs(it)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE items SET category = ?, display_name = ?, flags = ?, fields = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		it.Category, it.DisplayName, flagsJSON, fieldsJSON, it.Notes, it.UpdatedAt, it.ID)
	if err != nil {
		return fmt.Errorf("updating item %s: %w", it.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating item %s: %w", it.ID, err)
	}
	if n == 0 {
		return &NotFoundError{ID: it.ID}
	}
	return tx.Commit()
}

// DeleteItem removes the record and its edges, promoting children to the
// deleted item's own container.
func (s *SQLite) DeleteItem(ctx context.Context, id string) error {
	exists, err := s.itemExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return &NotFoundError{ID: id}
	}

	parent, err := s.GetParent(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if parent != "" {
		// Promote: children now hang off the deleted item's container.
		if _, err := tx.ExecContext(ctx,
			`UPDATE container_edges SET parent_id = ? WHERE parent_id = ?`, parent, id); err != nil {
			return fmt.Errorf("promoting children of %s: %w", id, err)
		}
	} else {
		// No container to promote into; the children become unrooted.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM container_edges WHERE parent_id = ?`, id); err != nil {
			return fmt.Errorf("dropping children edges of %s: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM container_edges WHERE child_id = ?`, id); err != nil {
		return fmt.Errorf("dropping edge of %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}
	return tx.Commit()
}

// Counts returns item counts per category.
func (s *SQLite) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM items GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("scanning counts: %w", err)
		}
		counts[cat] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}
	return counts, nil
}

func (s *SQLite) itemExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking item %s: %w", id, err)
	}
	return true, nil
}

func encodeBlobs(it *model.Item) (flags, fields string, err error) {
	if len(it.Flags) > 0 {
		b, err := json.Marshal(it.Flags)
		if err != nil {
			return "", "", fmt.Errorf("encoding flags of %s: %w", it.ID, err)
		}
		flags = string(b)
	}
	if len(it.Fields) > 0 {
		b, err := json.Marshal(it.Fields)
		if err != nil {
			return "", "", fmt.Errorf("encoding fields of %s: %w", it.ID, err)
		}
		fields = string(b)
	}
	return flags, fields, nil
}

// compile-time interface check
var _ Store = (*SQLite)(nil)

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/tap-zendesk-sell/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.StateStore = (*Store)(nil)

// DefaultFileName is the database file name used when no path is given.
const DefaultFileName = "state.db"

// Store is a SQLite-based state store holding the device identity and
// the bookmarks of every stream.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (or creates) the database at path.
// If path is empty, defaults to ~/.tap-zendesk-sell/state.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".tap-zendesk-sell", DefaultFileName)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for concurrent stream checkpoints
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
		now:  time.Now,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Bookmarks ====================

// Save stores or updates a bookmark.
func (s *Store) Save(ctx context.Context, b domain.Bookmark) error {
	updated := b.UpdatedAt
	if updated.IsZero() {
		updated = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (stream, device_id, cursor, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(stream, device_id) DO UPDATE SET
			cursor = excluded.cursor,
			updated_at = excluded.updated_at
	`, b.Stream, b.DeviceID.String(), b.Cursor, formatTime(updated))
	if err != nil {
		return fmt.Errorf("saving bookmark: %w", err)
	}
	return nil
}

// Get retrieves the bookmark for (stream, device).
func (s *Store) Get(ctx context.Context, stream string, device domain.DeviceID) (*domain.Bookmark, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT stream, device_id, cursor, updated_at
		FROM bookmarks WHERE stream = ? AND device_id = ?
	`, stream, device.String())

	b, err := scanBookmark(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning bookmark: %w", err)
	}
	return b, nil
}

// Delete removes the bookmark for (stream, device).
func (s *Store) Delete(ctx context.Context, stream string, device domain.DeviceID) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM bookmarks WHERE stream = ? AND device_id = ?", stream, device.String())
	if err != nil {
		return fmt.Errorf("deleting bookmark: %w", err)
	}
	return nil
}

// List returns every bookmark of device ordered by stream name.
func (s *Store) List(ctx context.Context, device domain.DeviceID) ([]domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stream, device_id, cursor, updated_at
		FROM bookmarks WHERE device_id = ?
		ORDER BY stream
	`, device.String())
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	defer rows.Close()

	var out []domain.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bookmark: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookmarks: %w", err)
	}
	return out, nil
}

// Purge discards every bookmark of every device.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM bookmarks"); err != nil {
		return fmt.Errorf("purging bookmarks: %w", err)
	}
	return nil
}

// ==================== Device ====================

// Device returns the persisted device identity.
func (s *Store) Device(ctx context.Context) (domain.DeviceID, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT device_id FROM device WHERE id = 1").Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("reading device: %w", err)
	}
	return domain.DeviceID(id), nil
}

// SaveDevice stores the device identity, replacing any previous one.
func (s *Store) SaveDevice(ctx context.Context, id domain.DeviceID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device (id, device_id, created_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			device_id = excluded.device_id,
			created_at = CASE WHEN device.device_id = excluded.device_id
				THEN device.created_at ELSE excluded.created_at END
	`, id.String(), formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("saving device: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row scanner) (*domain.Bookmark, error) {
	var (
		b       domain.Bookmark
		device  string
		updated string
	)
	if err := row.Scan(&b.Stream, &device, &b.Cursor, &updated); err != nil {
		return nil, err
	}
	b.DeviceID = domain.DeviceID(device)
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		b.UpdatedAt = t
	}
	return &b, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

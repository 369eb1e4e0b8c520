package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/draftline/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/draftline/internal/core/domain"
	"github.com/custodia-labs/draftline/internal/core/ports/driven"
)

// Store owns the database connection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database in dataDir and runs migrations.
// If dataDir is empty, defaults to ~/.draftline/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".draftline", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	// WAL lets `draftline watch` write while another command reads.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

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

// StateStore returns a StateStore backed by this database.
func (s *Store) StateStore() *StateStore {
	return &StateStore{store: s}
}

// migrate runs all pending up migrations in version order.
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
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_overlay_state.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// apply runs one migration and records its version atomically.
func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== State Store ====================

// StateStore implements driven.StateStore.
type StateStore struct {
	store *Store
}

var _ driven.StateStore = (*StateStore)(nil)

// StateSummary describes a stored snapshot without decoding it.
type StateSummary struct {
	Key         string
	Mode        domain.Mode
	Annotations int
	UpdatedAt   time.Time
}

// Save stores or replaces the snapshot for key.
func (s *StateStore) Save(ctx context.Context, key string, state domain.OverlayState) error {
	if key == "" {
		return fmt.Errorf("%w: empty state key", domain.ErrInvalidInput)
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	mode := state.Mode
	if mode == "" {
		mode = domain.ModeComments
	}
	now := time.Now().UTC()

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO overlay_states (key, schema_version, mode, annotation_count, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			schema_version = excluded.schema_version,
			mode = excluded.mode,
			annotation_count = excluded.annotation_count,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, key, state.SchemaVersion, string(mode), state.Count(), string(payload), now, now)
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// Load returns the snapshot for key, or domain.ErrNotFound.
func (s *StateStore) Load(ctx context.Context, key string) (domain.OverlayState, error) {
	var payload string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT payload FROM overlay_states WHERE key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OverlayState{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.OverlayState{}, fmt.Errorf("loading state: %w", err)
	}

	var state domain.OverlayState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return domain.OverlayState{}, fmt.Errorf("unmarshalling state: %w", err)
	}
	return state, nil
}

// Delete removes the snapshot for key. Deleting a missing key is not an error.
func (s *StateStore) Delete(ctx context.Context, key string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM overlay_states WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting state: %w", err)
	}
	return nil
}

// List returns all stored keys in ascending order.
func (s *StateStore) List(ctx context.Context) ([]string, error) {
	summaries, err := s.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(summaries))
	for i, sum := range summaries {
		keys[i] = sum.Key
	}
	return keys, nil
}

// Summaries lists stored snapshots ordered by key.
func (s *StateStore) Summaries(ctx context.Context) ([]StateSummary, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT key, mode, annotation_count, updated_at
		FROM overlay_states
		ORDER BY key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing states: %w", err)
	}
	defer rows.Close()

	var out []StateSummary
	for rows.Next() {
		var sum StateSummary
		var mode string
		if err := rows.Scan(&sum.Key, &mode, &sum.Annotations, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning state: %w", err)
		}
		sum.Mode = domain.Mode(mode)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating states: %w", err)
	}
	return out, nil
}

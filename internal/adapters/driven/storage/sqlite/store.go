// Package sqlite persists corpus snapshots and their chunk records.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/normsearch/normsearch-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/normsearch/normsearch-cli/internal/core/domain"
	"github.com/normsearch/normsearch-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SnapshotStore = (*Store)(nil)

// Store is a SQLite-backed snapshot store. The database lives next to the
// vector index files inside the index directory.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the snapshot database inside indexDir.
func NewStore(indexDir string) (*Store, error) {
	if err := os.MkdirAll(indexDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(indexDir, "metadata.db")

	// WAL keeps reads open while a build transaction is in flight. The
	// pragmas ride the DSN so every pooled connection gets them; a plain
	// Exec would enable foreign keys on one connection only and the chunk
	// cascade would silently stop firing.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
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

// SaveSnapshot stores the snapshot row and its chunk records in one
// transaction, keyed by index position.
func (s *Store) SaveSnapshot(ctx context.Context, snap domain.Snapshot, chunks []domain.Chunk) error {
	if snap.ChunkCount != len(chunks) {
		return fmt.Errorf("%w: snapshot declares %d chunks, got %d",
			domain.ErrCorpusIntegrity, snap.ChunkCount, len(chunks))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, source_dir, embedding_model, dimension, chunk_count, index_file, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.SourceDir, snap.EmbeddingModel, snap.Dimension,
		snap.ChunkCount, snap.IndexFile, snap.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (snapshot_id, position, chunk_id, source_id, content, char_count, token_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for pos, c := range chunks {
		if _, err := stmt.ExecContext(ctx, snap.ID, pos, c.ChunkID, c.SourceID,
			c.Text, c.CharCount, c.TokenCount); err != nil {
			return fmt.Errorf("saving chunk %d: %w", pos, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Publish marks the snapshot as current.
func (s *Store) Publish(ctx context.Context, snapshotID string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO current_snapshot (id, snapshot_id) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET snapshot_id = excluded.snapshot_id
	`, snapshotID)
	if err != nil {
		return fmt.Errorf("publishing snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("publishing snapshot %s: no row updated", snapshotID)
	}
	return nil
}

// CurrentSnapshot returns the published snapshot, or
// domain.ErrSnapshotNotFound when nothing has been published yet.
func (s *Store) CurrentSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT sn.id, sn.source_dir, sn.embedding_model, sn.dimension, sn.chunk_count, sn.index_file, sn.created_at
		FROM snapshots sn
		JOIN current_snapshot cur ON cur.snapshot_id = sn.id
	`)

	var snap domain.Snapshot
	var createdAt string
	err := row.Scan(&snap.ID, &snap.SourceDir, &snap.EmbeddingModel,
		&snap.Dimension, &snap.ChunkCount, &snap.IndexFile, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading current snapshot: %w", err)
	}

	if ts, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
		snap.CreatedAt = ts
	}
	return &snap, nil
}

// Chunks returns the snapshot's chunk records in index position order.
func (s *Store) Chunks(ctx context.Context, snapshotID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, source_id, content, char_count, token_count
		FROM chunks
		WHERE snapshot_id = ?
		ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ChunkID, &c.SourceID, &c.Text, &c.CharCount, &c.TokenCount); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// PruneExcept deletes all snapshots except the given one and returns the
// index filenames of the deleted snapshots.
func (s *Store) PruneExcept(ctx context.Context, snapshotID string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx, `SELECT index_file FROM snapshots WHERE id != ?`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("listing stale snapshots: %w", err)
	}

	var stale []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning stale snapshot: %w", err)
		}
		stale = append(stale, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating stale snapshots: %w", err)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id != ?`, snapshotID); err != nil {
		return nil, fmt.Errorf("deleting stale snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing prune: %w", err)
	}
	return stale, nil
}

// migrate brings the schema up to date from the embedded migration files.
func (s *Store) migrate(fsys embed.FS) error {
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

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

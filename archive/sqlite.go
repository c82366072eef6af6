// Package archive implements the content-addressed archival sink for
// generated turns, backed by SQLite.
package archive

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/arbiterhq/arbiter/domain"
)

// Envelope is one archived turn record.
type Envelope struct {
	ArchiveID string    `json:"archive_id"`
	SessionID string    `json:"session_id"`
	Round     int       `json:"round"`
	Role      string    `json:"role"`
	Digest    string    `json:"digest"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// SQLiteArchive stores turn envelopes keyed by content digest. Writes are
// best-effort from the engine's point of view; callers log and continue on
// error.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive opens (and migrates) the archive database.
func NewSQLiteArchive(dsn string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &SQLiteArchive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return a, nil
}

func (a *SQLiteArchive) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS envelopes (
			archive_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			role TEXT NOT NULL,
			digest TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_envelopes_session ON envelopes(session_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := a.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

// Store archives a turn and returns its archival reference id. Identical
// content maps to the existing envelope, so re-archiving is idempotent.
func (a *SQLiteArchive) Store(ctx context.Context, t domain.Turn) (string, error) {
	sum := sha256.Sum256([]byte(t.Text))
	digest := hex.EncodeToString(sum[:])

	var existing string
	err := a.db.QueryRowContext(ctx,
		`SELECT archive_id FROM envelopes WHERE digest = ?`, digest).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up envelope: %w", err)
	}

	archiveID := "art_" + digest[:12]
	_, err = a.db.ExecContext(ctx,
		`INSERT INTO envelopes (archive_id, session_id, round, role, digest, text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		archiveID, t.SessionID, t.Round, string(t.Role), digest, t.Text, t.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert envelope: %w", err)
	}
	return archiveID, nil
}

// Get retrieves an envelope by archival reference id.
func (a *SQLiteArchive) Get(ctx context.Context, archiveID string) (*Envelope, error) {
	var e Envelope
	err := a.db.QueryRowContext(ctx,
		`SELECT archive_id, session_id, round, role, digest, text, created_at
		 FROM envelopes WHERE archive_id = ?`, archiveID).
		Scan(&e.ArchiveID, &e.SessionID, &e.Round, &e.Role, &e.Digest, &e.Text, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope: %w", err)
	}
	return &e, nil
}

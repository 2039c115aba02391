// Package ledger records completed transfers in a local SQLite database so
// `xnat-go history` can show what was moved, when, and whether the upload
// verification passed.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	// Pure-Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Transfer directions.
const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// Verification outcomes.
const (
	OutcomeVerified = "verified"
	OutcomeSkipped  = "skipped"
	OutcomeMismatch = "mismatch"
)

// SQL statements for ledger operations.
const (
	sqlInsertTransfer = `INSERT INTO transfers
		(id, direction, remote_uri, local_path, size, local_md5, remote_md5, outcome, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	sqlRecentTransfers = `SELECT id, direction, remote_uri, local_path, size,
		local_md5, remote_md5, outcome, at
		FROM transfers ORDER BY at DESC, id LIMIT ?`
)

// Transfer is one recorded upload or download.
type Transfer struct {
	ID        uuid.UUID
	Direction string
	RemoteURI string
	LocalPath string
	Size      int64
	LocalMD5  string
	RemoteMD5 string
	Outcome   string
	At        time.Time
}

// Ledger is the sole writer to the transfer database.
type Ledger struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time // injectable for deterministic tests
}

// Open opens (creating if needed) the SQLite database at dbPath and runs
// migrations. The database uses WAL mode with synchronous=FULL for
// crash-safe durability.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("ledger: creating directory for %s: %w", dbPath, err)
	}

	// DSN parameters ensure pragmas apply to every connection from the pool.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
		dbPath,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: opening database %s: %w", dbPath, err)
	}

	// Sole-writer pattern: only one connection writes at a time.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Ledger{
		db:      db,
		logger:  logger,
		nowFunc: time.Now,
	}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts a completed transfer. The ID and timestamp are assigned
// here; the passed Transfer's ID and At fields are ignored.
func (l *Ledger) Record(ctx context.Context, t Transfer) error {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("ledger: generating transfer id: %w", err)
	}

	at := l.nowFunc().UTC()

	_, err = l.db.ExecContext(ctx, sqlInsertTransfer,
		id.String(), t.Direction, t.RemoteURI, t.LocalPath, t.Size,
		t.LocalMD5, t.RemoteMD5, t.Outcome, at.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("ledger: recording transfer: %w", err)
	}

	l.logger.Debug("transfer recorded",
		slog.String("id", id.String()),
		slog.String("direction", t.Direction),
		slog.String("remote_uri", t.RemoteURI),
		slog.String("outcome", t.Outcome),
	)

	return nil
}

// Recent returns the newest limit transfers, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Transfer, error) {
	rows, err := l.db.QueryContext(ctx, sqlRecentTransfers, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: listing transfers: %w", err)
	}
	defer rows.Close()

	var transfers []Transfer

	for rows.Next() {
		var (
			t     Transfer
			rawID string
			rawAt string
		)

		if err := rows.Scan(&rawID, &t.Direction, &t.RemoteURI, &t.LocalPath,
			&t.Size, &t.LocalMD5, &t.RemoteMD5, &t.Outcome, &rawAt); err != nil {
			return nil, fmt.Errorf("ledger: scanning transfer row: %w", err)
		}

		id, parseErr := uuid.Parse(rawID)
		if parseErr != nil {
			return nil, fmt.Errorf("ledger: invalid transfer id %q: %w", rawID, parseErr)
		}

		at, parseErr := time.Parse(time.RFC3339Nano, rawAt)
		if parseErr != nil {
			return nil, fmt.Errorf("ledger: invalid transfer timestamp %q: %w", rawAt, parseErr)
		}

		t.ID = id
		t.At = at
		transfers = append(transfers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterating transfer rows: %w", err)
	}

	return transfers, nil
}

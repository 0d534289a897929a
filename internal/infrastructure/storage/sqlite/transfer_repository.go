// Package sqlite provides the embedded single-node vault store. It carries
// the same conditional-transition contract as the Postgres implementation
// and doubles as the storage backend for integration tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"

	"secureprint/internal/domain/vault"
)

const transferColumns = `code, blob_ref, original_name, mime_type, size, password_hash, created_at, expires_at, state`

type TransferRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewTransferRepository opens (and if needed bootstraps) the database at
// path. ":memory:" gives an ephemeral store for tests. Writes are
// serialized through a single connection; SQLite locks the whole database
// per writer anyway and a second connection only buys "database is locked"
// errors.
func NewTransferRepository(path string, log *slog.Logger) (*TransferRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	r := &TransferRepository{
		db:  db,
		log: log.With("component", "transfer_repository"),
	}
	if err := r.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tables: %w", err)
	}
	return r, nil
}

func (r *TransferRepository) initTables() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS transfers (
			code          TEXT PRIMARY KEY,
			blob_ref      TEXT NOT NULL,
			original_name TEXT NOT NULL,
			mime_type     TEXT NOT NULL,
			size          INTEGER NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL,
			expires_at    DATETIME NOT NULL,
			state         TEXT NOT NULL DEFAULT 'PENDING'
		);

		CREATE INDEX IF NOT EXISTS idx_transfers_expires_at
			ON transfers(expires_at) WHERE state = 'PENDING';
	`)
	return err
}

func (r *TransferRepository) Close() error {
	return r.db.Close()
}

func (r *TransferRepository) Put(ctx context.Context, rec *vault.Record) error {
	const query = `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.Code, rec.BlobRef, rec.OriginalName, rec.MimeType, rec.Size,
		rec.PasswordHash, rec.CreatedAt, rec.ExpiresAt, string(rec.State),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return vault.ErrDuplicateCode
		}
		r.log.Error("failed to insert transfer", "code", rec.Code, "error", err)
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (r *TransferRepository) Get(ctx context.Context, code string) (*vault.Record, error) {
	const query = `SELECT ` + transferColumns + ` FROM transfers WHERE code = ?`

	rec, err := scanTransfer(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vault.ErrInvalidCode
		}
		r.log.Error("failed to get transfer", "code", code, "error", err)
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return rec, nil
}

func (r *TransferRepository) TryRedeem(ctx context.Context, code string, now time.Time) (*vault.Record, error) {
	const query = `
		UPDATE transfers
		SET state = ?
		WHERE code = ? AND state = ? AND expires_at > ?
		RETURNING ` + transferColumns

	rec, err := scanTransfer(r.db.QueryRowContext(ctx, query,
		string(vault.StateUsed), code, string(vault.StatePending), now))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.log.Error("redeem update failed", "code", code, "error", err)
		return nil, fmt.Errorf("redeem transfer: %w", err)
	}

	existing, gerr := r.Get(ctx, code)
	if gerr != nil {
		return nil, gerr
	}
	if existing.State == vault.StatePending {
		return nil, vault.ErrExpiredCode
	}
	return nil, vault.ErrAlreadyUsed
}

func (r *TransferRepository) Transition(ctx context.Context, code string, to vault.State) (bool, error) {
	const query = `UPDATE transfers SET state = ? WHERE code = ? AND state = ?`

	res, err := r.db.ExecContext(ctx, query, string(to), code, string(vault.StatePending))
	if err != nil {
		r.log.Error("transition failed", "code", code, "to", to, "error", err)
		return false, fmt.Errorf("transition transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition transfer: %w", err)
	}
	return affected == 1, nil
}

func (r *TransferRepository) Delete(ctx context.Context, code string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transfers WHERE code = ?`, code); err != nil {
		r.log.Error("failed to delete transfer", "code", code, "error", err)
		return fmt.Errorf("delete transfer: %w", err)
	}
	return nil
}

func (r *TransferRepository) ListExpired(ctx context.Context, now time.Time) ([]vault.Record, error) {
	const query = `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE state = ? AND expires_at < ?
		ORDER BY expires_at`

	rows, err := r.db.QueryContext(ctx, query, string(vault.StatePending), now)
	if err != nil {
		r.log.Error("failed to list expired transfers", "error", err)
		return nil, fmt.Errorf("list expired: %w", err)
	}
	defer rows.Close()

	var expired []vault.Record
	for rows.Next() {
		rec, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired transfer: %w", err)
		}
		expired = append(expired, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expired: %w", err)
	}
	return expired, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*vault.Record, error) {
	var rec vault.Record
	var state string
	err := row.Scan(
		&rec.Code, &rec.BlobRef, &rec.OriginalName, &rec.MimeType, &rec.Size,
		&rec.PasswordHash, &rec.CreatedAt, &rec.ExpiresAt, &state,
	)
	if err != nil {
		return nil, err
	}
	rec.State = vault.State(state)
	return &rec, nil
}

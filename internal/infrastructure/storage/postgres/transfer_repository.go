package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"secureprint/internal/domain/vault"
)

const uniqueViolation = "23505"

const transferColumns = `code, blob_ref, original_name, mime_type, size, password_hash, created_at, expires_at, state`

// TransferRepository is the Postgres vault store. All state transitions are
// single conditional updates guarded by the current state, so the
// PENDING→terminal exclusivity holds across any number of server processes.
type TransferRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewTransferRepository(pool *pgxpool.Pool, log *slog.Logger) *TransferRepository {
	return &TransferRepository{
		pool: pool,
		log:  log.With("component", "transfer_repository"),
	}
}

func (r *TransferRepository) Put(ctx context.Context, rec *vault.Record) error {
	const query = `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		rec.Code, rec.BlobRef, rec.OriginalName, rec.MimeType, rec.Size,
		rec.PasswordHash, rec.CreatedAt, rec.ExpiresAt, rec.State,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return vault.ErrDuplicateCode
		}
		r.log.Error("failed to insert transfer", "code", rec.Code, "error", err)
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (r *TransferRepository) Get(ctx context.Context, code string) (*vault.Record, error) {
	const query = `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE code = $1`

	rec, err := scanTransfer(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vault.ErrInvalidCode
		}
		r.log.Error("failed to get transfer", "code", code, "error", err)
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return rec, nil
}

func (r *TransferRepository) TryRedeem(ctx context.Context, code string, now time.Time) (*vault.Record, error) {
	// The single conditional update is the crux: exactly one concurrent
	// caller sees a row come back, everyone else classifies the loss.
	const query = `
		UPDATE transfers
		SET state = $2
		WHERE code = $1 AND state = $3 AND expires_at > $4
		RETURNING ` + transferColumns

	rec, err := scanTransfer(r.pool.QueryRow(ctx, query, code, vault.StateUsed, vault.StatePending, now))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.log.Error("redeem update failed", "code", code, "error", err)
		return nil, fmt.Errorf("redeem transfer: %w", err)
	}

	// Lost the transition; a plain read is enough to say why.
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
	const query = `
		UPDATE transfers
		SET state = $2
		WHERE code = $1 AND state = $3`

	tag, err := r.pool.Exec(ctx, query, code, to, vault.StatePending)
	if err != nil {
		r.log.Error("transition failed", "code", code, "to", to, "error", err)
		return false, fmt.Errorf("transition transfer: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *TransferRepository) Delete(ctx context.Context, code string) error {
	const query = `DELETE FROM transfers WHERE code = $1`

	if _, err := r.pool.Exec(ctx, query, code); err != nil {
		r.log.Error("failed to delete transfer", "code", code, "error", err)
		return fmt.Errorf("delete transfer: %w", err)
	}
	return nil
}

func (r *TransferRepository) ListExpired(ctx context.Context, now time.Time) ([]vault.Record, error) {
	const query = `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE state = $1 AND expires_at < $2
		ORDER BY expires_at`

	rows, err := r.pool.Query(ctx, query, vault.StatePending, now)
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

func scanTransfer(row pgx.Row) (*vault.Record, error) {
	var rec vault.Record
	err := row.Scan(
		&rec.Code, &rec.BlobRef, &rec.OriginalName, &rec.MimeType, &rec.Size,
		&rec.PasswordHash, &rec.CreatedAt, &rec.ExpiresAt, &rec.State,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

package vault

import (
	"context"
	"time"
)

// Repository is the durable mapping code → Record. Beyond plain CRUD it
// carries the two conditional transitions that make single-use redemption
// safe under concurrency: TryRedeem and Transition. Implementations must
// perform both as a single conditional update guarded by the record's
// current state, never as a read-then-write pair.
type Repository interface {
	// Put inserts a new pending record. ErrDuplicateCode if a pending
	// record with that code already exists.
	Put(ctx context.Context, rec *Record) error

	// Get returns the record for a normalized code, or ErrInvalidCode.
	Get(ctx context.Context, code string) (*Record, error)

	// TryRedeem atomically moves the record from PENDING to USED, guarded
	// by both state and expiry, and returns the record it won. Exactly one
	// concurrent caller wins; the rest observe ErrAlreadyUsed. A record
	// past its expiry is never redeemed: ErrExpiredCode. Unknown codes
	// yield ErrInvalidCode.
	TryRedeem(ctx context.Context, code string, now time.Time) (*Record, error)

	// Transition atomically moves the record from PENDING to the given
	// terminal state. It reports whether this caller won the transition;
	// a lost or missing record is not an error.
	Transition(ctx context.Context, code string, to State) (bool, error)

	// Delete physically removes the record. Deleting an absent code is
	// not an error.
	Delete(ctx context.Context, code string) error

	// ListExpired returns pending records whose expiry has passed. The
	// result is recomputed per call; there is no persistent cursor.
	ListExpired(ctx context.Context, now time.Time) ([]Record, error)
}

// BlobStore is the capability interface over encrypted payload storage.
// Implementations must support idempotent Delete and be safe for
// concurrent use.
type BlobStore interface {
	Store(ctx context.Context, data []byte) (string, error)
	Fetch(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}

// Package memory provides a process-local Repository implementation. It is
// the backend for tests and for single-process deployments that do not want
// an external database; the conditional-transition contract is identical to
// the SQL implementations.
package memory

import (
	"context"
	"sync"
	"time"

	"secureprint/internal/domain/vault"
)

type Repository struct {
	mu      sync.Mutex
	records map[string]*vault.Record
}

func NewRepository() *Repository {
	return &Repository{records: make(map[string]*vault.Record)}
}

func (r *Repository) Put(_ context.Context, rec *vault.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.Code]; ok {
		return vault.ErrDuplicateCode
	}
	clone := *rec
	r.records[rec.Code] = &clone
	return nil
}

func (r *Repository) Get(_ context.Context, code string) (*vault.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[code]
	if !ok {
		return nil, vault.ErrInvalidCode
	}
	clone := *rec
	return &clone, nil
}

func (r *Repository) TryRedeem(_ context.Context, code string, now time.Time) (*vault.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[code]
	if !ok {
		return nil, vault.ErrInvalidCode
	}
	if rec.State != vault.StatePending {
		return nil, vault.ErrAlreadyUsed
	}
	if rec.ExpiredAt(now) {
		return nil, vault.ErrExpiredCode
	}

	rec.State = vault.StateUsed
	clone := *rec
	return &clone, nil
}

func (r *Repository) Transition(_ context.Context, code string, to vault.State) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[code]
	if !ok || rec.State != vault.StatePending {
		return false, nil
	}
	rec.State = to
	return true, nil
}

func (r *Repository) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, code)
	return nil
}

func (r *Repository) ListExpired(_ context.Context, now time.Time) ([]vault.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []vault.Record
	for _, rec := range r.records {
		if rec.State == vault.StatePending && rec.ExpiredAt(now) {
			expired = append(expired, *rec)
		}
	}
	return expired, nil
}

// Len reports the number of live records; used by tests.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

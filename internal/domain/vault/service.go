package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"

	"secureprint/internal/domain/envelope"
)

// Servicer defines the business logic for the one-time-access vault.
type Servicer interface {
	Create(ctx context.Context, in CreateInput) (*CreateResult, error)
	Peek(ctx context.Context, code string) (*PeekResult, error)
	Redeem(ctx context.Context, code, password string) (*RedeemResult, error)
	Cancel(ctx context.Context, code string) error
}

// CreateInput is what the ingress pipeline delivers to the vault's create
// path. The vault does not police content type or scan the bytes.
type CreateInput struct {
	Data         []byte
	OriginalName string
	MimeType     string
	TTL          TTL
	Password     string
}

type CreateResult struct {
	Code      string
	ExpiresAt time.Time
}

// PeekResult is the non-consuming view of a pending record. File metadata
// is withheld until the password gate (if any) would be passed.
type PeekResult struct {
	RequiresPassword bool
	AlreadyUsed      bool
	FileName         string
	FileSize         int64
}

type RedeemResult struct {
	Data     []byte
	FileName string
	MimeType string
	Size     int64
}

// Service orchestrates the vault: sealing uploads, minting codes, the
// atomic single-use redemption protocol and expiry reclamation. The
// Repository's conditional transitions are the only mutation path; the
// service never holds application-level locks across calls.
type Service struct {
	repo  Repository
	blobs BlobStore
	codec *envelope.Codec
	codes *Generator
	log   *slog.Logger
	now   func() time.Time
}

func NewService(repo Repository, blobs BlobStore, codec *envelope.Codec, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		blobs: blobs,
		codec: codec,
		codes: NewGenerator(repo),
		log:   log.With("component", "vault_service"),
		now:   time.Now,
	}
}

// Create seals the payload, stores the blob, mints a collision-checked code
// and persists the pending record. Blob and record writes are one logical
// unit: if the record insert fails the blob is removed again so neither can
// be orphaned by a partial failure.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if len(in.Data) == 0 {
		return nil, ErrEmptyPayload
	}
	ttl, err := ParseTTL(string(in.TTL))
	if err != nil {
		return nil, err
	}

	env, err := s.codec.Seal(in.Data)
	if err != nil {
		return nil, fmt.Errorf("seal payload: %w", err)
	}

	var passwordHash string
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		passwordHash = string(hash)
	}

	ref, err := s.blobs.Store(ctx, env)
	if err != nil {
		s.log.Error("blob store failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	now := s.now()
	rec := &Record{
		BlobRef:      ref,
		OriginalName: in.OriginalName,
		MimeType:     in.MimeType,
		Size:         int64(len(in.Data)),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl.Duration()),
		State:        StatePending,
	}

	if err := s.putWithFreshCode(ctx, rec); err != nil {
		// compensate: the blob must not outlive a record that never existed
		if derr := s.blobs.Delete(ctx, ref); derr != nil {
			s.log.Error("orphaned blob cleanup failed", "blob_ref", ref, "error", derr)
		}
		return nil, err
	}

	s.log.Info("file secured", "code", rec.Code, "size", rec.Size, "expires_at", rec.ExpiresAt)

	return &CreateResult{Code: rec.Code, ExpiresAt: rec.ExpiresAt}, nil
}

func (s *Service) putWithFreshCode(ctx context.Context, rec *Record) error {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		code, err := s.codes.Mint(ctx)
		if err != nil {
			return err
		}
		rec.Code = code

		err = s.repo.Put(ctx, rec)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrDuplicateCode) {
			// lost the check-to-insert window to a concurrent upload
			continue
		}
		s.log.Error("record insert failed", "error", err)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return ErrCodeSpaceExhausted
}

// Peek reports whether a code is live and whether redeeming it needs a
// password, without consuming it. Expired records are reclaimed on sight
// and reported as if they never existed.
func (s *Service) Peek(ctx context.Context, code string) (*PeekResult, error) {
	rec, err := s.repo.Get(ctx, NormalizeCode(code))
	if err != nil {
		return nil, err
	}

	if rec.ExpiredAt(s.now()) {
		if err := s.expire(ctx, rec); err != nil {
			s.log.Error("lazy expiry failed", "code", rec.Code, "error", err)
		}
		return nil, ErrInvalidCode
	}

	res := &PeekResult{
		RequiresPassword: rec.RequiresPassword(),
		AlreadyUsed:      rec.State != StatePending,
	}
	if !rec.RequiresPassword() {
		res.FileName = rec.OriginalName
		res.FileSize = rec.Size
	}
	return res, nil
}

// Redeem runs the one-time redemption protocol: at most one caller ever
// receives the decrypted payload for a given code. Only the winner of the
// PENDING→USED transition touches the blob; losers never read it.
func (s *Service) Redeem(ctx context.Context, code, password string) (*RedeemResult, error) {
	code = NormalizeCode(code)

	rec, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	if rec.ExpiredAt(s.now()) {
		if err := s.expire(ctx, rec); err != nil {
			s.log.Error("lazy expiry failed", "code", code, "error", err)
		}
		return nil, ErrExpiredCode
	}

	// The password gate does not consume the code; callers may retry a
	// wrong password until the code expires or is redeemed.
	if rec.RequiresPassword() {
		if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
			return nil, ErrUnauthorized
		}
	}

	won, err := s.repo.TryRedeem(ctx, code, s.now())
	if errors.Is(err, ErrExpiredCode) {
		// expired between the lookup and the transition
		if eerr := s.expire(ctx, rec); eerr != nil {
			s.log.Error("lazy expiry failed", "code", code, "error", eerr)
		}
		return nil, ErrExpiredCode
	}
	if err != nil {
		return nil, err
	}

	// From here the redemption runs to completion even if the client is
	// gone: an unreachable USED record with a live blob must not survive.
	defer s.destroy(ctx, won)

	env, err := s.blobs.Fetch(ctx, won.BlobRef)
	if err != nil {
		s.log.Error("blob fetch failed after winning redemption", "code", code, "blob_ref", won.BlobRef, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	plaintext, err := s.codec.Open(env)
	if err != nil {
		if errors.Is(err, envelope.ErrAuthentication) {
			s.log.Error("stored envelope failed authentication", "code", code, "blob_ref", won.BlobRef)
			return nil, ErrCorruptedFile
		}
		return nil, fmt.Errorf("open envelope: %w", err)
	}

	s.log.Info("file redeemed", "code", code, "file", won.OriginalName, "size", won.Size)

	return &RedeemResult{
		Data:     plaintext,
		FileName: won.OriginalName,
		MimeType: won.MimeType,
		Size:     won.Size,
	}, nil
}

// Cancel is the sender-initiated early deletion. It only acts on pending
// records and acks idempotently when the record is already gone.
func (s *Service) Cancel(ctx context.Context, code string) error {
	code = NormalizeCode(code)

	rec, err := s.repo.Get(ctx, code)
	if errors.Is(err, ErrInvalidCode) {
		return nil
	}
	if err != nil {
		return err
	}

	won, err := s.repo.Transition(ctx, code, StateDeleted)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !won {
		// a concurrent redeem or sweep got there first
		return nil
	}

	s.destroy(ctx, rec)
	s.log.Info("upload canceled", "code", code, "file", rec.OriginalName)
	return nil
}

// expire performs the atomic PENDING→EXPIRED-then-delete transition shared
// by lazy expiry on the read paths and the background sweeper. Whichever
// caller wins the transition deletes the pair exactly once.
func (s *Service) expire(ctx context.Context, rec *Record) error {
	won, err := s.repo.Transition(ctx, rec.Code, StateExpired)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !won {
		return nil
	}
	s.destroy(ctx, rec)
	return nil
}

// destroy removes the blob and the record after a won transition. Failures
// are logged, not surfaced: the transition already happened and the caller
// cannot act on them.
func (s *Service) destroy(ctx context.Context, rec *Record) {
	if err := s.blobs.Delete(ctx, rec.BlobRef); err != nil {
		s.log.Error("blob delete failed", "code", rec.Code, "blob_ref", rec.BlobRef, "error", err)
	}
	if err := s.repo.Delete(ctx, rec.Code); err != nil {
		s.log.Error("record delete failed", "code", rec.Code, "error", err)
	}
}

package vault

import (
	"errors"
)

var (
	// ErrInvalidCode means no record exists for the presented code.
	ErrInvalidCode = errors.New("invalid access code")
	// ErrExpiredCode means the record's ttl elapsed before redemption; the
	// record and its blob are deleted as a side effect of observing this.
	ErrExpiredCode = errors.New("access code expired")
	// ErrAlreadyUsed means another caller won the redemption transition.
	ErrAlreadyUsed = errors.New("access code already used")
	// ErrUnauthorized means the supplied password did not match. It does
	// not consume the code.
	ErrUnauthorized = errors.New("incorrect password")
	// ErrCorruptedFile means the stored envelope failed authentication.
	// The record and blob are destroyed; retrying cannot help.
	ErrCorruptedFile = errors.New("stored file failed authentication")
	// ErrStorageUnavailable wraps blob or record store I/O failures. It is
	// the only taxonomy member eligible for caller-driven retry.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrDuplicateCode is returned by Repository.Put when a pending record
	// with the same code already exists.
	ErrDuplicateCode = errors.New("duplicate access code")
	// ErrInvalidTTL means the ttl selection is not one of the allowed set.
	ErrInvalidTTL = errors.New("invalid ttl selection")
	// ErrEmptyPayload means the create path received no file bytes.
	ErrEmptyPayload = errors.New("empty payload")
	// ErrCodeSpaceExhausted means code generation ran out of collision
	// retries; practically this signals a saturated or failing store.
	ErrCodeSpaceExhausted = errors.New("could not mint unique access code")
)

package vault

import (
	"time"
)

// State is the lifecycle state of an access record. A record leaves
// StatePending exactly once; the terminal states exist only for the moment
// of the transition, after which the row is physically removed.
type State string

const (
	StatePending State = "PENDING"
	StateUsed    State = "USED"
	StateExpired State = "EXPIRED"
	StateDeleted State = "DELETED"
)

// TTL is a caller-selected retention period from the enumerated set.
type TTL string

const (
	TTL1Hour   TTL = "1h"
	TTL24Hours TTL = "24h"
	TTL7Days   TTL = "7d"

	DefaultTTL = TTL24Hours
)

// ParseTTL validates a client-supplied ttl selection. An empty selection
// falls back to DefaultTTL.
func ParseTTL(s string) (TTL, error) {
	switch TTL(s) {
	case TTL1Hour, TTL24Hours, TTL7Days:
		return TTL(s), nil
	case "":
		return DefaultTTL, nil
	default:
		return "", ErrInvalidTTL
	}
}

func (t TTL) Duration() time.Duration {
	switch t {
	case TTL1Hour:
		return time.Hour
	case TTL7Days:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Record binds a short access code to an encrypted blob and its lifecycle
// state. It is the sole persistent entity of the vault and the unit of
// mutual exclusion for redemption.
type Record struct {
	Code         string    `json:"code"`
	BlobRef      string    `json:"blob_ref"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	State        State     `json:"state"`
}

func (r *Record) ExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

func (r *Record) RequiresPassword() bool {
	return r.PasswordHash != ""
}

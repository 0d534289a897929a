// Package blob provides the swappable encrypted-payload backends behind the
// vault.BlobStore interface: local filesystem, S3-compatible object storage
// and an in-memory store for tests. References handed out by one backend
// are opaque to everything else in the system.
package blob

import (
	"errors"
)

// ErrNotFound is returned by Fetch when the reference does not resolve.
// Delete treats a missing blob as success; deletes must stay idempotent.
var ErrNotFound = errors.New("blob not found")

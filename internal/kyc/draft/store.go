// Package draft implements the auto-save pipeline: a debounced observer
// that snapshots the form to a local key-value store, restore-on-start, and
// draft clearing with a best-effort remote mirror.
package draft

import (
	"context"

	pkgerrors "kyconboard/pkg/errors"
)

// Store is the local key-value boundary drafts persist to. Keys are scoped
// per user (see Key). Implementations must treat Get of an absent key as
// ErrNotFound, not an empty value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Mirror is the optional remote-side draft copy. All operations are
// best-effort: callers log failures and move on. Load returns ErrNotFound
// when no remote copy exists.
type Mirror interface {
	Save(ctx context.Context, userID string, value []byte) error
	Load(ctx context.Context, userID string) ([]byte, error)
	Delete(ctx context.Context, userID string) error
}

// ErrNotFound is returned by stores when no draft exists for a key.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")

const keyPrefix = "kycDraft_"

// Key builds the per-user draft storage key.
func Key(userID string) string {
	return keyPrefix + userID
}

package cache

import (
	"github.com/goliatone/go-typeprovider-cache/internal/cacheinfra"
	"github.com/goliatone/go-typeprovider-cache/protocol"
	"go.trai.ch/zerr"
)

var (
	// ErrUnsupportedBatch is returned by GetOrCreateBatch on a cache whose
	// remote side has no batch fetch. Callers must create keys one by one.
	ErrUnsupportedBatch = zerr.New("batch creation not supported")

	// ErrIdentityMismatch signals a key construction bug: the remote side
	// answered for a different entity than the key names.
	ErrIdentityMismatch = zerr.New("entity identity mismatch")

	// ErrNotFound is what a CacheService fetch returns, and what a
	// CacheService may answer, when the remote side has no such entity.
	ErrNotFound = cacheinfra.ErrNotFound
)

// IdentityMismatchError carries the key and the id the remote side returned.
type IdentityMismatchError struct {
	Cache string
	Key   EntityKey
	Got   protocol.EntityID
}

func (e *IdentityMismatchError) Error() string {
	return ErrIdentityMismatch.Error() + ": " + e.Cache + " key " + e.Key.String() + " resolved to id " + e.Got.String()
}

// Is matches ErrIdentityMismatch.
func (e *IdentityMismatchError) Is(target error) bool {
	return target == ErrIdentityMismatch
}

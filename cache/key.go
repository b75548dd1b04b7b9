package cache

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-typeprovider-cache/protocol"
)

// EntityKey names one cached proxy within one connection.
//
// Stable entities use the remote id alone. Entities whose remote id is not
// stable across identical requests (generative applications, arrays,
// generic instantiations) add a Composite built from the request, so the
// key depends on what was asked for and not on what the remote side minted.
type EntityKey struct {
	ID        protocol.EntityID
	Composite string
	Provider  protocol.ProviderID
}

// RemoteKey is the key of a stable entity.
func RemoteKey(id protocol.EntityID, provider protocol.ProviderID) EntityKey {
	return EntityKey{ID: id, Provider: provider}
}

// IsZero reports whether the key names no entity. Synthesized keys are
// never zero even if the base id is.
func (k EntityKey) IsZero() bool {
	return k.ID.IsZero() && k.Composite == ""
}

// IsSynthesized reports whether the key was built from a request.
func (k EntityKey) IsSynthesized() bool {
	return k.Composite != ""
}

// String renders the key as provider:id[:composite]. The form is
// injective, so it doubles as the coalescing store key.
func (k EntityKey) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(int64(k.Provider), 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(int64(k.ID), 10))
	if k.Composite != "" {
		b.WriteByte(':')
		b.WriteString(k.Composite)
	}
	return b.String()
}

// AppliedTypeKey keys a generative static-argument application by the
// request: the base type, the type path after arguments and the boxed
// arguments. s renders the composite part.
func AppliedTypeKey(s KeySerializer, base protocol.EntityID, provider protocol.ProviderID, path []string, args []protocol.RdStaticArg) EntityKey {
	return EntityKey{
		ID:        base,
		Composite: s.SerializeKey("applied", path, args),
		Provider:  provider,
	}
}

// ArrayTypeKey keys the array of base with the given rank.
func ArrayTypeKey(s KeySerializer, base protocol.EntityID, provider protocol.ProviderID, rank int) EntityKey {
	return EntityKey{
		ID:        base,
		Composite: s.SerializeKey("array", rank),
		Provider:  provider,
	}
}

// GenericTypeKey keys the instantiation of a generic definition with the
// given argument ids.
func GenericTypeKey(s KeySerializer, def protocol.EntityID, provider protocol.ProviderID, args []protocol.EntityID) EntityKey {
	return EntityKey{
		ID:        def,
		Composite: s.SerializeKey("generic", args),
		Provider:  provider,
	}
}

// Less orders keys by provider, then id, then composite.
func (k EntityKey) Less(o EntityKey) bool {
	if k.Provider != o.Provider {
		return k.Provider < o.Provider
	}
	if k.ID != o.ID {
		return k.ID < o.ID
	}
	return k.Composite < o.Composite
}

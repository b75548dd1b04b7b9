// Package cache provides the per-connection identity caches that hold type
// provider proxies.
//
// # Overview
//
// This package exports two main building blocks:
//
//   - EntityCache: maps an EntityKey to exactly one proxy for the lifetime of a connection
//   - KeySerializer: builds the composite part of keys for entities without a stable remote id
//
// An EntityCache never evicts. Creation runs through a coalescing store
// (sturdyc), so concurrent misses on one key share a single remote call, and
// the final proxy is registered in a concurrent map that is the source of
// truth for identity.
//
// # Basic Usage
//
//	types, err := cache.NewEntityCache(cache.Options[*protocol.RdType, *Type]{
//		Name:        "types",
//		Create:      createType,
//		CreateBatch: createTypes,
//		Check:       conn.Check,
//	})
//	t, err := types.GetOrCreate(ctx, cache.RemoteKey(id, provider), nil)
//
// # Keys
//
// Stable entities are keyed by remote id and provider. Generative static
// argument applications, array types and generic instantiations are keyed by
// the request that produced them:
//
//	key := cache.ArrayTypeKey(cache.NewDefaultKeySerializer(), base, provider, 2)
//
// The serializer is supplied by the caller so one instance can be shared by
// every cache of a container. The default key serializer quotes strings and prefixes collections with
// their length, so distinct requests never share a key.
//
// # Failures
//
// A failed creation is never stored. The next lookup of the same key issues
// a fresh remote call. A creation that returns the zero value records the key
// as missing and lookups return the zero value without an error.
package cache

package cache

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/goliatone/go-typeprovider-cache/internal/cacheinfra"
	"github.com/puzpuzpuz/xsync/v3"
)

// CreateFunc creates the proxy for one key. args carries whatever the
// category needs beyond the key (a request payload, a record already in
// hand). Returning the zero V means the remote side has no such entity.
type CreateFunc[A any, V comparable] func(ctx context.Context, key EntityKey, args A) (V, error)

// BatchCreateFunc creates the proxies for several keys with one remote
// request. The result is aligned with keys.
type BatchCreateFunc[A any, V comparable] func(ctx context.Context, keys []EntityKey, args A) ([]V, error)

// Options configures an EntityCache.
type Options[A any, V comparable] struct {
	// Name is used in logs and in the Dump header.
	Name string

	// Create is the single-key creation recipe. Required.
	Create CreateFunc[A, V]

	// CreateBatch is the batch recipe. Nil means the category has no remote
	// batch fetch and GetOrCreateBatch fails with ErrUnsupportedBatch.
	CreateBatch BatchCreateFunc[A, V]

	// DisplayName renders a proxy for Dump. Defaults to the key.
	DisplayName func(V) string

	// Check runs before every lookup, hit or miss. A non-nil error is
	// returned as is; it is how a torn down connection fails fast.
	Check func() error

	// InHand reports whether args already carries the remote answer for
	// the key, such as a record delivered inside another reply. Such
	// creations skip the store, so an earlier "no such entity" answer never
	// hides a record the caller holds.
	InHand func(A) bool

	// Store configures the coalescing store. Zero value uses DefaultConfig.
	// Ignored when Service is set.
	Store Config

	// Service replaces the default sturdyc store.
	Service CacheService[V]

	// Logger receives debug output. Nil discards.
	Logger *slog.Logger
}

// EntityCache maps EntityKey to one proxy for the lifetime of a
// connection. Entries are never evicted or replaced: once a key resolves to
// a proxy, every later lookup returns that same proxy.
//
// Creation goes through a coalescing store so concurrent misses on one key
// share a single remote call. If two creations still race (for example a
// single lookup and a batch covering the same key), the first stored proxy
// wins and the other is discarded.
type EntityCache[A any, V comparable] struct {
	name        string
	create      CreateFunc[A, V]
	createBatch BatchCreateFunc[A, V]
	displayName func(V) string
	check       func() error
	inHand      func(A) bool
	logger      *slog.Logger

	entries *xsync.MapOf[EntityKey, V]
	store   CacheService[V]
}

// NewEntityCache builds a cache from opts.
func NewEntityCache[A any, V comparable](opts Options[A, V]) (*EntityCache[A, V], error) {
	if opts.Create == nil {
		return nil, &cacheinfra.ConfigError{Field: "Create", Message: "cannot be nil"}
	}

	store := opts.Service
	if store == nil {
		storeCfg := opts.Store
		if storeCfg == (Config{}) {
			storeCfg = DefaultConfig()
		}
		s, err := cacheinfra.NewStore[V](storeCfg)
		if err != nil {
			return nil, err
		}
		store = s
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &EntityCache[A, V]{
		name:        opts.Name,
		create:      opts.Create,
		createBatch: opts.CreateBatch,
		displayName: opts.DisplayName,
		check:       opts.Check,
		inHand:      opts.InHand,
		logger:      logger.With("cache", opts.Name),
		entries:     xsync.NewMapOf[EntityKey, V](),
		store:       store,
	}, nil
}

// Name returns the cache name.
func (c *EntityCache[A, V]) Name() string {
	return c.name
}

// Len returns the number of live entries.
func (c *EntityCache[A, V]) Len() int {
	return c.entries.Size()
}

// Lookup returns the proxy for key if it was already created.
func (c *EntityCache[A, V]) Lookup(key EntityKey) (V, bool) {
	return c.entries.Load(key)
}

// GetOrCreate returns the proxy for key, creating it on first use. A zero
// key returns the zero V without a remote call. A failed creation leaves
// nothing behind, so the next call tries again.
func (c *EntityCache[A, V]) GetOrCreate(ctx context.Context, key EntityKey, args A) (V, error) {
	var zero V
	if key.IsZero() {
		return zero, nil
	}
	if err := c.runCheck(); err != nil {
		return zero, err
	}
	if v, ok := c.entries.Load(key); ok {
		return v, nil
	}

	if c.inHand != nil && c.inHand(args) {
		return c.createInHand(ctx, key, args)
	}

	c.logger.Debug("cache miss", "key", key.String())
	v, err := c.store.GetOrFetch(ctx, key.String(), func(ctx context.Context) (V, error) {
		v, err := c.create(ctx, key, args)
		if err != nil {
			return zero, err
		}
		if v == zero {
			return zero, cacheinfra.ErrNotFound
		}
		return v, nil
	})
	if err != nil {
		if cacheinfra.IsMissing(err) {
			return zero, nil
		}
		return zero, err
	}

	return c.register(key, v), nil
}

// GetOrCreateBatch resolves keys in order. Keys already cached are spliced
// back in place; all others are created with one CreateBatch call. Zero
// keys yield zero values.
func (c *EntityCache[A, V]) GetOrCreateBatch(ctx context.Context, keys []EntityKey, args A) ([]V, error) {
	if c.createBatch == nil {
		return nil, ErrUnsupportedBatch
	}
	if err := c.runCheck(); err != nil {
		return nil, err
	}

	var zero V
	out := make([]V, len(keys))
	var (
		missing []string
		byID    = make(map[string]EntityKey)
	)
	for i, key := range keys {
		if key.IsZero() {
			continue
		}
		if v, ok := c.entries.Load(key); ok {
			out[i] = v
			continue
		}
		id := key.String()
		if _, dup := byID[id]; !dup {
			byID[id] = key
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	c.logger.Debug("cache batch miss", "keys", len(missing), "requested", len(keys))
	fetched, err := c.store.GetOrFetchBatch(ctx, missing, func(ctx context.Context, ids []string) (map[string]V, error) {
		batchKeys := make([]EntityKey, len(ids))
		for i, id := range ids {
			batchKeys[i] = byID[id]
		}
		values, err := c.createBatch(ctx, batchKeys, args)
		if err != nil {
			return nil, err
		}
		res := make(map[string]V, len(values))
		for i, v := range values {
			if i < len(ids) && v != zero {
				res[ids[i]] = v
			}
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	for i, key := range keys {
		if key.IsZero() || out[i] != zero {
			continue
		}
		if v, ok := fetched[key.String()]; ok {
			out[i] = c.register(key, v)
		}
	}
	return out, nil
}

// Dump lists every live entry, sorted by display name then key.
func (c *EntityCache[A, V]) Dump() string {
	type row struct {
		key  EntityKey
		name string
	}
	var rows []row
	c.entries.Range(func(k EntityKey, v V) bool {
		name := k.String()
		if c.displayName != nil {
			name = c.displayName(v)
		}
		rows = append(rows, row{key: k, name: name})
		return true
	})
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].name != rows[j].name {
			return rows[i].name < rows[j].name
		}
		return rows[i].key.Less(rows[j].key)
	})

	var b strings.Builder
	b.WriteString(c.name)
	b.WriteString(":")
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(r.key.String())
		b.WriteString(" ")
		b.WriteString(r.name)
	}
	return b.String()
}

// createInHand builds the proxy from a record the caller already holds and
// drops whatever the store remembers for key.
func (c *EntityCache[A, V]) createInHand(ctx context.Context, key EntityKey, args A) (V, error) {
	var zero V
	v, err := c.create(ctx, key, args)
	if err != nil || v == zero {
		return zero, err
	}
	c.store.Delete(key.String())
	return c.register(key, v), nil
}

func (c *EntityCache[A, V]) register(key EntityKey, v V) V {
	actual, loaded := c.entries.LoadOrStore(key, v)
	if loaded && actual != v {
		c.logger.Debug("discarding duplicate creation", "key", key.String())
	}
	return actual
}

func (c *EntityCache[A, V]) runCheck() error {
	if c.check == nil {
		return nil
	}
	return c.check()
}

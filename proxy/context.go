// Package proxy turns remote entity ids into local, identity-stable proxies
// for types, assemblies, members and parameters.
//
// A Context holds one EntityCache per entity category for one connection and
// type provider. Proxies fetch their data on first use through the
// connection's fault boundary and memoize it in lazy cells, so a caller that
// only reads names and flags never triggers a remote call beyond the one
// that created the proxy.
//
// Keying policy per category:
//
//   - assemblies, types, parameters: the remote id
//   - generative static-argument applications: the request (base id, type path, boxed arguments)
//   - array types: base id and rank
//   - generic instantiations: definition id and argument ids
//
// Erased applications, pointer and by-ref types are deduplicated by the
// remote side and go through the type cache under the id it returns.
package proxy

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goliatone/go-typeprovider-cache/cache"
	"github.com/goliatone/go-typeprovider-cache/connection"
	"github.com/goliatone/go-typeprovider-cache/lazy"
	"github.com/goliatone/go-typeprovider-cache/protocol"
	"golang.org/x/sync/errgroup"
)

// Cache names, used in logs and dumps.
const (
	AssembliesCacheName   = "Provided Assemblies"
	TypesCacheName        = "Provided Types"
	ParametersCacheName   = "Provided Parameters"
	AppliedTypesCacheName = "Applied Provided Types"
	ArrayTypesCacheName   = "Array Provided Types"
	GenericTypesCacheName = "Generic Provided Types"
)

// prefetchConcurrency bounds concurrent content fetches in Prefetch.
const prefetchConcurrency = 8

// Options configures a Context.
type Options struct {
	// Connection is the session every proxy calls through. Required.
	Connection *connection.Connection

	// Provider is the type provider owning every entity of this context.
	Provider protocol.ProviderID

	// Store configures the coalescing store of each cache. Zero value uses
	// cache.DefaultConfig.
	Store cache.Config

	// KeySerializer renders the composite part of synthesized keys.
	// Defaults to cache.NewDefaultKeySerializer.
	KeySerializer cache.KeySerializer

	// Logger for cache output. Defaults to the connection logger.
	Logger *slog.Logger
}

// Context owns the caches of one type provider on one connection.
type Context struct {
	conn       *connection.Connection
	provider   protocol.ProviderID
	serializer cache.KeySerializer
	logger     *slog.Logger

	assemblies   *cache.EntityCache[struct{}, *Assembly]
	types        *cache.EntityCache[*protocol.RdType, *Type]
	parameters   *cache.EntityCache[*protocol.RdParameter, *Parameter]
	appliedTypes *cache.EntityCache[protocol.ApplyStaticArgumentsRequest, *Type]
	arrayTypes   *cache.EntityCache[protocol.MakeArrayTypeRequest, *Type]
	genericTypes *cache.EntityCache[protocol.MakeGenericTypeRequest, *Type]
}

// NewContext builds the caches for opts.Provider on opts.Connection.
func NewContext(opts Options) (*Context, error) {
	if opts.Connection == nil {
		return nil, &ArgumentError{Op: "new context", Message: "connection cannot be nil"}
	}

	logger := opts.Logger
	if logger == nil {
		logger = opts.Connection.Logger()
	}

	serializer := opts.KeySerializer
	if serializer == nil {
		serializer = cache.NewDefaultKeySerializer()
	}

	c := &Context{
		conn:       opts.Connection,
		provider:   opts.Provider,
		serializer: serializer,
		logger:     logger.With("provider", opts.Provider.String()),
	}

	var err error
	if c.assemblies, err = cache.NewEntityCache(cache.Options[struct{}, *Assembly]{
		Name:        AssembliesCacheName,
		Create:      c.createAssembly,
		DisplayName: func(a *Assembly) string { return a.LogName() },
		Check:       c.conn.Check,
		Store:       opts.Store,
		Logger:      c.logger,
	}); err != nil {
		return nil, err
	}

	if c.types, err = cache.NewEntityCache(cache.Options[*protocol.RdType, *Type]{
		Name:        TypesCacheName,
		Create:      c.createType,
		CreateBatch: c.createTypes,
		DisplayName: typeDisplayName,
		Check:       c.conn.Check,
		InHand:      func(rec *protocol.RdType) bool { return rec != nil },
		Store:       opts.Store,
		Logger:      c.logger,
	}); err != nil {
		return nil, err
	}

	if c.parameters, err = cache.NewEntityCache(cache.Options[*protocol.RdParameter, *Parameter]{
		Name:        ParametersCacheName,
		Create:      c.createParameter,
		CreateBatch: c.createParameters,
		DisplayName: func(p *Parameter) string { return p.Name() },
		Check:       c.conn.Check,
		InHand:      func(rec *protocol.RdParameter) bool { return rec != nil },
		Store:       opts.Store,
		Logger:      c.logger,
	}); err != nil {
		return nil, err
	}

	if c.appliedTypes, err = cache.NewEntityCache(cache.Options[protocol.ApplyStaticArgumentsRequest, *Type]{
		Name:        AppliedTypesCacheName,
		Create:      c.createAppliedType,
		DisplayName: typeDisplayName,
		Check:       c.conn.Check,
		Store:       opts.Store,
		Logger:      c.logger,
	}); err != nil {
		return nil, err
	}

	if c.arrayTypes, err = cache.NewEntityCache(cache.Options[protocol.MakeArrayTypeRequest, *Type]{
		Name:        ArrayTypesCacheName,
		Create:      c.createArrayType,
		DisplayName: typeDisplayName,
		Check:       c.conn.Check,
		Store:       opts.Store,
		Logger:      c.logger,
	}); err != nil {
		return nil, err
	}

	if c.genericTypes, err = cache.NewEntityCache(cache.Options[protocol.MakeGenericTypeRequest, *Type]{
		Name:        GenericTypesCacheName,
		Create:      c.createGenericType,
		DisplayName: typeDisplayName,
		Check:       c.conn.Check,
		Store:       opts.Store,
		Logger:      c.logger,
	}); err != nil {
		return nil, err
	}

	return c, nil
}

// Connection returns the session the context calls through.
func (c *Context) Connection() *connection.Connection {
	return c.conn
}

// KeySerializer returns the serializer of synthesized keys.
func (c *Context) KeySerializer() cache.KeySerializer {
	return c.serializer
}

// Provider returns the owning type provider id.
func (c *Context) Provider() protocol.ProviderID {
	return c.provider
}

// Assemblies returns the assembly cache.
func (c *Context) Assemblies() *cache.EntityCache[struct{}, *Assembly] {
	return c.assemblies
}

// Types returns the type cache, keyed by remote id.
func (c *Context) Types() *cache.EntityCache[*protocol.RdType, *Type] {
	return c.types
}

// Parameters returns the parameter cache.
func (c *Context) Parameters() *cache.EntityCache[*protocol.RdParameter, *Parameter] {
	return c.parameters
}

// AppliedTypes returns the cache of generative static-argument applications.
func (c *Context) AppliedTypes() *cache.EntityCache[protocol.ApplyStaticArgumentsRequest, *Type] {
	return c.appliedTypes
}

// ArrayTypes returns the cache of array types.
func (c *Context) ArrayTypes() *cache.EntityCache[protocol.MakeArrayTypeRequest, *Type] {
	return c.arrayTypes
}

// GenericTypes returns the cache of generic instantiations.
func (c *Context) GenericTypes() *cache.EntityCache[protocol.MakeGenericTypeRequest, *Type] {
	return c.genericTypes
}

func (c *Context) key(id protocol.EntityID) cache.EntityKey {
	return cache.RemoteKey(id, c.provider)
}

// Type returns the proxy of a type. NoEntity yields nil without a call.
func (c *Context) Type(ctx context.Context, id protocol.EntityID) (*Type, error) {
	return c.types.GetOrCreate(ctx, c.key(id), nil)
}

// TypesByID returns the proxies of several types in order, fetching every
// uncached one with a single call.
func (c *Context) TypesByID(ctx context.Context, ids []protocol.EntityID) ([]*Type, error) {
	if len(ids) == 0 {
		return nil, c.conn.Check()
	}
	keys := make([]cache.EntityKey, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	return c.types.GetOrCreateBatch(ctx, keys, nil)
}

// Assembly returns the proxy of an assembly.
func (c *Context) Assembly(ctx context.Context, id protocol.EntityID) (*Assembly, error) {
	return c.assemblies.GetOrCreate(ctx, c.key(id), struct{}{})
}

// Parameter returns the proxy of a parameter.
func (c *Context) Parameter(ctx context.Context, id protocol.EntityID) (*Parameter, error) {
	return c.parameters.GetOrCreate(ctx, c.key(id), nil)
}

// ParametersByID returns the proxies of several parameters in order.
func (c *Context) ParametersByID(ctx context.Context, ids []protocol.EntityID) ([]*Parameter, error) {
	if len(ids) == 0 {
		return nil, c.conn.Check()
	}
	keys := make([]cache.EntityKey, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	return c.parameters.GetOrCreateBatch(ctx, keys, nil)
}

// parametersFromRecords registers parameters that arrived as records.
// Records without an id cannot be shared and get a private proxy.
func (c *Context) parametersFromRecords(ctx context.Context, recs []*protocol.RdParameter) ([]*Parameter, error) {
	out := make([]*Parameter, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		if rec.ID.IsZero() {
			out = append(out, newParameter(c, cache.EntityKey{}, rec))
			continue
		}
		p, err := c.parameters.GetOrCreate(ctx, c.key(rec.ID), rec)
		if err != nil {
			return nil, err
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// Dump lists every cache of the context.
func (c *Context) Dump() string {
	calls, faults := c.conn.Stats()
	var b strings.Builder
	b.WriteString("Connection " + c.conn.ID().String() + " provider " + c.provider.String())
	b.WriteString(" calls " + strconv.FormatInt(calls, 10) + " faults " + strconv.FormatInt(faults, 10))
	for _, d := range []string{
		c.assemblies.Dump(),
		c.types.Dump(),
		c.parameters.Dump(),
		c.appliedTypes.Dump(),
		c.arrayTypes.Dump(),
		c.genericTypes.Dump(),
	} {
		b.WriteString("\n\n")
		b.WriteString(d)
	}
	return b.String()
}

// Prefetch resolves ids with one batch call, then loads the content of
// every resolved type concurrently. It stops at the first failure; whatever
// was loaded stays cached.
func (c *Context) Prefetch(ctx context.Context, ids []protocol.EntityID) error {
	types, err := c.TypesByID(ctx, ids)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchConcurrency)
	for _, t := range types {
		if t == nil {
			continue
		}
		g.Go(func() error {
			_, err := get(gctx, c, t.content)
			return err
		})
	}
	return g.Wait()
}

func (c *Context) createAssembly(ctx context.Context, key cache.EntityKey, _ struct{}) (*Assembly, error) {
	rec, err := connection.Execute(ctx, c.conn, connection.Default, protocol.MethodGetAssembly,
		func(ctx context.Context, h protocol.Host) (*protocol.RdAssembly, error) {
			return h.GetAssembly(ctx, key.ID)
		})
	if err != nil || rec == nil {
		return nil, err
	}
	if rec.ID != key.ID {
		return nil, lazy.Permanent(&cache.IdentityMismatchError{Cache: AssembliesCacheName, Key: key, Got: rec.ID})
	}
	return newAssembly(c, key, rec), nil
}

// createType builds a type proxy from rec when the caller already holds the
// record, otherwise fetches it.
func (c *Context) createType(ctx context.Context, key cache.EntityKey, rec *protocol.RdType) (*Type, error) {
	if rec == nil {
		recs, err := c.fetchTypes(ctx, []protocol.EntityID{key.ID})
		if err != nil {
			return nil, err
		}
		rec = recs[0]
	}
	if rec == nil {
		return nil, nil
	}
	if rec.ID != key.ID {
		return nil, lazy.Permanent(&cache.IdentityMismatchError{Cache: TypesCacheName, Key: key, Got: rec.ID})
	}
	return newType(c, key, rec), nil
}

func (c *Context) createTypes(ctx context.Context, keys []cache.EntityKey, _ *protocol.RdType) ([]*Type, error) {
	ids := make([]protocol.EntityID, len(keys))
	for i, k := range keys {
		ids[i] = k.ID
	}
	recs, err := c.fetchTypes(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*Type, len(keys))
	for i, rec := range recs {
		if rec == nil {
			continue
		}
		if rec.ID != keys[i].ID {
			return nil, lazy.Permanent(&cache.IdentityMismatchError{Cache: TypesCacheName, Key: keys[i], Got: rec.ID})
		}
		out[i] = newType(c, keys[i], rec)
	}
	return out, nil
}

func (c *Context) fetchTypes(ctx context.Context, ids []protocol.EntityID) ([]*protocol.RdType, error) {
	recs, err := connection.Execute(ctx, c.conn, connection.Default, protocol.MethodGetTypes,
		func(ctx context.Context, h protocol.Host) ([]*protocol.RdType, error) {
			return h.GetTypes(ctx, ids)
		})
	if err != nil {
		return nil, err
	}
	if len(recs) != len(ids) {
		return nil, lazy.Permanent(&MalformedReplyError{Op: protocol.MethodGetTypes, Want: len(ids), Got: len(recs)})
	}
	return recs, nil
}

func (c *Context) createParameter(ctx context.Context, key cache.EntityKey, rec *protocol.RdParameter) (*Parameter, error) {
	if rec == nil {
		recs, err := c.fetchParameters(ctx, []protocol.EntityID{key.ID})
		if err != nil {
			return nil, err
		}
		rec = recs[0]
	}
	if rec == nil {
		return nil, nil
	}
	if rec.ID != key.ID {
		return nil, lazy.Permanent(&cache.IdentityMismatchError{Cache: ParametersCacheName, Key: key, Got: rec.ID})
	}
	return newParameter(c, key, rec), nil
}

func (c *Context) createParameters(ctx context.Context, keys []cache.EntityKey, _ *protocol.RdParameter) ([]*Parameter, error) {
	ids := make([]protocol.EntityID, len(keys))
	for i, k := range keys {
		ids[i] = k.ID
	}
	recs, err := c.fetchParameters(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*Parameter, len(keys))
	for i, rec := range recs {
		if rec == nil {
			continue
		}
		if rec.ID != keys[i].ID {
			return nil, lazy.Permanent(&cache.IdentityMismatchError{Cache: ParametersCacheName, Key: keys[i], Got: rec.ID})
		}
		out[i] = newParameter(c, keys[i], rec)
	}
	return out, nil
}

func (c *Context) fetchParameters(ctx context.Context, ids []protocol.EntityID) ([]*protocol.RdParameter, error) {
	recs, err := connection.Execute(ctx, c.conn, connection.Default, protocol.MethodGetParameters,
		func(ctx context.Context, h protocol.Host) ([]*protocol.RdParameter, error) {
			return h.GetParameters(ctx, ids)
		})
	if err != nil {
		return nil, err
	}
	if len(recs) != len(ids) {
		return nil, lazy.Permanent(&MalformedReplyError{Op: protocol.MethodGetParameters, Want: len(ids), Got: len(recs)})
	}
	return recs, nil
}

func (c *Context) createAppliedType(ctx context.Context, key cache.EntityKey, req protocol.ApplyStaticArgumentsRequest) (*Type, error) {
	rec, err := connection.Execute(ctx, c.conn, connection.Maximal, protocol.MethodApplyStaticArguments,
		func(ctx context.Context, h protocol.Host) (*protocol.RdType, error) {
			return h.ApplyStaticArguments(ctx, req)
		})
	if err != nil || rec == nil {
		return nil, err
	}
	return newType(c, key, rec), nil
}

func (c *Context) createArrayType(ctx context.Context, key cache.EntityKey, req protocol.MakeArrayTypeRequest) (*Type, error) {
	rec, err := connection.Execute(ctx, c.conn, connection.Default, protocol.MethodMakeArrayType,
		func(ctx context.Context, h protocol.Host) (*protocol.RdType, error) {
			return h.MakeArrayType(ctx, req)
		})
	if err != nil || rec == nil {
		return nil, err
	}
	return newType(c, key, rec), nil
}

func (c *Context) createGenericType(ctx context.Context, key cache.EntityKey, req protocol.MakeGenericTypeRequest) (*Type, error) {
	rec, err := connection.Execute(ctx, c.conn, connection.Default, protocol.MethodMakeGenericType,
		func(ctx context.Context, h protocol.Host) (*protocol.RdType, error) {
			return h.MakeGenericType(ctx, req)
		})
	if err != nil || rec == nil {
		return nil, err
	}
	return newType(c, key, rec), nil
}

// get reads a lazy cell after checking the connection is still alive, so
// values memoized before teardown are not served afterwards.
func get[T any](ctx context.Context, c *Context, cell *lazy.Cell[T]) (T, error) {
	if err := c.conn.Check(); err != nil {
		var zero T
		return zero, err
	}
	return cell.Get(ctx)
}

func typeDisplayName(t *Type) string {
	return t.FullName()
}

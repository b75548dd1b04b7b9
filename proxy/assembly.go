package proxy

import (
	"context"

	"github.com/goliatone/go-typeprovider-cache/cache"
	"github.com/goliatone/go-typeprovider-cache/connection"
	"github.com/goliatone/go-typeprovider-cache/lazy"
	"github.com/goliatone/go-typeprovider-cache/protocol"
)

// Assembly is the proxy of a provided assembly.
type Assembly struct {
	c   *Context
	key cache.EntityKey
	rec protocol.RdAssembly

	manifest   *lazy.Cell[[]byte]
	attributes *lazy.Cell[Attributes]
}

func newAssembly(c *Context, key cache.EntityKey, rec *protocol.RdAssembly) *Assembly {
	a := &Assembly{c: c, key: key, rec: *rec}
	id := rec.ID
	a.manifest = lazy.New(func(ctx context.Context) ([]byte, error) {
		return connection.Execute(ctx, c.conn, connection.Maximal, protocol.MethodGetManifestModuleContents,
			func(ctx context.Context, h protocol.Host) ([]byte, error) {
				return h.GetManifestModuleContents(ctx, id)
			})
	})
	a.attributes = attributesCell(c, protocol.KindAssembly, id)
	return a
}

func (a *Assembly) Key() cache.EntityKey      { return a.key }
func (a *Assembly) Kind() protocol.EntityKind { return protocol.KindAssembly }
func (a *Assembly) ID() protocol.EntityID     { return a.rec.ID }
func (a *Assembly) Name() string              { return a.rec.Name }
func (a *Assembly) FullName() string          { return a.rec.FullName }
func (a *Assembly) Version() string           { return a.rec.Version }

// LogName is the name used in dumps: the full name, or the short name when
// the host did not send one.
func (a *Assembly) LogName() string {
	if a.rec.FullName != "" {
		return a.rec.FullName
	}
	return a.rec.Name
}

func (a *Assembly) String() string { return a.LogName() }

// GetManifestModuleContents returns the raw bytes of the manifest module.
// The bytes are shared; callers must not modify them.
func (a *Assembly) GetManifestModuleContents(ctx context.Context) ([]byte, error) {
	return get(ctx, a.c, a.manifest)
}

// CustomAttributes returns the custom attributes of the assembly.
func (a *Assembly) CustomAttributes(ctx context.Context) (Attributes, error) {
	return get(ctx, a.c, a.attributes)
}

package proxy

import (
	"context"

	"github.com/goliatone/go-typeprovider-cache/cache"
	"github.com/goliatone/go-typeprovider-cache/lazy"
	"github.com/goliatone/go-typeprovider-cache/protocol"
)

// Parameter is the proxy of a method parameter or a static parameter.
type Parameter struct {
	c   *Context
	key cache.EntityKey
	rec protocol.RdParameter

	parameterType *lazy.Cell[*Type]
	attributes    *lazy.Cell[Attributes]
}

func newParameter(c *Context, key cache.EntityKey, rec *protocol.RdParameter) *Parameter {
	return &Parameter{
		c:             c,
		key:           key,
		rec:           *rec,
		parameterType: typeRefCell(c, rec.ParameterType),
		attributes:    attributesCell(c, protocol.KindParameter, rec.ID),
	}
}

// Key returns the cache key. Parameters that arrived without an id have a
// zero key and are not shared.
func (p *Parameter) Key() cache.EntityKey      { return p.key }
func (p *Parameter) Kind() protocol.EntityKind { return protocol.KindParameter }
func (p *Parameter) ID() protocol.EntityID     { return p.rec.ID }
func (p *Parameter) Name() string              { return p.rec.Name }

func (p *Parameter) IsIn() bool            { return p.rec.Flags.Has(protocol.ParameterIsIn) }
func (p *Parameter) IsOut() bool           { return p.rec.Flags.Has(protocol.ParameterIsOut) }
func (p *Parameter) IsOptional() bool      { return p.rec.Flags.Has(protocol.ParameterIsOptional) }
func (p *Parameter) HasDefaultValue() bool { return p.rec.Flags.Has(protocol.ParameterHasDefaultValue) }

// RawDefaultValue returns the unboxed default value, nil when there is none.
func (p *Parameter) RawDefaultValue() (any, error) {
	if p.rec.RawDefaultValue == nil {
		return nil, nil
	}
	return protocol.UnboxStaticArg(*p.rec.RawDefaultValue)
}

// ParameterType returns the type of the parameter.
func (p *Parameter) ParameterType(ctx context.Context) (*Type, error) {
	return get(ctx, p.c, p.parameterType)
}

// CustomAttributes returns the custom attributes of the parameter.
func (p *Parameter) CustomAttributes(ctx context.Context) (Attributes, error) {
	if p.rec.ID.IsZero() {
		return nil, p.c.conn.Check()
	}
	return get(ctx, p.c, p.attributes)
}

// Variable is a local, immutable variable of a provided type. It never
// talks to the remote side.
type Variable struct {
	name string
	typ  *Type
}

func (v *Variable) Key() cache.EntityKey      { return cache.EntityKey{} }
func (v *Variable) Kind() protocol.EntityKind { return protocol.KindVariable }
func (v *Variable) Name() string              { return v.name }
func (v *Variable) Type() *Type               { return v.typ }

// IsMutable is always false.
func (v *Variable) IsMutable() bool { return false }

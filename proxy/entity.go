package proxy

import (
	"context"

	"github.com/goliatone/go-typeprovider-cache/cache"
	"github.com/goliatone/go-typeprovider-cache/protocol"
)

// Entity is the surface every proxy shares. The set of implementations is
// closed: Type, Assembly, Method, Constructor, Property, Field, Event,
// Parameter and Variable.
//
// Key names the entity within its connection. Members are keyed by their
// remote id even though they live in the content of their declaring type;
// a Variable is local and always has the zero key.
type Entity interface {
	Key() cache.EntityKey
	Kind() protocol.EntityKind
	Name() string

	entity()
}

// AttributeProvider is implemented by proxies that carry custom attributes.
type AttributeProvider interface {
	Entity
	CustomAttributes(ctx context.Context) (Attributes, error)
}

// Member is implemented by proxies declared on a type.
type Member interface {
	AttributeProvider
	DeclaringType(ctx context.Context) (*Type, error)
}

var (
	_ AttributeProvider = (*Type)(nil)
	_ AttributeProvider = (*Assembly)(nil)
	_ AttributeProvider = (*Parameter)(nil)
	_ Member            = (*Method)(nil)
	_ Member            = (*Constructor)(nil)
	_ Member            = (*Property)(nil)
	_ Member            = (*Field)(nil)
	_ Member            = (*Event)(nil)
	_ Entity            = (*Variable)(nil)
)

func (*Type) entity()        {}
func (*Assembly) entity()    {}
func (*Method) entity()      {}
func (*Constructor) entity() {}
func (*Property) entity()    {}
func (*Field) entity()       {}
func (*Event) entity()       {}
func (*Parameter) entity()   {}
func (*Variable) entity()    {}

package proxy

import (
	"context"

	"github.com/goliatone/go-typeprovider-cache/cache"
	"github.com/goliatone/go-typeprovider-cache/connection"
	"github.com/goliatone/go-typeprovider-cache/lazy"
	"github.com/goliatone/go-typeprovider-cache/protocol"
)

// typeContent is everything GetContent returns, resolved to proxies.
type typeContent struct {
	interfaces   []*Type
	constructors []*Constructor
	methods      []*Method
	properties   []*Property
	fields       []*Field
	events       []*Event
}

// Type is the proxy of a remote type. Names and flags come from the record
// it was created with; everything else is fetched on first use and kept.
type Type struct {
	c   *Context
	key cache.EntityKey
	rec protocol.RdType

	content        *lazy.Cell[*typeContent]
	allNested      *lazy.Cell[[]*Type]
	genericArgs    *lazy.Cell[[]*Type]
	staticParams   *lazy.Cell[[]*Parameter]
	attributes     *lazy.Cell[Attributes]
	baseType       *lazy.Cell[*Type]
	declaringType  *lazy.Cell[*Type]
	assembly       *lazy.Cell[*Assembly]
	arrayRank      *lazy.Cell[int]
	elementType    *lazy.Cell[*Type]
	enumUnderlying *lazy.Cell[*Type]
	genericDef     *lazy.Cell[*Type]
	genericPos     *lazy.Cell[int]
	pointer        *lazy.Cell[*Type]
	byRef          *lazy.Cell[*Type]
}

func newType(c *Context, key cache.EntityKey, rec *protocol.RdType) *Type {
	t := &Type{c: c, key: key, rec: *rec}
	id := rec.ID

	t.content = lazy.New(t.loadContent)

	t.allNested = lazy.New(func(ctx context.Context) ([]*Type, error) {
		ids, err := connection.Execute(ctx, c.conn, connection.Maximal, protocol.MethodGetAllNestedTypes,
			func(ctx context.Context, h protocol.Host) ([]protocol.EntityID, error) {
				return h.GetAllNestedTypes(ctx, id)
			})
		if err != nil {
			return nil, err
		}
		return c.TypesByID(ctx, ids)
	})

	t.genericArgs = lazy.New(func(ctx context.Context) ([]*Type, error) {
		return c.TypesByID(ctx, t.rec.GenericArguments)
	})

	t.staticParams = lazy.New(func(ctx context.Context) ([]*Parameter, error) {
		recs, err := connection.Execute(ctx, c.conn, connection.Maximal, protocol.MethodGetStaticParameters,
			func(ctx context.Context, h protocol.Host) ([]*protocol.RdParameter, error) {
				return h.GetStaticParameters(ctx, id)
			})
		if err != nil {
			return nil, err
		}
		return c.parametersFromRecords(ctx, recs)
	})

	t.attributes = attributesCell(c, protocol.KindType, id)

	t.baseType = typeRefCell(c, rec.BaseType)
	t.declaringType = typeRefCell(c, rec.DeclaringType)
	t.assembly = lazy.New(func(ctx context.Context) (*Assembly, error) {
		return c.Assembly(ctx, t.rec.Assembly)
	})

	t.arrayRank = remoteCell(c, protocol.MethodGetArrayRank, func(ctx context.Context, h protocol.Host) (int, error) {
		return h.GetArrayRank(ctx, id)
	})
	t.genericPos = remoteCell(c, protocol.MethodGetGenericParameterPosition, func(ctx context.Context, h protocol.Host) (int, error) {
		return h.GetGenericParameterPosition(ctx, id)
	})
	t.elementType = remoteTypeCell(c, protocol.MethodGetElementType, func(ctx context.Context, h protocol.Host) (protocol.EntityID, error) {
		return h.GetElementType(ctx, id)
	})
	t.enumUnderlying = remoteTypeCell(c, protocol.MethodGetEnumUnderlyingType, func(ctx context.Context, h protocol.Host) (protocol.EntityID, error) {
		return h.GetEnumUnderlyingType(ctx, id)
	})
	t.genericDef = remoteTypeCell(c, protocol.MethodGetGenericTypeDefinition, func(ctx context.Context, h protocol.Host) (protocol.EntityID, error) {
		return h.GetGenericTypeDefinition(ctx, id)
	})
	t.pointer = remoteTypeCell(c, protocol.MethodMakePointerType, func(ctx context.Context, h protocol.Host) (protocol.EntityID, error) {
		return h.MakePointerType(ctx, id)
	})
	t.byRef = remoteTypeCell(c, protocol.MethodMakeByRefType, func(ctx context.Context, h protocol.Host) (protocol.EntityID, error) {
		return h.MakeByRefType(ctx, id)
	})

	return t
}

func (t *Type) loadContent(ctx context.Context) (*typeContent, error) {
	c := t.c
	rc, err := connection.Execute(ctx, c.conn, connection.Maximal, protocol.MethodGetContent,
		func(ctx context.Context, h protocol.Host) (*protocol.RdTypeContent, error) {
			return h.GetContent(ctx, t.rec.ID)
		})
	if err != nil {
		return nil, err
	}
	if rc == nil {
		rc = &protocol.RdTypeContent{}
	}

	interfaces, err := c.TypesByID(ctx, rc.Interfaces)
	if err != nil {
		return nil, err
	}

	content := &typeContent{
		interfaces:   interfaces,
		constructors: make([]*Constructor, len(rc.Constructors)),
		methods:      make([]*Method, len(rc.Methods)),
		properties:   make([]*Property, len(rc.Properties)),
		fields:       make([]*Field, len(rc.Fields)),
		events:       make([]*Event, len(rc.Events)),
	}
	for i := range rc.Constructors {
		content.constructors[i] = newConstructor(c, t, &rc.Constructors[i])
	}
	for i := range rc.Methods {
		content.methods[i] = newMethod(c, t, &rc.Methods[i])
	}
	for i := range rc.Properties {
		content.properties[i] = newProperty(c, t, &rc.Properties[i])
	}
	for i := range rc.Fields {
		content.fields[i] = newField(c, t, &rc.Fields[i])
	}
	for i := range rc.Events {
		content.events[i] = newEvent(c, t, &rc.Events[i])
	}
	return content, nil
}

// Key returns the cache key of the proxy.
func (t *Type) Key() cache.EntityKey { return t.key }

// Kind returns protocol.KindType.
func (t *Type) Kind() protocol.EntityKind { return protocol.KindType }

// ID returns the remote id the proxy was created from.
func (t *Type) ID() protocol.EntityID { return t.rec.ID }

func (t *Type) Name() string              { return t.rec.Name }
func (t *Type) FullName() string          { return t.rec.FullName }
func (t *Type) Namespace() string         { return t.rec.Namespace }
func (t *Type) Flags() protocol.TypeFlags { return t.rec.Flags }
func (t *Type) String() string            { return t.rec.FullName }

func (t *Type) IsGenericParameter() bool { return t.rec.Flags.Has(protocol.TypeIsGenericParameter) }
func (t *Type) IsValueType() bool        { return t.rec.Flags.Has(protocol.TypeIsValueType) }
func (t *Type) IsByRef() bool            { return t.rec.Flags.Has(protocol.TypeIsByRef) }
func (t *Type) IsPointer() bool          { return t.rec.Flags.Has(protocol.TypeIsPointer) }
func (t *Type) IsPublic() bool           { return t.rec.Flags.Has(protocol.TypeIsPublic) }
func (t *Type) IsNestedPublic() bool     { return t.rec.Flags.Has(protocol.TypeIsNestedPublic) }
func (t *Type) IsArray() bool            { return t.rec.Flags.Has(protocol.TypeIsArray) }
func (t *Type) IsEnum() bool             { return t.rec.Flags.Has(protocol.TypeIsEnum) }
func (t *Type) IsClass() bool            { return t.rec.Flags.Has(protocol.TypeIsClass) }
func (t *Type) IsSealed() bool           { return t.rec.Flags.Has(protocol.TypeIsSealed) }
func (t *Type) IsAbstract() bool         { return t.rec.Flags.Has(protocol.TypeIsAbstract) }
func (t *Type) IsInterface() bool        { return t.rec.Flags.Has(protocol.TypeIsInterface) }
func (t *Type) IsSuppressRelocate() bool { return t.rec.Flags.Has(protocol.TypeIsSuppressRelocate) }
func (t *Type) IsErased() bool           { return t.rec.Flags.Has(protocol.TypeIsErased) }
func (t *Type) IsGenericType() bool      { return t.rec.Flags.Has(protocol.TypeIsGenericType) }
func (t *Type) IsVoid() bool             { return t.rec.Flags.Has(protocol.TypeIsVoid) }
func (t *Type) IsMeasure() bool          { return t.rec.Flags.Has(protocol.TypeIsMeasure) }

// BaseType returns the base type, nil if there is none.
func (t *Type) BaseType(ctx context.Context) (*Type, error) {
	return get(ctx, t.c, t.baseType)
}

// DeclaringType returns the enclosing type of a nested type.
func (t *Type) DeclaringType(ctx context.Context) (*Type, error) {
	return get(ctx, t.c, t.declaringType)
}

// Assembly returns the assembly the type belongs to.
func (t *Type) Assembly(ctx context.Context) (*Assembly, error) {
	return get(ctx, t.c, t.assembly)
}

// CustomAttributes returns the custom attributes of the type.
func (t *Type) CustomAttributes(ctx context.Context) (Attributes, error) {
	return get(ctx, t.c, t.attributes)
}

// GetAllNestedTypes returns every nested type, whatever its visibility.
func (t *Type) GetAllNestedTypes(ctx context.Context) ([]*Type, error) {
	return get(ctx, t.c, t.allNested)
}

// GetNestedTypes returns the public nested types.
func (t *Type) GetNestedTypes(ctx context.Context) ([]*Type, error) {
	all, err := t.GetAllNestedTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Type, 0, len(all))
	for _, nt := range all {
		if nt != nil && (nt.IsPublic() || nt.IsNestedPublic()) {
			out = append(out, nt)
		}
	}
	return out, nil
}

// GetNestedType returns the nested type called name, nil if none.
func (t *Type) GetNestedType(ctx context.Context, name string) (*Type, error) {
	all, err := t.GetAllNestedTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, nt := range all {
		if nt != nil && nt.Name() == name {
			return nt, nil
		}
	}
	return nil, nil
}

// GetGenericArguments returns the generic arguments in declaration order.
func (t *Type) GetGenericArguments(ctx context.Context) ([]*Type, error) {
	return get(ctx, t.c, t.genericArgs)
}

// GetGenericTypeDefinition returns the generic definition of a constructed
// generic type.
func (t *Type) GetGenericTypeDefinition(ctx context.Context) (*Type, error) {
	return get(ctx, t.c, t.genericDef)
}

// GenericParameterPosition returns the position of a generic parameter.
func (t *Type) GenericParameterPosition(ctx context.Context) (int, error) {
	return get(ctx, t.c, t.genericPos)
}

// GetStaticParameters returns the static parameters the type accepts.
func (t *Type) GetStaticParameters(ctx context.Context) ([]*Parameter, error) {
	return get(ctx, t.c, t.staticParams)
}

// GetArrayRank returns the rank of an array type.
func (t *Type) GetArrayRank(ctx context.Context) (int, error) {
	return get(ctx, t.c, t.arrayRank)
}

// GetElementType returns the element type of an array, pointer or by-ref
// type.
func (t *Type) GetElementType(ctx context.Context) (*Type, error) {
	return get(ctx, t.c, t.elementType)
}

// GetEnumUnderlyingType returns the underlying type of an enum.
func (t *Type) GetEnumUnderlyingType(ctx context.Context) (*Type, error) {
	return get(ctx, t.c, t.enumUnderlying)
}

func (t *Type) loaded(ctx context.Context) (*typeContent, error) {
	return get(ctx, t.c, t.content)
}

// GetInterfaces returns the implemented interfaces.
func (t *Type) GetInterfaces(ctx context.Context) ([]*Type, error) {
	content, err := t.loaded(ctx)
	if err != nil {
		return nil, err
	}
	return content.interfaces, nil
}

// GetConstructors returns the constructors.
func (t *Type) GetConstructors(ctx context.Context) ([]*Constructor, error) {
	content, err := t.loaded(ctx)
	if err != nil {
		return nil, err
	}
	return content.constructors, nil
}

// GetMethods returns the methods.
func (t *Type) GetMethods(ctx context.Context) ([]*Method, error) {
	content, err := t.loaded(ctx)
	if err != nil {
		return nil, err
	}
	return content.methods, nil
}

// GetProperties returns the properties.
func (t *Type) GetProperties(ctx context.Context) ([]*Property, error) {
	content, err := t.loaded(ctx)
	if err != nil {
		return nil, err
	}
	return content.properties, nil
}

// GetProperty returns the property called name, nil if none.
func (t *Type) GetProperty(ctx context.Context, name string) (*Property, error) {
	props, err := t.GetProperties(ctx)
	if err != nil {
		return nil, err
	}
	return findByName(props, name), nil
}

// GetFields returns the fields.
func (t *Type) GetFields(ctx context.Context) ([]*Field, error) {
	content, err := t.loaded(ctx)
	if err != nil {
		return nil, err
	}
	return content.fields, nil
}

// GetField returns the field called name, nil if none.
func (t *Type) GetField(ctx context.Context, name string) (*Field, error) {
	fields, err := t.GetFields(ctx)
	if err != nil {
		return nil, err
	}
	return findByName(fields, name), nil
}

// GetEvents returns the events.
func (t *Type) GetEvents(ctx context.Context) ([]*Event, error) {
	content, err := t.loaded(ctx)
	if err != nil {
		return nil, err
	}
	return content.events, nil
}

// GetEvent returns the event called name, nil if none.
func (t *Type) GetEvent(ctx context.Context, name string) (*Event, error) {
	events, err := t.GetEvents(ctx)
	if err != nil {
		return nil, err
	}
	return findByName(events, name), nil
}

// ApplyStaticArguments instantiates the type with static arguments.
//
// Erased types are deduplicated by the remote side, so the result is cached
// under the id it returns. Generative types get a fresh remote id per
// application and are cached under the request instead, so equal requests
// yield the same proxy.
func (t *Type) ApplyStaticArguments(ctx context.Context, typePathAfterArguments []string, args []any) (*Type, error) {
	if err := t.c.conn.Check(); err != nil {
		return nil, err
	}
	staticArgs, err := protocol.BoxStaticArgs(args)
	if err != nil {
		return nil, err
	}
	req := protocol.ApplyStaticArgumentsRequest{
		TypeID:                     t.rec.ID,
		FullTypePathAfterArguments: typePathAfterArguments,
		StaticArgs:                 staticArgs,
	}

	if !t.IsErased() {
		key := cache.AppliedTypeKey(t.c.serializer, t.rec.ID, t.c.provider, typePathAfterArguments, staticArgs)
		return t.c.appliedTypes.GetOrCreate(ctx, key, req)
	}

	rec, err := connection.Execute(ctx, t.c.conn, connection.Maximal, protocol.MethodApplyStaticArguments,
		func(ctx context.Context, h protocol.Host) (*protocol.RdType, error) {
			return h.ApplyStaticArguments(ctx, req)
		})
	if err != nil || rec == nil {
		return nil, err
	}
	return t.c.types.GetOrCreate(ctx, t.c.key(rec.ID), rec)
}

// MakeArrayType returns the array of this type with the given rank. Equal
// requests yield the same proxy and at most one remote call.
func (t *Type) MakeArrayType(ctx context.Context, rank int) (*Type, error) {
	if rank < 1 {
		return nil, &ArgumentError{Op: protocol.MethodMakeArrayType, Message: "rank must be at least 1"}
	}
	key := cache.ArrayTypeKey(t.c.serializer, t.rec.ID, t.c.provider, rank)
	return t.c.arrayTypes.GetOrCreate(ctx, key, protocol.MakeArrayTypeRequest{TypeID: t.rec.ID, Rank: rank})
}

// MakeGenericType instantiates this generic definition with args.
func (t *Type) MakeGenericType(ctx context.Context, args []*Type) (*Type, error) {
	ids := make([]protocol.EntityID, len(args))
	for i, a := range args {
		if a == nil {
			return nil, &ArgumentError{Op: protocol.MethodMakeGenericType, Message: "generic argument cannot be nil"}
		}
		ids[i] = a.ID()
	}
	key := cache.GenericTypeKey(t.c.serializer, t.rec.ID, t.c.provider, ids)
	return t.c.genericTypes.GetOrCreate(ctx, key, protocol.MakeGenericTypeRequest{TypeID: t.rec.ID, Arguments: ids})
}

// MakePointerType returns the pointer type of this type.
func (t *Type) MakePointerType(ctx context.Context) (*Type, error) {
	return get(ctx, t.c, t.pointer)
}

// MakeByRefType returns the by-ref type of this type.
func (t *Type) MakeByRefType(ctx context.Context) (*Type, error) {
	return get(ctx, t.c, t.byRef)
}

// AsVariable returns an immutable variable of this type.
func (t *Type) AsVariable(name string) *Variable {
	return &Variable{name: name, typ: t}
}

// typeRefCell resolves a type id known at construction.
func typeRefCell(c *Context, id protocol.EntityID) *lazy.Cell[*Type] {
	if id.IsZero() {
		return lazy.Value[*Type](nil)
	}
	return lazy.New(func(ctx context.Context) (*Type, error) {
		return c.Type(ctx, id)
	})
}

// remoteCell memoizes one remote call.
func remoteCell[T any](c *Context, op string, fn func(ctx context.Context, h protocol.Host) (T, error)) *lazy.Cell[T] {
	return lazy.New(func(ctx context.Context) (T, error) {
		return connection.Execute(ctx, c.conn, connection.Default, op, fn)
	})
}

// remoteTypeCell memoizes a remote call answering a type id, resolved
// through the type cache.
func remoteTypeCell(c *Context, op string, fn func(ctx context.Context, h protocol.Host) (protocol.EntityID, error)) *lazy.Cell[*Type] {
	return lazy.New(func(ctx context.Context) (*Type, error) {
		id, err := connection.Execute(ctx, c.conn, connection.Default, op, fn)
		if err != nil {
			return nil, err
		}
		return c.Type(ctx, id)
	})
}

type named interface {
	comparable
	Name() string
}

func findByName[T named](items []T, name string) T {
	var zero T
	for _, it := range items {
		if it != zero && it.Name() == name {
			return it
		}
	}
	return zero
}

package proxy

import (
	"context"

	"github.com/goliatone/go-typeprovider-cache/cache"
	"github.com/goliatone/go-typeprovider-cache/connection"
	"github.com/goliatone/go-typeprovider-cache/lazy"
	"github.com/goliatone/go-typeprovider-cache/protocol"
)

// methodBase is what methods and constructors share.
type methodBase struct {
	c     *Context
	owner *Type
	rec   protocol.RdMethodBase
	kind  protocol.EntityKind

	declaringType *lazy.Cell[*Type]
	parameters    *lazy.Cell[[]*Parameter]
	genericArgs   *lazy.Cell[[]*Type]
	attributes    *lazy.Cell[Attributes]
}

func newMethodBase(c *Context, owner *Type, rec *protocol.RdMethodBase, kind protocol.EntityKind) methodBase {
	m := methodBase{c: c, owner: owner, rec: *rec, kind: kind}
	m.declaringType = declaringTypeCell(c, owner, rec.DeclaringType)
	m.parameters = lazy.New(func(ctx context.Context) ([]*Parameter, error) {
		return c.ParametersByID(ctx, m.rec.Parameters)
	})
	m.genericArgs = lazy.New(func(ctx context.Context) ([]*Type, error) {
		return c.TypesByID(ctx, m.rec.GenericArguments)
	})
	m.attributes = attributesCell(c, kind, rec.ID)
	return m
}

func (m *methodBase) Key() cache.EntityKey       { return m.c.key(m.rec.ID) }
func (m *methodBase) Kind() protocol.EntityKind  { return m.kind }
func (m *methodBase) ID() protocol.EntityID      { return m.rec.ID }
func (m *methodBase) Name() string               { return m.rec.Name }
func (m *methodBase) Flags() protocol.MethodFlags { return m.rec.Flags }
func (m *methodBase) MetadataToken() int32       { return m.rec.MetadataToken }

func (m *methodBase) IsAbstract() bool         { return m.rec.Flags.Has(protocol.MethodIsAbstract) }
func (m *methodBase) IsStatic() bool           { return m.rec.Flags.Has(protocol.MethodIsStatic) }
func (m *methodBase) IsVirtual() bool          { return m.rec.Flags.Has(protocol.MethodIsVirtual) }
func (m *methodBase) IsFinal() bool            { return m.rec.Flags.Has(protocol.MethodIsFinal) }
func (m *methodBase) IsPublic() bool           { return m.rec.Flags.Has(protocol.MethodIsPublic) }
func (m *methodBase) IsPrivate() bool          { return m.rec.Flags.Has(protocol.MethodIsPrivate) }
func (m *methodBase) IsFamily() bool           { return m.rec.Flags.Has(protocol.MethodIsFamily) }
func (m *methodBase) IsAssembly() bool         { return m.rec.Flags.Has(protocol.MethodIsAssembly) }
func (m *methodBase) IsFamilyOrAssembly() bool { return m.rec.Flags.Has(protocol.MethodIsFamilyOrAssembly) }
func (m *methodBase) IsFamilyAndAssembly() bool {
	return m.rec.Flags.Has(protocol.MethodIsFamilyAndAssembly)
}
func (m *methodBase) IsHideBySig() bool     { return m.rec.Flags.Has(protocol.MethodIsHideBySig) }
func (m *methodBase) IsConstructor() bool   { return m.rec.Flags.Has(protocol.MethodIsConstructor) }
func (m *methodBase) IsGenericMethod() bool { return m.rec.Flags.Has(protocol.MethodIsGenericMethod) }

// DeclaringType returns the type declaring the member.
func (m *methodBase) DeclaringType(ctx context.Context) (*Type, error) {
	return get(ctx, m.c, m.declaringType)
}

// GetParameters returns the parameters in declaration order.
func (m *methodBase) GetParameters(ctx context.Context) ([]*Parameter, error) {
	return get(ctx, m.c, m.parameters)
}

// GetGenericArguments returns the generic arguments of a generic method.
func (m *methodBase) GetGenericArguments(ctx context.Context) ([]*Type, error) {
	return get(ctx, m.c, m.genericArgs)
}

// CustomAttributes returns the custom attributes of the member.
func (m *methodBase) CustomAttributes(ctx context.Context) (Attributes, error) {
	return get(ctx, m.c, m.attributes)
}

// Method is the proxy of a provided method. Methods live in the content of
// their declaring type and share its lifetime.
type Method struct {
	methodBase

	returnType   *lazy.Cell[*Type]
	staticParams *lazy.Cell[[]*Parameter]
}

func newMethod(c *Context, owner *Type, rec *protocol.RdMethod) *Method {
	m := &Method{methodBase: newMethodBase(c, owner, &rec.RdMethodBase, protocol.KindMethod)}
	m.returnType = typeRefCell(c, rec.ReturnType)
	id := rec.ID
	m.staticParams = lazy.New(func(ctx context.Context) ([]*Parameter, error) {
		recs, err := connection.Execute(ctx, c.conn, connection.Maximal, protocol.MethodGetMethodStaticParameters,
			func(ctx context.Context, h protocol.Host) ([]*protocol.RdParameter, error) {
				return h.GetMethodStaticParameters(ctx, id)
			})
		if err != nil {
			return nil, err
		}
		return c.parametersFromRecords(ctx, recs)
	})
	return m
}

func (m *Method) String() string { return m.rec.Name }

// ReturnType returns the return type, nil for methods without one.
func (m *Method) ReturnType(ctx context.Context) (*Type, error) {
	return get(ctx, m.c, m.returnType)
}

// GetStaticParametersForMethod returns the static parameters the method
// accepts.
func (m *Method) GetStaticParametersForMethod(ctx context.Context) ([]*Parameter, error) {
	return get(ctx, m.c, m.staticParams)
}

// ApplyStaticArgumentsForMethod instantiates the method with static
// arguments. The result is a new method of the same declaring type; it is
// not cached.
func (m *Method) ApplyStaticArgumentsForMethod(ctx context.Context, name string, args []any) (*Method, error) {
	if err := m.c.conn.Check(); err != nil {
		return nil, err
	}
	staticArgs, err := protocol.BoxStaticArgs(args)
	if err != nil {
		return nil, err
	}
	req := protocol.ApplyMethodStaticArgumentsRequest{
		MethodID:   m.rec.ID,
		MethodName: name,
		StaticArgs: staticArgs,
	}
	rec, err := connection.Execute(ctx, m.c.conn, connection.Maximal, protocol.MethodApplyMethodStaticArguments,
		func(ctx context.Context, h protocol.Host) (*protocol.RdMethod, error) {
			return h.ApplyMethodStaticArguments(ctx, req)
		})
	if err != nil || rec == nil {
		return nil, err
	}
	return newMethod(m.c, m.owner, rec), nil
}

// Constructor is the proxy of a provided constructor.
type Constructor struct {
	methodBase
}

func newConstructor(c *Context, owner *Type, rec *protocol.RdConstructor) *Constructor {
	return &Constructor{methodBase: newMethodBase(c, owner, &rec.RdMethodBase, protocol.KindConstructor)}
}

func (m *Constructor) String() string { return m.rec.Name }

// declaringTypeCell resolves the declaring type of a member. The owner is
// used when the record names it, or names nothing.
func declaringTypeCell(c *Context, owner *Type, id protocol.EntityID) *lazy.Cell[*Type] {
	if owner != nil && (id.IsZero() || id == owner.ID()) {
		return lazy.Value(owner)
	}
	return typeRefCell(c, id)
}

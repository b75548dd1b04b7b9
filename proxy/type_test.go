package proxy

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-typeprovider-cache/cache"
	"github.com/goliatone/go-typeprovider-cache/connection"
	"github.com/goliatone/go-typeprovider-cache/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_RecordDataNeedsNoCalls(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	root, err := c.Type(ctx, rootID)
	require.NoError(t, err)
	host.ResetCalls()

	assert.Equal(t, rootID, root.ID())
	assert.Equal(t, "Root", root.Name())
	assert.Equal(t, "Sample.Root", root.FullName())
	assert.Equal(t, "Sample", root.Namespace())
	assert.Equal(t, "Sample.Root", root.String())
	assert.Equal(t, protocol.KindType, root.Kind())
	assert.True(t, root.IsClass())
	assert.True(t, root.IsPublic())
	assert.False(t, root.IsErased())
	assert.False(t, root.IsInterface())
	assert.False(t, root.IsValueType())
	assert.False(t, root.IsArray())
	assert.Equal(t, 0, host.TotalCalls())
}

func TestType_ContentLoadsOnce(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	root, err := c.Type(ctx, rootID)
	require.NoError(t, err)

	ctors, err := root.GetConstructors(ctx)
	require.NoError(t, err)
	require.Len(t, ctors, 1)
	assert.True(t, ctors[0].IsConstructor())

	methods, err := root.GetMethods(ctx)
	require.NoError(t, err)
	require.Len(t, methods, 1)

	props, err := root.GetProperties(ctx)
	require.NoError(t, err)
	require.Len(t, props, 1)

	fields, err := root.GetFields(ctx)
	require.NoError(t, err)
	require.Len(t, fields, 1)

	events, err := root.GetEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ifaces, err := root.GetInterfaces(ctx)
	require.NoError(t, err)
	require.Len(t, ifaces, 1)
	assert.True(t, ifaces[0].IsInterface())

	assert.Equal(t, 1, host.Calls(protocol.MethodGetContent))

	again, err := root.GetMethods(ctx)
	require.NoError(t, err)
	assert.Same(t, methods[0], again[0])
}

func TestType_Members(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	root, err := c.Type(ctx, rootID)
	require.NoError(t, err)
	intType, err := c.Type(ctx, intID)
	require.NoError(t, err)

	methods, err := root.GetMethods(ctx)
	require.NoError(t, err)
	run := methods[0]
	assert.True(t, run.IsStatic())
	assert.True(t, run.IsPublic())
	assert.Equal(t, "Run", run.String())

	decl, err := run.DeclaringType(ctx)
	require.NoError(t, err)
	assert.Same(t, root, decl)

	ret, err := run.ReturnType(ctx)
	require.NoError(t, err)
	assert.Same(t, intType, ret)

	params, err := run.GetParameters(ctx)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "input", params[0].Name())
	assert.True(t, params[0].IsIn())
	ptype, err := params[0].ParameterType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "System.String", ptype.FullName())

	same, err := c.Parameter(ctx, paramID)
	require.NoError(t, err)
	assert.Same(t, params[0], same)

	size, err := root.GetProperty(ctx, "Size")
	require.NoError(t, err)
	require.NotNil(t, size)
	assert.True(t, size.CanRead())
	assert.False(t, size.CanWrite())
	require.NotNil(t, size.GetGetMethod())
	assert.Nil(t, size.GetSetMethod())
	assert.Equal(t, "get_Size", size.GetGetMethod().Name())
	ptyp, err := size.PropertyType(ctx)
	require.NoError(t, err)
	assert.Same(t, intType, ptyp)
	idx, err := size.GetIndexParameters(ctx)
	require.NoError(t, err)
	assert.Empty(t, idx)

	missing, err := root.GetProperty(ctx, "Nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	maxField, err := root.GetField(ctx, "Max")
	require.NoError(t, err)
	require.NotNil(t, maxField)
	assert.True(t, maxField.IsLiteral())
	v, err := maxField.GetRawConstantValue()
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)

	changed, err := root.GetEvent(ctx, "Changed")
	require.NoError(t, err)
	require.NotNil(t, changed)
	assert.Equal(t, "add_Changed", changed.GetAddMethod().Name())
	assert.Equal(t, "remove_Changed", changed.GetRemoveMethod().Name())
	edecl, err := changed.DeclaringType(ctx)
	require.NoError(t, err)
	assert.Same(t, root, edecl)

	assert.Equal(t, cache.RemoteKey(methodID, 1), run.Key())
	assert.Equal(t, cache.RemoteKey(110, 1), size.Key())
	assert.Equal(t, cache.RemoteKey(120, 1), maxField.Key())
	assert.Equal(t, cache.RemoteKey(130, 1), changed.Key())
}

func TestType_RelatedTypes(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	root, err := c.Type(ctx, rootID)
	require.NoError(t, err)

	base, err := root.BaseType(ctx)
	require.NoError(t, err)
	assert.Equal(t, "System.Object", base.FullName())

	noBase, err := base.BaseType(ctx)
	require.NoError(t, err)
	assert.Nil(t, noBase)

	nested, err := root.GetNestedType(ctx, "Nested")
	require.NoError(t, err)
	require.NotNil(t, nested)
	decl, err := nested.DeclaringType(ctx)
	require.NoError(t, err)
	assert.Same(t, root, decl)

	all, err := root.GetAllNestedTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	public, err := root.GetNestedTypes(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Same(t, nested, public[0])
	assert.Equal(t, 1, host.Calls(protocol.MethodGetAllNestedTypes))

	none, err := root.GetNestedType(ctx, "Absent")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestType_StaticParameters(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	root, err := c.Type(ctx, rootID)
	require.NoError(t, err)

	params, err := root.GetStaticParameters(ctx)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "Count", params[0].Name())

	again, err := root.GetStaticParameters(ctx)
	require.NoError(t, err)
	assert.Same(t, params[0], again[0])
	assert.Equal(t, 1, host.Calls(protocol.MethodGetStaticParameters))
}

func TestType_StaticParametersAfterUnknownLookup(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	// 300 is only delivered inside the static parameter reply.
	unknown, err := c.Parameter(ctx, 300)
	require.NoError(t, err)
	assert.Nil(t, unknown)

	root, err := c.Type(ctx, rootID)
	require.NoError(t, err)
	params, err := root.GetStaticParameters(ctx)
	require.NoError(t, err)
	require.Len(t, params, 1)
	require.NotNil(t, params[0])
	assert.Equal(t, "Count", params[0].Name())

	byID, err := c.Parameter(ctx, 300)
	require.NoError(t, err)
	assert.Same(t, params[0], byID)
}

func TestType_ApplyStaticArguments_Generative(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	root, err := c.Type(ctx, rootID)
	require.NoError(t, err)

	first, err := root.ApplyStaticArguments(ctx, []string{"Sample", "Root3"}, []any{int32(3)})
	require.NoError(t, err)
	require.NotNil(t, first)
	second, err := root.ApplyStaticArguments(ctx, []string{"Sample", "Root3"}, []any{int32(3)})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, host.Calls(protocol.MethodApplyStaticArguments))
	assert.True(t, first.Key().IsSynthesized())
	assert.Equal(t, 1, c.AppliedTypes().Len())

	other, err := root.ApplyStaticArguments(ctx, []string{"Sample", "Root4"}, []any{int32(4)})
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, host.Calls(protocol.MethodApplyStaticArguments))
}

func TestType_ApplyStaticArguments_Erased(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	erased, err := c.Type(ctx, erasedID)
	require.NoError(t, err)

	first, err := erased.ApplyStaticArguments(ctx, []string{"Sample", "Erased1"}, []any{"x"})
	require.NoError(t, err)
	second, err := erased.ApplyStaticArguments(ctx, []string{"Sample", "Erased1"}, []any{"x"})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.False(t, first.Key().IsSynthesized())
	assert.Equal(t, 0, c.AppliedTypes().Len())

	byID, err := c.Type(ctx, first.ID())
	require.NoError(t, err)
	assert.Same(t, first, byID)
}

func TestType_ApplyStaticArguments_UnsupportedArgument(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	root, err := c.Type(ctx, rootID)
	require.NoError(t, err)
	host.ResetCalls()

	_, err = root.ApplyStaticArguments(ctx, nil, []any{struct{}{}})
	require.Error(t, err)
	assert.Equal(t, 0, host.TotalCalls())
}

func TestType_MakeArrayType(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	root, err := c.Type(ctx, rootID)
	require.NoError(t, err)

	first, err := root.MakeArrayType(ctx, 2)
	require.NoError(t, err)
	second, err := root.MakeArrayType(ctx, 2)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, host.Calls(protocol.MethodMakeArrayType))
	assert.True(t, first.IsArray())

	rank, err := first.GetArrayRank(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	elem, err := first.GetElementType(ctx)
	require.NoError(t, err)
	assert.Same(t, root, elem)

	vector, err := root.MakeArrayType(ctx, 1)
	require.NoError(t, err)
	assert.NotSame(t, first, vector)

	_, err = root.MakeArrayType(ctx, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestType_MakeGenericType(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	list, err := c.Type(ctx, genericID)
	require.NoError(t, err)
	str, err := c.Type(ctx, stringID)
	require.NoError(t, err)

	first, err := list.MakeGenericType(ctx, []*Type{str})
	require.NoError(t, err)
	second, err := list.MakeGenericType(ctx, []*Type{str})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, host.Calls(protocol.MethodMakeGenericType))

	args, err := first.GetGenericArguments(ctx)
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Same(t, str, args[0])

	def, err := first.GetGenericTypeDefinition(ctx)
	require.NoError(t, err)
	assert.Same(t, list, def)

	_, err = list.MakeGenericType(ctx, []*Type{nil})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestType_PointerAndByRef(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	integer, err := c.Type(ctx, intID)
	require.NoError(t, err)

	ptr, err := integer.MakePointerType(ctx)
	require.NoError(t, err)
	assert.True(t, ptr.IsPointer())
	again, err := integer.MakePointerType(ctx)
	require.NoError(t, err)
	assert.Same(t, ptr, again)
	assert.Equal(t, 1, host.Calls(protocol.MethodMakePointerType))

	ref, err := integer.MakeByRefType(ctx)
	require.NoError(t, err)
	assert.True(t, ref.IsByRef())
	elem, err := ref.GetElementType(ctx)
	require.NoError(t, err)
	assert.Same(t, integer, elem)
}

func TestType_CellRetriesAfterFailure(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)
	ctx := context.Background()

	root, err := c.Type(ctx, rootID)
	require.NoError(t, err)

	host.Fail(protocol.MethodGetAllNestedTypes, errors.New("flaky"), 2)
	_, err = root.GetAllNestedTypes(ctx)
	assert.ErrorIs(t, err, connection.ErrRemoteUnavailable)

	nested, err := root.GetAllNestedTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, nested, 2)
}

func TestType_AsVariable(t *testing.T) {
	host := sampleHost()
	c := newTestContext(t, host)

	root, err := c.Type(context.Background(), rootID)
	require.NoError(t, err)

	v := root.AsVariable("x")
	assert.Equal(t, "x", v.Name())
	assert.False(t, v.IsMutable())
	assert.Same(t, root, v.Type())
	assert.Equal(t, protocol.KindVariable, v.Kind())
	assert.True(t, v.Key().IsZero())
}

func TestMethod_StaticArguments(t *testing.T) {
	host := sampleHost()
	host.SetMethodStaticParameters(methodID, protocol.RdParameter{Name: "Pattern", ParameterType: stringID})
	c := newTestContext(t, host)
	ctx := context.Background()

	root, err := c.Type(ctx, rootID)
	require.NoError(t, err)
	methods, err := root.GetMethods(ctx)
	require.NoError(t, err)
	run := methods[0]

	params, err := run.GetStaticParametersForMethod(ctx)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "Pattern", params[0].Name())
	assert.True(t, params[0].Key().IsZero())

	applied, err := run.ApplyStaticArgumentsForMethod(ctx, "Run,Pattern=a", []any{"a"})
	require.NoError(t, err)
	require.NotNil(t, applied)
	assert.Equal(t, "Run,Pattern=a", applied.Name())
	decl, err := applied.DeclaringType(ctx)
	require.NoError(t, err)
	assert.Same(t, root, decl)
}

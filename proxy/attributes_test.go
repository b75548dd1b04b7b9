package proxy

import (
	"context"
	"testing"

	"github.com/goliatone/go-typeprovider-cache/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributes_Helpers(t *testing.T) {
	attrs := Attributes{
		{
			TypeFullName: DefinitionLocationAttribute,
			NamedArgs: []protocol.RdNamedArg{
				{Name: "FilePath", Value: protocol.RdStaticArg{TypeName: "string", Value: "/src/Provider.fs"}},
				{Name: "Line", Value: protocol.RdStaticArg{TypeName: "int32", Value: "12"}},
				{Name: "Column", Value: protocol.RdStaticArg{TypeName: "int32", Value: "5"}},
			},
		},
		{TypeFullName: XmlDocAttribute, ConstructorArgs: []protocol.RdStaticArg{{TypeName: "string", Value: "first"}}},
		{TypeFullName: XmlDocAttribute, ConstructorArgs: []protocol.RdStaticArg{{TypeName: "string", Value: "second"}}},
		{TypeFullName: "System.ObsoleteAttribute", ConstructorArgs: []protocol.RdStaticArg{{TypeName: "string", Value: "old"}}},
	}

	loc, ok := attrs.DefinitionLocation()
	require.True(t, ok)
	assert.Equal(t, Location{FilePath: "/src/Provider.fs", Line: 12, Column: 5}, loc)

	assert.Equal(t, []string{"first", "second"}, attrs.XmlDocs())
	assert.False(t, attrs.HasEditorHideMethods())

	_, found := attrs.Find("ObsoleteAttribute")
	assert.True(t, found)

	args, ok, err := attrs.ConstructorArgs("System.ObsoleteAttribute")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []any{"old"}, args.Positional)
	assert.Empty(t, args.Named)

	_, ok, err = attrs.ConstructorArgs("System.SerializableAttribute")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAttributes_EmptyList(t *testing.T) {
	var attrs Attributes
	_, ok := attrs.DefinitionLocation()
	assert.False(t, ok)
	assert.Nil(t, attrs.XmlDocs())
	assert.False(t, attrs.HasEditorHideMethods())
}

func TestAttributes_BadArgument(t *testing.T) {
	attrs := Attributes{{TypeFullName: "X", ConstructorArgs: []protocol.RdStaticArg{{TypeName: "decimal", Value: "1"}}}}
	_, ok, err := attrs.ConstructorArgs("X")
	assert.True(t, ok)
	require.Error(t, err)
}

func TestCustomAttributes_PerEntity(t *testing.T) {
	host := sampleHost()
	host.SetCustomAttributes(protocol.KindType, rootID, protocol.RdCustomAttribute{TypeFullName: EditorHideMethodsAttribute}).
		SetCustomAttributes(protocol.KindMethod, methodID, protocol.RdCustomAttribute{
			TypeFullName:    XmlDocAttribute,
			ConstructorArgs: []protocol.RdStaticArg{{TypeName: "string", Value: "Runs it."}},
		}).
		SetCustomAttributes(protocol.KindAssembly, assemblyID, protocol.RdCustomAttribute{TypeFullName: "System.Reflection.AssemblyTitleAttribute"})
	c := newTestContext(t, host)
	ctx := context.Background()

	root, err := c.Type(ctx, rootID)
	require.NoError(t, err)

	attrs, err := root.CustomAttributes(ctx)
	require.NoError(t, err)
	assert.True(t, attrs.HasEditorHideMethods())
	_, err = root.CustomAttributes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, host.Calls(protocol.MethodGetCustomAttributes))

	methods, err := root.GetMethods(ctx)
	require.NoError(t, err)
	mattrs, err := methods[0].CustomAttributes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Runs it."}, mattrs.XmlDocs())

	asm, err := root.Assembly(ctx)
	require.NoError(t, err)
	aattrs, err := asm.CustomAttributes(ctx)
	require.NoError(t, err)
	_, ok := aattrs.Find("AssemblyTitleAttribute")
	assert.True(t, ok)
}

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxStaticArg_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want any
		typ  string
	}{
		{"nil", nil, nil, "null"},
		{"bool", true, true, "bool"},
		{"char", Char('λ'), Char('λ'), "char"},
		{"string", "hello", "hello", "string"},
		{"int8", int8(-8), int8(-8), "int8"},
		{"int16", int16(1600), int16(1600), "int16"},
		{"int32", int32(-32), int32(-32), "int32"},
		{"int", 42, int64(42), "int64"},
		{"int64", int64(1) << 40, int64(1) << 40, "int64"},
		{"uint8", uint8(255), uint8(255), "uint8"},
		{"uint16", uint16(65535), uint16(65535), "uint16"},
		{"uint32", uint32(7), uint32(7), "uint32"},
		{"uint", uint(9), uint64(9), "uint64"},
		{"uint64", uint64(1) << 63, uint64(1) << 63, "uint64"},
		{"float32", float32(1.5), float32(1.5), "float32"},
		{"float64", 0.1, 0.1, "float64"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			boxed, err := BoxStaticArg(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.typ, boxed.TypeName)

			out, err := UnboxStaticArg(boxed)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestBoxStaticArg_Unsupported(t *testing.T) {
	_, err := BoxStaticArg([]int{1})
	require.Error(t, err)

	_, err = BoxStaticArgs([]any{1, struct{}{}})
	require.Error(t, err)
}

func TestUnboxStaticArg_Invalid(t *testing.T) {
	_, err := UnboxStaticArg(RdStaticArg{TypeName: "decimal", Value: "1"})
	require.Error(t, err)

	_, err = UnboxStaticArg(RdStaticArg{TypeName: "char", Value: "ab"})
	require.Error(t, err)

	_, err = UnboxStaticArg(RdStaticArg{TypeName: "int8", Value: "300"})
	require.Error(t, err)
}

func TestBoxStaticArgs_PreservesOrder(t *testing.T) {
	boxed, err := BoxStaticArgs([]any{"a", int32(1), false})
	require.NoError(t, err)
	require.Len(t, boxed, 3)
	assert.Equal(t, "string:a", boxed[0].String())
	assert.Equal(t, "int32:1", boxed[1].String())
	assert.Equal(t, "bool:false", boxed[2].String())
}

func TestFlags(t *testing.T) {
	f := TypeIsClass | TypeIsPublic
	assert.True(t, f.Has(TypeIsClass))
	assert.True(t, f.Has(TypeIsClass|TypeIsPublic))
	assert.False(t, f.Has(TypeIsClass|TypeIsErased))

	assert.Equal(t, "type", KindType.String())
	assert.Equal(t, "kind(99)", EntityKind(99).String())
	assert.True(t, NoEntity.IsZero())
	assert.Equal(t, "12", EntityID(12).String())
}

package cache

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/goliatone/go-typeprovider-cache/protocol"
)

// KeySeparator defines the delimiter used between composite key segments.
const KeySeparator = "::"

// KeySerializer builds the composite part of a synthesized EntityKey from
// an operation name and the request arguments. Equal requests must produce
// equal keys and different requests different keys.
type KeySerializer interface {
	SerializeKey(op string, args ...any) string
}

// defaultKeySerializer implements KeySerializer using reflection.
// Strings are quoted and collections carry their length, so no two
// distinct argument lists render the same way.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a key from the operation name and args.
func (s *defaultKeySerializer) SerializeKey(op string, args ...any) string {
	if len(args) == 0 {
		return op
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, op)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}

	return strings.Join(parts, KeySeparator)
}

// serializeValue handles individual argument serialization based on type.
func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case protocol.RdStaticArg:
		return x.TypeName + "(" + strconv.Quote(x.Value) + ")"
	case protocol.EntityID:
		return "#" + x.String()
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	switch rt.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice[0]:{}"
		}
		return s.serializeList("slice", rv)
	case reflect.Array:
		return s.serializeList("array", rv)
	case reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	}

	if s.isBasicType(rt.Kind()) {
		return fmt.Sprintf("%v", v)
	}

	// No stable rendering for maps, funcs, channels or structs; include the
	// type so at least different types never collide.
	return fmt.Sprintf("%s(%s)", rt.String(), strconv.Quote(fmt.Sprintf("%+v", v)))
}

// serializeList handles slices and arrays recursively. A nil slice and an
// empty slice render the same since both mean "no arguments".
func (s *defaultKeySerializer) serializeList(kind string, rv reflect.Value) string {
	length := rv.Len()
	parts := make([]string, length)

	for i := 0; i < length; i++ {
		parts[i] = s.serializeValue(rv.Index(i).Interface())
	}

	return fmt.Sprintf("%s[%d]:{%s}", kind, length, strings.Join(parts, ","))
}

// isBasicType checks if a kind represents a basic Go type
func (s *defaultKeySerializer) isBasicType(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

package protocol

import (
	"fmt"
	"strconv"

	"go.trai.ch/zerr"
)

// ErrUnsupportedStaticArg is returned when a value has no primitive
// representation on the remote side.
var ErrUnsupportedStaticArg = zerr.New("unsupported static argument")

// Char is a single character static argument. It exists so a character
// can be told apart from an int32 when boxing.
type Char rune

// RdStaticArg is a boxed primitive: the remote type name plus the value in
// a locale independent string form.
type RdStaticArg struct {
	TypeName string `msgpack:"type"`
	Value    string `msgpack:"value"`
}

func (a RdStaticArg) String() string {
	return a.TypeName + ":" + a.Value
}

const (
	argNull    = "null"
	argBool    = "bool"
	argChar    = "char"
	argString  = "string"
	argInt8    = "int8"
	argInt16   = "int16"
	argInt32   = "int32"
	argInt64   = "int64"
	argUint8   = "uint8"
	argUint16  = "uint16"
	argUint32  = "uint32"
	argUint64  = "uint64"
	argFloat32 = "float32"
	argFloat64 = "float64"
)

// BoxStaticArg converts a Go primitive into its remote description.
func BoxStaticArg(v any) (RdStaticArg, error) {
	switch x := v.(type) {
	case nil:
		return RdStaticArg{TypeName: argNull}, nil
	case bool:
		return RdStaticArg{TypeName: argBool, Value: strconv.FormatBool(x)}, nil
	case Char:
		return RdStaticArg{TypeName: argChar, Value: string(rune(x))}, nil
	case string:
		return RdStaticArg{TypeName: argString, Value: x}, nil
	case int8:
		return RdStaticArg{TypeName: argInt8, Value: strconv.FormatInt(int64(x), 10)}, nil
	case int16:
		return RdStaticArg{TypeName: argInt16, Value: strconv.FormatInt(int64(x), 10)}, nil
	case int32:
		return RdStaticArg{TypeName: argInt32, Value: strconv.FormatInt(int64(x), 10)}, nil
	case int:
		return RdStaticArg{TypeName: argInt64, Value: strconv.FormatInt(int64(x), 10)}, nil
	case int64:
		return RdStaticArg{TypeName: argInt64, Value: strconv.FormatInt(x, 10)}, nil
	case uint8:
		return RdStaticArg{TypeName: argUint8, Value: strconv.FormatUint(uint64(x), 10)}, nil
	case uint16:
		return RdStaticArg{TypeName: argUint16, Value: strconv.FormatUint(uint64(x), 10)}, nil
	case uint32:
		return RdStaticArg{TypeName: argUint32, Value: strconv.FormatUint(uint64(x), 10)}, nil
	case uint:
		return RdStaticArg{TypeName: argUint64, Value: strconv.FormatUint(uint64(x), 10)}, nil
	case uint64:
		return RdStaticArg{TypeName: argUint64, Value: strconv.FormatUint(x, 10)}, nil
	case float32:
		return RdStaticArg{TypeName: argFloat32, Value: strconv.FormatFloat(float64(x), 'g', -1, 32)}, nil
	case float64:
		return RdStaticArg{TypeName: argFloat64, Value: strconv.FormatFloat(x, 'g', -1, 64)}, nil
	default:
		return RdStaticArg{}, zerr.With(ErrUnsupportedStaticArg, "type", fmt.Sprintf("%T", v))
	}
}

// BoxStaticArgs boxes every value, failing on the first unsupported one.
func BoxStaticArgs(values []any) ([]RdStaticArg, error) {
	out := make([]RdStaticArg, len(values))
	for i, v := range values {
		boxed, err := BoxStaticArg(v)
		if err != nil {
			return nil, err
		}
		out[i] = boxed
	}
	return out, nil
}

// UnboxStaticArg is the inverse of BoxStaticArg. int and uint come back as
// int64 and uint64.
func UnboxStaticArg(a RdStaticArg) (any, error) {
	switch a.TypeName {
	case argNull:
		return nil, nil
	case argBool:
		return strconv.ParseBool(a.Value)
	case argChar:
		r := []rune(a.Value)
		if len(r) != 1 {
			return nil, zerr.With(ErrUnsupportedStaticArg, "char", a.Value)
		}
		return Char(r[0]), nil
	case argString:
		return a.Value, nil
	case argInt8:
		v, err := strconv.ParseInt(a.Value, 10, 8)
		return int8(v), err
	case argInt16:
		v, err := strconv.ParseInt(a.Value, 10, 16)
		return int16(v), err
	case argInt32:
		v, err := strconv.ParseInt(a.Value, 10, 32)
		return int32(v), err
	case argInt64:
		return strconv.ParseInt(a.Value, 10, 64)
	case argUint8:
		v, err := strconv.ParseUint(a.Value, 10, 8)
		return uint8(v), err
	case argUint16:
		v, err := strconv.ParseUint(a.Value, 10, 16)
		return uint16(v), err
	case argUint32:
		v, err := strconv.ParseUint(a.Value, 10, 32)
		return uint32(v), err
	case argUint64:
		return strconv.ParseUint(a.Value, 10, 64)
	case argFloat32:
		v, err := strconv.ParseFloat(a.Value, 32)
		return float32(v), err
	case argFloat64:
		return strconv.ParseFloat(a.Value, 64)
	default:
		return nil, zerr.With(ErrUnsupportedStaticArg, "type", a.TypeName)
	}
}

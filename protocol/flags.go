package protocol

// TypeFlags is the bitmask a type proxy derives all of its boolean
// properties from.
type TypeFlags uint32

const (
	TypeIsGenericParameter TypeFlags = 1 << iota
	TypeIsValueType
	TypeIsByRef
	TypeIsPointer
	TypeIsPublic
	TypeIsNestedPublic
	TypeIsArray
	TypeIsEnum
	TypeIsClass
	TypeIsSealed
	TypeIsAbstract
	TypeIsInterface
	TypeIsSuppressRelocate
	TypeIsErased
	TypeIsGenericType
	TypeIsVoid
	TypeIsMeasure
)

// Has reports whether every bit of flag is set.
func (f TypeFlags) Has(flag TypeFlags) bool {
	return f&flag == flag
}

// MethodFlags describes methods and constructors.
type MethodFlags uint32

const (
	MethodIsAbstract MethodFlags = 1 << iota
	MethodIsStatic
	MethodIsVirtual
	MethodIsFinal
	MethodIsPublic
	MethodIsPrivate
	MethodIsFamily
	MethodIsAssembly
	MethodIsFamilyOrAssembly
	MethodIsFamilyAndAssembly
	MethodIsHideBySig
	MethodIsConstructor
	MethodIsGenericMethod
)

func (f MethodFlags) Has(flag MethodFlags) bool {
	return f&flag == flag
}

// PropertyFlags describes properties.
type PropertyFlags uint8

const (
	PropertyCanRead PropertyFlags = 1 << iota
	PropertyCanWrite
)

func (f PropertyFlags) Has(flag PropertyFlags) bool {
	return f&flag == flag
}

// FieldFlags describes fields.
type FieldFlags uint16

const (
	FieldIsInitOnly FieldFlags = 1 << iota
	FieldIsStatic
	FieldIsSpecialName
	FieldIsLiteral
	FieldIsPublic
	FieldIsPrivate
	FieldIsFamily
	FieldIsFamilyOrAssembly
	FieldIsFamilyAndAssembly
)

func (f FieldFlags) Has(flag FieldFlags) bool {
	return f&flag == flag
}

// ParameterFlags describes parameters.
type ParameterFlags uint8

const (
	ParameterIsIn ParameterFlags = 1 << iota
	ParameterIsOut
	ParameterIsOptional
	ParameterHasDefaultValue
)

func (f ParameterFlags) Has(flag ParameterFlags) bool {
	return f&flag == flag
}

package protocol

import "strconv"

// EntityID is the identifier the remote host assigns to an entity.
// Zero means "no entity" and is used for optional slots such as a base type.
type EntityID int64

// NoEntity marks an absent entity reference.
const NoEntity EntityID = 0

// IsZero reports whether the id refers to no entity.
func (id EntityID) IsZero() bool {
	return id == NoEntity
}

func (id EntityID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ProviderID identifies the type provider instance that owns an entity.
type ProviderID int64

func (id ProviderID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// EntityKind names the category of a remote entity. Custom attribute
// requests carry it so the host knows which table to look the id up in.
type EntityKind uint8

const (
	KindType EntityKind = iota + 1
	KindAssembly
	KindMethod
	KindConstructor
	KindProperty
	KindField
	KindEvent
	KindParameter
	KindVariable
)

var kindNames = map[EntityKind]string{
	KindType:        "type",
	KindAssembly:    "assembly",
	KindMethod:      "method",
	KindConstructor: "constructor",
	KindProperty:    "property",
	KindField:       "field",
	KindEvent:       "event",
	KindParameter:   "parameter",
	KindVariable:    "variable",
}

func (k EntityKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// RdType is the remote description of a type. Everything the local proxy
// can answer without another round-trip travels here.
type RdType struct {
	ID               EntityID   `msgpack:"id"`
	Name             string     `msgpack:"name"`
	FullName         string     `msgpack:"full_name"`
	Namespace        string     `msgpack:"namespace"`
	Flags            TypeFlags  `msgpack:"flags"`
	BaseType         EntityID   `msgpack:"base_type,omitempty"`
	DeclaringType    EntityID   `msgpack:"declaring_type,omitempty"`
	Assembly         EntityID   `msgpack:"assembly,omitempty"`
	GenericArguments []EntityID `msgpack:"generic_arguments,omitempty"`
}

// RdTypeContent bundles the structural members of a type so they can be
// fetched in one call.
type RdTypeContent struct {
	Interfaces   []EntityID      `msgpack:"interfaces,omitempty"`
	Constructors []RdConstructor `msgpack:"constructors,omitempty"`
	Methods      []RdMethod      `msgpack:"methods,omitempty"`
	Properties   []RdProperty    `msgpack:"properties,omitempty"`
	Fields       []RdField       `msgpack:"fields,omitempty"`
	Events       []RdEvent       `msgpack:"events,omitempty"`
}

// RdAssembly describes a provided assembly.
type RdAssembly struct {
	ID       EntityID `msgpack:"id"`
	Name     string   `msgpack:"name"`
	FullName string   `msgpack:"full_name"`
	Version  string   `msgpack:"version,omitempty"`
}

// RdMethodBase holds what methods and constructors share.
type RdMethodBase struct {
	ID               EntityID    `msgpack:"id"`
	Name             string      `msgpack:"name"`
	Flags            MethodFlags `msgpack:"flags"`
	MetadataToken    int32       `msgpack:"metadata_token,omitempty"`
	DeclaringType    EntityID    `msgpack:"declaring_type,omitempty"`
	Parameters       []EntityID  `msgpack:"parameters,omitempty"`
	GenericArguments []EntityID  `msgpack:"generic_arguments,omitempty"`
}

// RdMethod describes a provided method.
type RdMethod struct {
	RdMethodBase `msgpack:",inline"`
	ReturnType   EntityID `msgpack:"return_type,omitempty"`
}

// RdConstructor describes a provided constructor.
type RdConstructor struct {
	RdMethodBase `msgpack:",inline"`
}

// RdProperty describes a provided property. Accessors travel inline since
// they are never requested on their own.
type RdProperty struct {
	ID              EntityID      `msgpack:"id"`
	Name            string        `msgpack:"name"`
	Flags           PropertyFlags `msgpack:"flags"`
	DeclaringType   EntityID      `msgpack:"declaring_type,omitempty"`
	PropertyType    EntityID      `msgpack:"property_type,omitempty"`
	GetMethod       *RdMethod     `msgpack:"get_method,omitempty"`
	SetMethod       *RdMethod     `msgpack:"set_method,omitempty"`
	IndexParameters []EntityID    `msgpack:"index_parameters,omitempty"`
}

// RdField describes a provided field.
type RdField struct {
	ID               EntityID     `msgpack:"id"`
	Name             string       `msgpack:"name"`
	Flags            FieldFlags   `msgpack:"flags"`
	DeclaringType    EntityID     `msgpack:"declaring_type,omitempty"`
	FieldType        EntityID     `msgpack:"field_type,omitempty"`
	RawConstantValue *RdStaticArg `msgpack:"raw_constant_value,omitempty"`
}

// RdEvent describes a provided event.
type RdEvent struct {
	ID               EntityID  `msgpack:"id"`
	Name             string    `msgpack:"name"`
	DeclaringType    EntityID  `msgpack:"declaring_type,omitempty"`
	EventHandlerType EntityID  `msgpack:"event_handler_type,omitempty"`
	AddMethod        *RdMethod `msgpack:"add_method,omitempty"`
	RemoveMethod     *RdMethod `msgpack:"remove_method,omitempty"`
}

// RdParameter describes a method or static parameter.
type RdParameter struct {
	ID              EntityID       `msgpack:"id"`
	Name            string         `msgpack:"name"`
	Flags           ParameterFlags `msgpack:"flags"`
	ParameterType   EntityID       `msgpack:"parameter_type,omitempty"`
	RawDefaultValue *RdStaticArg   `msgpack:"raw_default_value,omitempty"`
}

// RdCustomAttribute carries one custom attribute of an entity.
type RdCustomAttribute struct {
	TypeFullName    string        `msgpack:"type_full_name"`
	ConstructorArgs []RdStaticArg `msgpack:"constructor_args,omitempty"`
	NamedArgs       []RdNamedArg  `msgpack:"named_args,omitempty"`
}

// RdNamedArg is a named custom attribute argument.
type RdNamedArg struct {
	Name  string      `msgpack:"name"`
	Value RdStaticArg `msgpack:"value"`
}

// ApplyStaticArgumentsRequest asks the host to apply static arguments to
// a type. Used for both erased and generative types.
type ApplyStaticArgumentsRequest struct {
	TypeID                     EntityID      `msgpack:"type_id"`
	FullTypePathAfterArguments []string      `msgpack:"path"`
	StaticArgs                 []RdStaticArg `msgpack:"static_args"`
}

// ApplyMethodStaticArgumentsRequest asks the host to apply static
// arguments to a method.
type ApplyMethodStaticArgumentsRequest struct {
	MethodID   EntityID      `msgpack:"method_id"`
	MethodName string        `msgpack:"method_name"`
	StaticArgs []RdStaticArg `msgpack:"static_args"`
}

// MakeArrayTypeRequest asks the host for the array of a type.
type MakeArrayTypeRequest struct {
	TypeID EntityID `msgpack:"type_id"`
	Rank   int      `msgpack:"rank"`
}

// MakeGenericTypeRequest asks the host to instantiate a generic type
// definition.
type MakeGenericTypeRequest struct {
	TypeID    EntityID   `msgpack:"type_id"`
	Arguments []EntityID `msgpack:"arguments"`
}

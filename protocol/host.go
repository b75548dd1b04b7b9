// Package protocol describes the remote side of the type provider host:
// the records it sends back and the calls it answers.
//
// The local proxy layer never interprets transport details. It only needs a
// Host: something that pairs a request with a reply, honours the context
// deadline and reports failure through the returned error. RemoteHost adapts
// any Invoker (for example the msgpack channel in internal/wire) to Host, and
// Serve binds a Host implementation to a wire server.
package protocol

import "context"

// Host is the set of calls the remote type provider process answers.
//
// Calls returning an EntityID return NoEntity when the slot is legitimately
// empty. Batch calls return records in request order.
type Host interface {
	GetAssembly(ctx context.Context, id EntityID) (*RdAssembly, error)
	GetManifestModuleContents(ctx context.Context, assemblyID EntityID) ([]byte, error)

	GetTypes(ctx context.Context, ids []EntityID) ([]*RdType, error)
	GetContent(ctx context.Context, typeID EntityID) (*RdTypeContent, error)
	GetAllNestedTypes(ctx context.Context, typeID EntityID) ([]EntityID, error)
	GetStaticParameters(ctx context.Context, typeID EntityID) ([]*RdParameter, error)
	GetGenericParameterPosition(ctx context.Context, typeID EntityID) (int, error)
	GetGenericTypeDefinition(ctx context.Context, typeID EntityID) (EntityID, error)
	GetArrayRank(ctx context.Context, typeID EntityID) (int, error)
	GetElementType(ctx context.Context, typeID EntityID) (EntityID, error)
	GetEnumUnderlyingType(ctx context.Context, typeID EntityID) (EntityID, error)
	MakePointerType(ctx context.Context, typeID EntityID) (EntityID, error)
	MakeByRefType(ctx context.Context, typeID EntityID) (EntityID, error)
	MakeArrayType(ctx context.Context, req MakeArrayTypeRequest) (*RdType, error)
	MakeGenericType(ctx context.Context, req MakeGenericTypeRequest) (*RdType, error)
	ApplyStaticArguments(ctx context.Context, req ApplyStaticArgumentsRequest) (*RdType, error)

	GetParameters(ctx context.Context, ids []EntityID) ([]*RdParameter, error)
	GetMethodStaticParameters(ctx context.Context, methodID EntityID) ([]*RdParameter, error)
	ApplyMethodStaticArguments(ctx context.Context, req ApplyMethodStaticArgumentsRequest) (*RdMethod, error)

	GetCustomAttributes(ctx context.Context, kind EntityKind, id EntityID) ([]RdCustomAttribute, error)
}

// Method names used on the wire.
const (
	MethodGetAssembly                 = "assembly.get"
	MethodGetManifestModuleContents   = "assembly.manifest_module_contents"
	MethodGetTypes                    = "type.get_batch"
	MethodGetContent                  = "type.content"
	MethodGetAllNestedTypes           = "type.all_nested_types"
	MethodGetStaticParameters         = "type.static_parameters"
	MethodGetGenericParameterPosition = "type.generic_parameter_position"
	MethodGetGenericTypeDefinition    = "type.generic_type_definition"
	MethodGetArrayRank                = "type.array_rank"
	MethodGetElementType              = "type.element_type"
	MethodGetEnumUnderlyingType       = "type.enum_underlying_type"
	MethodMakePointerType             = "type.make_pointer"
	MethodMakeByRefType               = "type.make_byref"
	MethodMakeArrayType               = "type.make_array"
	MethodMakeGenericType             = "type.make_generic"
	MethodApplyStaticArguments        = "type.apply_static_arguments"
	MethodGetParameters               = "parameter.get_batch"
	MethodGetMethodStaticParameters   = "method.static_parameters"
	MethodApplyMethodStaticArguments  = "method.apply_static_arguments"
	MethodGetCustomAttributes         = "entity.custom_attributes"
)

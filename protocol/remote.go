package protocol

import (
	"context"
)

// Invoker sends one request and decodes its reply into reply.
//
//go:generate mockgen -source=remote.go -destination=mocks/mock_invoker.go -package=mocks
type Invoker interface {
	Invoke(ctx context.Context, method string, args, reply any) error
}

type idRequest struct {
	ID EntityID `msgpack:"id"`
}

type idsRequest struct {
	IDs []EntityID `msgpack:"ids"`
}

type attributesRequest struct {
	Kind EntityKind `msgpack:"kind"`
	ID   EntityID   `msgpack:"id"`
}

// RemoteHost implements Host on top of an Invoker.
type RemoteHost struct {
	invoker Invoker
}

var _ Host = (*RemoteHost)(nil)

// NewRemoteHost wraps the invoker.
func NewRemoteHost(invoker Invoker) *RemoteHost {
	return &RemoteHost{invoker: invoker}
}

func invoke[T any](ctx context.Context, inv Invoker, method string, args any) (T, error) {
	var reply T
	if err := inv.Invoke(ctx, method, args, &reply); err != nil {
		var zero T
		return zero, err
	}
	return reply, nil
}

func (h *RemoteHost) GetAssembly(ctx context.Context, id EntityID) (*RdAssembly, error) {
	return invoke[*RdAssembly](ctx, h.invoker, MethodGetAssembly, idRequest{ID: id})
}

func (h *RemoteHost) GetManifestModuleContents(ctx context.Context, assemblyID EntityID) ([]byte, error) {
	return invoke[[]byte](ctx, h.invoker, MethodGetManifestModuleContents, idRequest{ID: assemblyID})
}

func (h *RemoteHost) GetTypes(ctx context.Context, ids []EntityID) ([]*RdType, error) {
	return invoke[[]*RdType](ctx, h.invoker, MethodGetTypes, idsRequest{IDs: ids})
}

func (h *RemoteHost) GetContent(ctx context.Context, typeID EntityID) (*RdTypeContent, error) {
	return invoke[*RdTypeContent](ctx, h.invoker, MethodGetContent, idRequest{ID: typeID})
}

func (h *RemoteHost) GetAllNestedTypes(ctx context.Context, typeID EntityID) ([]EntityID, error) {
	return invoke[[]EntityID](ctx, h.invoker, MethodGetAllNestedTypes, idRequest{ID: typeID})
}

func (h *RemoteHost) GetStaticParameters(ctx context.Context, typeID EntityID) ([]*RdParameter, error) {
	return invoke[[]*RdParameter](ctx, h.invoker, MethodGetStaticParameters, idRequest{ID: typeID})
}

func (h *RemoteHost) GetGenericParameterPosition(ctx context.Context, typeID EntityID) (int, error) {
	return invoke[int](ctx, h.invoker, MethodGetGenericParameterPosition, idRequest{ID: typeID})
}

func (h *RemoteHost) GetGenericTypeDefinition(ctx context.Context, typeID EntityID) (EntityID, error) {
	return invoke[EntityID](ctx, h.invoker, MethodGetGenericTypeDefinition, idRequest{ID: typeID})
}

func (h *RemoteHost) GetArrayRank(ctx context.Context, typeID EntityID) (int, error) {
	return invoke[int](ctx, h.invoker, MethodGetArrayRank, idRequest{ID: typeID})
}

func (h *RemoteHost) GetElementType(ctx context.Context, typeID EntityID) (EntityID, error) {
	return invoke[EntityID](ctx, h.invoker, MethodGetElementType, idRequest{ID: typeID})
}

func (h *RemoteHost) GetEnumUnderlyingType(ctx context.Context, typeID EntityID) (EntityID, error) {
	return invoke[EntityID](ctx, h.invoker, MethodGetEnumUnderlyingType, idRequest{ID: typeID})
}

func (h *RemoteHost) MakePointerType(ctx context.Context, typeID EntityID) (EntityID, error) {
	return invoke[EntityID](ctx, h.invoker, MethodMakePointerType, idRequest{ID: typeID})
}

func (h *RemoteHost) MakeByRefType(ctx context.Context, typeID EntityID) (EntityID, error) {
	return invoke[EntityID](ctx, h.invoker, MethodMakeByRefType, idRequest{ID: typeID})
}

func (h *RemoteHost) MakeArrayType(ctx context.Context, req MakeArrayTypeRequest) (*RdType, error) {
	return invoke[*RdType](ctx, h.invoker, MethodMakeArrayType, req)
}

func (h *RemoteHost) MakeGenericType(ctx context.Context, req MakeGenericTypeRequest) (*RdType, error) {
	return invoke[*RdType](ctx, h.invoker, MethodMakeGenericType, req)
}

func (h *RemoteHost) ApplyStaticArguments(ctx context.Context, req ApplyStaticArgumentsRequest) (*RdType, error) {
	return invoke[*RdType](ctx, h.invoker, MethodApplyStaticArguments, req)
}

func (h *RemoteHost) GetParameters(ctx context.Context, ids []EntityID) ([]*RdParameter, error) {
	return invoke[[]*RdParameter](ctx, h.invoker, MethodGetParameters, idsRequest{IDs: ids})
}

func (h *RemoteHost) GetMethodStaticParameters(ctx context.Context, methodID EntityID) ([]*RdParameter, error) {
	return invoke[[]*RdParameter](ctx, h.invoker, MethodGetMethodStaticParameters, idRequest{ID: methodID})
}

func (h *RemoteHost) ApplyMethodStaticArguments(ctx context.Context, req ApplyMethodStaticArgumentsRequest) (*RdMethod, error) {
	return invoke[*RdMethod](ctx, h.invoker, MethodApplyMethodStaticArguments, req)
}

func (h *RemoteHost) GetCustomAttributes(ctx context.Context, kind EntityKind, id EntityID) ([]RdCustomAttribute, error) {
	return invoke[[]RdCustomAttribute](ctx, h.invoker, MethodGetCustomAttributes, attributesRequest{Kind: kind, ID: id})
}

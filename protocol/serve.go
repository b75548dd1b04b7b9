package protocol

import (
	"context"

	"github.com/goliatone/go-typeprovider-cache/internal/wire"
)

// Serve registers every Host call on srv so a remote peer using
// RemoteHost can reach h.
func Serve(srv *wire.Server, h Host) {
	srv.Handle(MethodGetAssembly, byID(h.GetAssembly))
	srv.Handle(MethodGetManifestModuleContents, byID(h.GetManifestModuleContents))
	srv.Handle(MethodGetTypes, byIDs(h.GetTypes))
	srv.Handle(MethodGetContent, byID(h.GetContent))
	srv.Handle(MethodGetAllNestedTypes, byID(h.GetAllNestedTypes))
	srv.Handle(MethodGetStaticParameters, byID(h.GetStaticParameters))
	srv.Handle(MethodGetGenericParameterPosition, byID(h.GetGenericParameterPosition))
	srv.Handle(MethodGetGenericTypeDefinition, byID(h.GetGenericTypeDefinition))
	srv.Handle(MethodGetArrayRank, byID(h.GetArrayRank))
	srv.Handle(MethodGetElementType, byID(h.GetElementType))
	srv.Handle(MethodGetEnumUnderlyingType, byID(h.GetEnumUnderlyingType))
	srv.Handle(MethodMakePointerType, byID(h.MakePointerType))
	srv.Handle(MethodMakeByRefType, byID(h.MakeByRefType))
	srv.Handle(MethodMakeArrayType, byRequest(h.MakeArrayType))
	srv.Handle(MethodMakeGenericType, byRequest(h.MakeGenericType))
	srv.Handle(MethodApplyStaticArguments, byRequest(h.ApplyStaticArguments))
	srv.Handle(MethodGetParameters, byIDs(h.GetParameters))
	srv.Handle(MethodGetMethodStaticParameters, byID(h.GetMethodStaticParameters))
	srv.Handle(MethodApplyMethodStaticArguments, byRequest(h.ApplyMethodStaticArguments))
	srv.Handle(MethodGetCustomAttributes, func(ctx context.Context, decode func(any) error) (any, error) {
		var req attributesRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return h.GetCustomAttributes(ctx, req.Kind, req.ID)
	})
}

func byID[T any](fn func(context.Context, EntityID) (T, error)) wire.HandlerFunc {
	return func(ctx context.Context, decode func(any) error) (any, error) {
		var req idRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return fn(ctx, req.ID)
	}
}

func byIDs[T any](fn func(context.Context, []EntityID) (T, error)) wire.HandlerFunc {
	return func(ctx context.Context, decode func(any) error) (any, error) {
		var req idsRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return fn(ctx, req.IDs)
	}
}

func byRequest[R, T any](fn func(context.Context, R) (T, error)) wire.HandlerFunc {
	return func(ctx context.Context, decode func(any) error) (any, error) {
		var req R
		if err := decode(&req); err != nil {
			return nil, err
		}
		return fn(ctx, req)
	}
}

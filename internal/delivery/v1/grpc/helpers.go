package grpc

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errorInterceptor переводит доменные ошибки обработчиков в gRPC-статусы.
// Ошибки, уже несущие статус, передаются как есть.
func errorInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err == nil {
		return resp, nil
	}
	if _, ok := status.FromError(err); ok {
		return resp, err
	}

	return resp, GRPCErrorResponse(err)
}

// GRPCErrorResponse отображает класс ошибки в gRPC-статус.
func GRPCErrorResponse(err error) error {
	switch {
	case errors.Is(err, e.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, e.Message(err))
	case errors.Is(err, e.ErrValidation):
		return status.Error(codes.InvalidArgument, e.Message(err))
	case errors.Is(err, e.ErrUnauthorized):
		return status.Error(codes.PermissionDenied, e.Message(err))
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, e.Message(err))
	default:
		return status.Error(codes.Internal, e.ErrInternal.Error())
	}
}

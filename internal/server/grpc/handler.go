package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Introspect(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	claims, ok := s.auth.Introspect(req.GetValue())
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	out, err := structpb.NewStruct(claims)
	if err != nil {
		s.logger.Error(ctx, "claims conversion failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	out, err := structpb.NewStruct(map[string]any{
		"id":                   user.Subject(),
		"email":                user.Email,
		"role":                 string(user.Role),
		"is_active":            user.IsActive,
		"must_change_password": user.MustChangePassword,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

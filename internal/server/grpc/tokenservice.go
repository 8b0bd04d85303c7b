package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// TokenService lets internal services check access tokens without sharing
// the signing secret. Messages are well-known protobuf types, so no
// generated code is needed.
const (
	TokenServiceName = "padel.auth.v1.TokenService"

	TokenService_Introspect_FullMethodName = "/" + TokenServiceName + "/Introspect"
	TokenService_WhoAmI_FullMethodName     = "/" + TokenServiceName + "/WhoAmI"
)

type TokenServiceServer interface {
	// Introspect returns the claims of a valid token.
	Introspect(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// WhoAmI returns the account behind the access_token metadata.
	WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterTokenServiceServer(s grpc.ServiceRegistrar, srv TokenServiceServer) {
	s.RegisterService(&TokenService_ServiceDesc, srv)
}

func _TokenService_Introspect_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).Introspect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TokenService_Introspect_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).Introspect(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _TokenService_WhoAmI_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TokenService_WhoAmI_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).WhoAmI(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var TokenService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: TokenServiceName,
	HandlerType: (*TokenServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Introspect", Handler: _TokenService_Introspect_Handler},
		{MethodName: "WhoAmI", Handler: _TokenService_WhoAmI_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "padel/auth/v1/token.proto",
}

// TokenServiceClient is the client side of TokenService.
type TokenServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTokenServiceClient(cc grpc.ClientConnInterface) *TokenServiceClient {
	return &TokenServiceClient{cc: cc}
}

func (c *TokenServiceClient) Introspect(ctx context.Context, token string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, TokenService_Introspect_FullMethodName, wrapperspb.String(token), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TokenServiceClient) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, TokenService_WhoAmI_FullMethodName, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/corpopadel/padel-auth/internal/common"
	"github.com/corpopadel/padel-auth/internal/server/models"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	userKey      ctxKey = "user"
	requestIDKey ctxKey = "request_id"

	RequestIDHeaderName = "x-request-id"
)

// protectedMethods need a valid access_token in the request metadata.
var protectedMethods = map[string]bool{
	TokenService_WhoAmI_FullMethodName: true,
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func firstMetadata(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if protectedMethods[info.FullMethod] {

		accessToken := firstMetadata(ctx, common.AccessTokenHeaderName)
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		user, err := s.auth.Authenticate(ctx, accessToken)
		if err != nil {
			if errors.Is(err, common.ErrAccountDisabled) {
				return nil, status.Error(codes.PermissionDenied, "account disabled")
			}
			if errors.Is(err, common.ErrorUnauthorized) {
				return nil, status.Error(codes.Unauthenticated, "invalid token")
			}
			s.logger.Error(ctx, "authentication failed", "error", err)
			return nil, status.Error(codes.Internal, "internal error")
		}

		ctx = context.WithValue(ctx, userKey, user)
	}

	return handler(ctx, req)
}

// requestLogInterceptor tags each call with a request id (taken from the
// x-request-id metadata or generated) and logs its outcome.
func (s *GRPCServer) requestLogInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := firstMetadata(ctx, RequestIDHeaderName)
	if id == "" {
		id = uuid.NewString()
	}
	ctx = context.WithValue(ctx, requestIDKey, id)
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeaderName, id))

	start := time.Now()
	resp, err := handler(ctx, req)

	s.logger.Info(ctx, "grpc request",
		"request_id", id,
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}

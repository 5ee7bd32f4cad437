package auth

import (
	"context"
	"net/http"
	"strings"

	"roomchat/contract"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const NameKey contextKey = "name"

// NameFromContext returns the display name injected by StreamInterceptor, if any.
func NameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(NameKey).(string)
	return name
}

// StreamInterceptor validates the bearer token of every stream when enabled
// and injects the resolved display name into the stream context.
func StreamInterceptor(resolver contract.IdentityResolver, enabled bool) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !enabled {
			return handler(srv, ss)
		}
		md, ok := metadata.FromIncomingContext(ss.Context())
		if !ok {
			return status.Error(codes.Unauthenticated, "metadata is missing")
		}
		values := md.Get("authorization")
		if len(values) == 0 {
			return status.Error(codes.Unauthenticated, "authorization token is missing")
		}
		name, err := resolver.Resolve(BearerToken(values[0]))
		if err != nil {
			return status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		ctx := context.WithValue(ss.Context(), NameKey, name)
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
	}
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}

// BearerToken strips the "Bearer " scheme from an authorization header.
func BearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// TokenFromRequest reads the token of a websocket upgrade request: the
// Authorization header first, the token query parameter otherwise.
// Browsers can't set headers on a websocket handshake.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return BearerToken(header)
	}
	return r.URL.Query().Get("token")
}

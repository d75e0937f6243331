package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/gate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var errUnauthenticated = status.Error(codes.Unauthenticated, "unauthenticated")

// authorizationFromMetadata returns the first "authorization" value.
func authorizationFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(strings.ToLower(common.AuthorizationHeaderName))
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func authenticate(ctx context.Context, g *gate.Gate, l logging.Logger, method string) (context.Context, error) {
	ctx, err := g.Authenticate(ctx, method, authorizationFromMetadata(ctx))
	if err != nil {
		l.Debug(ctx, "request rejected", "method", method, "reason", gate.Reason(err), "error", err)
		return ctx, errUnauthenticated
	}
	return ctx, nil
}

// UnaryServerInterceptor runs the gate on every unary call. The full method
// name is matched against the gate's public paths.
func UnaryServerInterceptor(g *gate.Gate, l logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := authenticate(ctx, g, l, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor is the streaming counterpart of
// UnaryServerInterceptor.
func StreamServerInterceptor(g *gate.Gate, l logging.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authenticate(ss.Context(), g, l, info.FullMethod)
		if err != nil {
			return err
		}
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

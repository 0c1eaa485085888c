package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/shuttle-league/internal/auth"
)

// Registrar attaches one service to a gRPC server. Services expose one each
// so cmd/server can pick what to serve.
type Registrar interface {
	Register(s grpc.ServiceRegistrar)
}

// UnaryMethod builds the method descriptor of a JSON-coded unary RPC.
// S is the handler type registered with the service descriptor.
//
// Example:
//
//	server.UnaryMethod("matchlog.v1.MatchLogService", "ListInbox", (*handler).listInbox)
func UnaryMethod[S any, Req any, Resp any](
	service, method string,
	call func(S, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			h := srv.(S)
			if interceptor == nil {
				return call(h, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(h, ctx, req.(*Req))
			})
		},
	}
}

// Actor returns the authenticated caller placed on ctx by the auth interceptor.
func Actor(ctx context.Context) (uint64, error) {
	id, ok := auth.ActorFromContext(ctx)
	if !ok {
		return 0, status.Error(codes.Unauthenticated, "missing or invalid token")
	}
	return id, nil
}

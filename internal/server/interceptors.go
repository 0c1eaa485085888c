package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/shuttle-league/internal/auth"
	svcErr "github.com/oggyb/shuttle-league/internal/errors"
	"github.com/oggyb/shuttle-league/internal/logger"
)

// UnaryLogging attaches a per-call logger carrying req_id and method, and logs the outcome.
// An incoming x-request-id metadata value is reused when present.
func UnaryLogging(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		reqID := firstMetadata(ctx, "x-request-id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		log := base.With("req_id", reqID, "method", info.FullMethod)
		ctx = logger.IntoContext(ctx, log)

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		if code == codes.Internal || code == codes.Unknown {
			log.Error("rpc failed", "code", code.String(), "duration", time.Since(start), "err", err)
		} else {
			log.Debug("rpc done", "code", code.String(), "duration", time.Since(start))
		}
		return resp, err
	}
}

// UnaryAuth resolves the "authorization: Bearer <jwt>" metadata into the actor id.
// Methods under a public prefix (health, reflection) skip authentication.
func UnaryAuth(m *auth.Manager, publicPrefixes ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		for _, p := range publicPrefixes {
			if strings.HasPrefix(info.FullMethod, p) {
				return handler(ctx, req)
			}
		}
		actorID, err := m.ParseBearer(firstMetadata(ctx, "authorization"))
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(auth.WithActor(ctx, actorID), req)
	}
}

// UnaryErrors converts service errors into gRPC status errors in one place.
func UnaryErrors() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			if svcErr.KindOf(err) == "" {
				if _, ok := status.FromError(err); !ok {
					logger.FromContext(ctx, nil).Error("internal failure", "err", err)
				}
			}
			return nil, svcErr.Map(err)
		}
		return resp, nil
	}
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

package beacon

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/emergency-beacon/internal/logger"
)

// ActorMetadataKey carries the caller identity (user@host).
const ActorMetadataKey = "x-beacon-actor"

// actorFromContext returns the caller identity sent by the client, if any.
func actorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get(ActorMetadataKey)
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// LoggingInterceptor attaches the method and caller to the request logger
// and logs each call outcome.
func LoggingInterceptor(base context.Context) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = logger.ToContext(ctx, logger.FromContext(base))
		ctx = logger.WithKV(ctx, "method", info.FullMethod)

		if actor := actorFromContext(ctx); actor != "" {
			ctx = logger.WithKV(ctx, "actor", actor)
		}

		started := time.Now()
		resp, err := handler(ctx, req)

		if err != nil {
			logger.WarnKV(ctx, "Call failed", "code", status.Code(err).String(), "error", err, "duration", time.Since(started))

			return resp, err
		}

		logger.DebugKV(ctx, "Call served", "duration", time.Since(started))

		return resp, nil
	}
}

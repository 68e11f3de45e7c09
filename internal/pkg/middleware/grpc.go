// Package middleware holds the gin middleware and gRPC interceptors shared by
// every catalog transport.
package middleware

import (
	"context"
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/auth"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/i18n"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ContextInterceptor lifts request id, acting user and locale out of incoming
// metadata into the context.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		first := func(key string) string {
			if v := md.Get(key); len(v) > 0 {
				return v[0]
			}
			return ""
		}

		requestID := first(auth.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = auth.WithRequestID(ctx, requestID)
		if userID := first(auth.UserIDHeader); userID != "" {
			ctx = auth.WithUserID(ctx, userID)
		}
		ctx = i18n.WithLocale(ctx, first("accept-language"))
		_ = grpc.SetHeader(ctx, metadata.Pairs(auth.RequestIDHeader, requestID))
		return handler(ctx, req)
	}
}

// LoggingInterceptor logs every unary call with its status code.
func LoggingInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		fields := []zap.Field{
			zap.String("request_id", auth.GetRequestID(ctx)),
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		switch code {
		case codes.OK:
			log.Info("gRPC request", fields...)
		case codes.Internal, codes.Unknown, codes.Unavailable:
			log.Error("gRPC request", append(fields, zap.Error(err))...)
		default:
			log.Warn("gRPC request", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}

// RecoveryInterceptor converts a handler panic into codes.Internal.
func RecoveryInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if p := recover(); p != nil {
				log.Error("panic recovered",
					zap.String("method", info.FullMethod),
					zap.Any("error", p),
					zap.Stack("stacktrace"),
				)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

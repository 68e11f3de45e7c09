package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	requestIDKey contextKey = "request_id"

	// UserIDHeader carries the acting user as gRPC metadata or HTTP header.
	UserIDHeader = "x-user-id"
	// RequestIDHeader correlates logs of one request.
	RequestIDHeader = "x-request-id"
)

// SystemActor is recorded in audit events when no user is known.
const SystemActor = "system"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the acting user from the context, falling back to
// incoming gRPC metadata.
func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userIDKey).(string); ok && val != "" {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(UserIDHeader); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

// Actor is GetUserID or SystemActor.
func Actor(ctx context.Context) string {
	if id := GetUserID(ctx); id != "" {
		return id
	}
	return SystemActor
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	val, _ := ctx.Value(requestIDKey).(string)
	return val
}

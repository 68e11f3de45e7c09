package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
)

func TestGetUserID(t *testing.T) {
	assert.Equal(t, "", GetUserID(context.Background()))
	assert.Equal(t, SystemActor, Actor(context.Background()))

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(UserIDHeader, "u-md"))
	assert.Equal(t, "u-md", GetUserID(ctx))

	ctx = WithUserID(ctx, "u-ctx")
	assert.Equal(t, "u-ctx", GetUserID(ctx))
	assert.Equal(t, "u-ctx", Actor(ctx))
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "", GetRequestID(context.Background()))
}

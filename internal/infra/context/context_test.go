package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrupp/bookswap/internal/domain"
	context_ "github.com/mkrupp/bookswap/internal/infra/context"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	_, ok := context_.TraceIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := context_.WithTraceID(context.Background(), "abc")
	traceID, ok := context_.TraceIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", traceID)

	_, ok = context_.TraceIDFromContext(context_.WithTraceID(context.Background(), ""))
	assert.False(t, ok, "empty trace id counts as absent")
}

func TestUserID(t *testing.T) {
	t.Parallel()

	_, ok := context_.UserIDFromContext(context.Background())
	assert.False(t, ok)

	id := domain.NewID()
	userID, ok := context_.UserIDFromContext(context_.WithUserID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, userID)
}

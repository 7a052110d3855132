package context

import (
	"context"

	"github.com/mkrupp/bookswap/internal/domain"
)

const contextKeyUserID = contextKey("userID")

// UserIDFromContext extracts the authenticated user's ID from the context.
// Returns false for unauthenticated requests.
func UserIDFromContext(ctx context.Context) (domain.ID, bool) {
	userID, ok := ctx.Value(contextKeyUserID).(domain.ID)

	return userID, ok && userID != ""
}

// WithUserID returns a context carrying the authenticated user's ID.
// The authorizing middleware sets it after the bearer token has been verified.
func WithUserID(ctx context.Context, userID domain.ID) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

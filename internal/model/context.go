package model

import (
	"context"

	"github.com/google/uuid"
)

// ContextManager carries the authenticated caller through a request.
type ContextManager interface {
	SetUserToContext(ctx context.Context, user User) context.Context
	GetUserFromContext(ctx context.Context) (User, bool)
	GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool)
	GetBearerToken(ctx context.Context) (string, bool)
}

package context

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"

	"github.com/dtroode/authflow/internal/model"
)

// userIDKey is the metadata key used to store and retrieve user ID in gRPC context.
const (
	userIDKey        string = "user_id"
	authorizationKey string = "authorization"
	bearerPrefix     string = "Bearer "
)

type userKey struct{}

// Manager represents a gRPC context manager for the authenticated caller.
type Manager struct{}

// NewManager creates a new gRPC context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

var _ model.ContextManager = (*Manager)(nil)

// SetUserToContext records the authenticated user. The ID is also copied into
// incoming metadata so interceptors further down the chain can log it.
func (m *Manager) SetUserToContext(ctx context.Context, user model.User) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.New(map[string]string{userIDKey: user.ID.String()})
	} else {
		md = md.Copy()
		md.Set(userIDKey, user.ID.String())
	}

	ctx = metadata.NewIncomingContext(ctx, md)
	return context.WithValue(ctx, userKey{}, user)
}

// GetUserFromContext returns the user set by SetUserToContext.
func (m *Manager) GetUserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey{}).(model.User)
	if !ok || user.ID == uuid.Nil {
		return model.User{}, false
	}
	return user, true
}

// GetUserIDFromContext retrieves the user ID from gRPC context metadata.
func (m *Manager) GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return uuid.Nil, false
	}

	userIDs := md.Get(userIDKey)
	if len(userIDs) == 0 {
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDs[0])
	if err != nil {
		return uuid.Nil, false
	}

	return userID, true
}

// GetBearerToken returns the token from the authorization header, if any.
func (m *Manager) GetBearerToken(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}

	headers := md.Get(authorizationKey)
	if len(headers) == 0 || !strings.HasPrefix(headers[0], bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(headers[0], bearerPrefix))
	return token, token != ""
}

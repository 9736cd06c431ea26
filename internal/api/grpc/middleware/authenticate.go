package middleware

import (
	"context"

	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/model"
)

// Authenticator resolves the user behind an auth token.
type Authenticator interface {
	Authenticate(ctx context.Context, authToken string) (model.User, error)
}

// Authenticate validates bearer tokens and injects the user into context.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(authenticator Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{authenticator: authenticator, contextManager: contextManager, logger: logger}
}

// AuthFunc reads the authorization header, resolves the token and returns a
// context carrying the user.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	tokenString, ok := m.contextManager.GetBearerToken(ctx)
	if !ok {
		m.logger.Debug("Authenticate middleware: missing bearer token")
		return nil, apierror.ToStatus(apierror.NewErrSessionExpired())
	}

	user, err := m.authenticator.Authenticate(ctx, tokenString)
	if err != nil {
		return nil, apierror.ToStatus(err)
	}

	return m.contextManager.SetUserToContext(ctx, user), nil
}

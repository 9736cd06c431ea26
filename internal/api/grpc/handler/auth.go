package handler

import (
	"context"

	"github.com/dtroode/authflow/internal/api/grpc/authrpc"
	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/model"
)

// Auth handles gRPC endpoints for authentication.
type Auth struct {
	authService    model.AuthClient
	contextManager model.ContextManager
	logger         *logger.Logger
}

var _ authrpc.AuthServer = (*Auth)(nil)

// NewAuth creates a new Auth handler.
func NewAuth(authService model.AuthClient, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Login checks credentials and returns either an auth token or a temporary
// token for the second factor.
func (h *Auth) Login(ctx context.Context, req *authrpc.LoginRequest) (*model.AuthResult, error) {
	h.logger.Debug("Auth handler: processing login request",
		"email", req.Email)

	result, err := h.authService.Login(ctx, model.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, handleError(err)
	}

	h.logger.Info("Auth handler: login completed",
		"user_id", result.User.ID,
		"requires_2fa", result.RequiresTwoFactor)

	return &result, nil
}

// VerifyTwoFactor redeems a temporary token with a code.
func (h *Auth) VerifyTwoFactor(ctx context.Context, req *authrpc.VerifyRequest) (*model.AuthResult, error) {
	h.logger.Debug("Auth handler: processing 2fa verification request")

	if req.TempToken == "" {
		return nil, handleError(apierror.NewErrInvalidSession())
	}

	result, err := h.authService.VerifyTwoFactor(ctx, req.TempToken, model.TwoFactorCode{Code: req.Code})
	if err != nil {
		return nil, handleError(err)
	}

	h.logger.Info("Auth handler: 2fa verification completed",
		"user_id", result.User.ID)

	return &result, nil
}

// RequestNewCode issues a fresh code for the pending challenge.
func (h *Auth) RequestNewCode(ctx context.Context, req *authrpc.ResendRequest) (*model.CodeResent, error) {
	h.logger.Debug("Auth handler: processing new code request")

	if req.TempToken == "" {
		return nil, handleError(apierror.NewErrInvalidSession())
	}

	resent, err := h.authService.RequestNewCode(ctx, req.TempToken)
	if err != nil {
		return nil, handleError(err)
	}

	h.logger.Info("Auth handler: new code issued")

	return &resent, nil
}

// WhoAmI returns the user the authenticate middleware resolved.
func (h *Auth) WhoAmI(ctx context.Context, _ *authrpc.Empty) (*model.User, error) {
	user, ok := h.contextManager.GetUserFromContext(ctx)
	if !ok {
		return nil, handleError(apierror.NewErrSessionExpired())
	}
	return &user, nil
}

// Logout revokes the caller's auth token.
func (h *Auth) Logout(ctx context.Context, _ *authrpc.Empty) (*authrpc.Empty, error) {
	token, ok := h.contextManager.GetBearerToken(ctx)
	if !ok {
		return nil, handleError(apierror.NewErrSessionExpired())
	}

	if err := h.authService.Logout(ctx, token); err != nil {
		return nil, handleError(err)
	}

	userID, _ := h.contextManager.GetUserIDFromContext(ctx)
	h.logger.Info("Auth handler: logout completed",
		"user_id", userID)

	return &authrpc.Empty{}, nil
}

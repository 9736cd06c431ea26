package model

import "context"

// AuthClient is the auth backend as seen from the client side. The in-process
// service and the gRPC client both satisfy it; errors are *apierror.APIError.
type AuthClient interface {
	Login(ctx context.Context, creds Credentials) (AuthResult, error)
	VerifyTwoFactor(ctx context.Context, tempToken string, code TwoFactorCode) (AuthResult, error)
	RequestNewCode(ctx context.Context, tempToken string) (CodeResent, error)
	Logout(ctx context.Context, authToken string) error
}

// Package client reaches the auth backend from the terminal client.
package client

import (
	"context"
	"crypto/tls"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dtroode/authflow/internal/api/grpc/authrpc"
	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/model"
)

// GRPC is an AuthClient talking to a remote authflow server.
type GRPC struct {
	rpc    *authrpc.AuthClient
	logger *logger.Logger
}

var _ model.AuthClient = (*GRPC)(nil)

// NewGRPC wraps an established connection.
func NewGRPC(cc grpc.ClientConnInterface, logger *logger.Logger) *GRPC {
	return &GRPC{rpc: authrpc.NewAuthClient(cc), logger: logger}
}

// Dial opens a connection to addr. The connection is lazy: nothing is sent
// until the first call.
func Dial(addr string, useTLS bool) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if useTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", addr, err)
	}
	return conn, nil
}

func (c *GRPC) Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	out, err := c.rpc.Login(ctx, &authrpc.LoginRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return model.AuthResult{}, c.fail("login", err)
	}
	return *out, nil
}

func (c *GRPC) VerifyTwoFactor(ctx context.Context, tempToken string, code model.TwoFactorCode) (model.AuthResult, error) {
	out, err := c.rpc.VerifyTwoFactor(ctx, &authrpc.VerifyRequest{TempToken: tempToken, Code: code.Code})
	if err != nil {
		return model.AuthResult{}, c.fail("verify", err)
	}
	return *out, nil
}

func (c *GRPC) RequestNewCode(ctx context.Context, tempToken string) (model.CodeResent, error) {
	out, err := c.rpc.RequestNewCode(ctx, &authrpc.ResendRequest{TempToken: tempToken})
	if err != nil {
		return model.CodeResent{}, c.fail("resend", err)
	}
	return *out, nil
}

func (c *GRPC) Logout(ctx context.Context, authToken string) error {
	if _, err := c.rpc.Logout(authrpc.WithBearer(ctx, authToken), &authrpc.Empty{}); err != nil {
		return c.fail("logout", err)
	}
	return nil
}

// Authenticate asks the server who owns authToken.
func (c *GRPC) Authenticate(ctx context.Context, authToken string) (model.User, error) {
	out, err := c.rpc.WhoAmI(authrpc.WithBearer(ctx, authToken), &authrpc.Empty{})
	if err != nil {
		return model.User{}, c.fail("whoami", err)
	}
	return *out, nil
}

func (c *GRPC) fail(op string, err error) error {
	apiErr := apierror.FromStatus(err)
	c.logger.Debug("gRPC client: call failed",
		"op", op,
		"code", string(apiErr.Code),
		"error", err.Error())
	return apiErr
}

package router

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/ratelimit"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"

	"github.com/dtroode/authflow/internal/api/grpc/authrpc"
	"github.com/dtroode/authflow/internal/api/grpc/handler"
	"github.com/dtroode/authflow/internal/api/grpc/middleware"
	"github.com/dtroode/authflow/internal/logger"
	"github.com/dtroode/authflow/internal/model"
)

// AuthService is what the router exposes over gRPC.
type AuthService interface {
	model.AuthClient
	middleware.Authenticator
}

// RateLimit bounds the request rate across all callers.
type RateLimit struct {
	PerSecond float64
	Burst     int
}

// Router wires the authflow.Auth service and its interceptors.
type Router struct {
	authService    AuthService
	contextManager model.ContextManager
	rateLimit      RateLimit
	logger         *logger.Logger
}

// New creates new gRPC Router instance.
func New(
	authService AuthService,
	contextManager model.ContextManager,
	rateLimit RateLimit,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		contextManager: contextManager,
		rateLimit:      rateLimit,
		logger:         logger,
	}
}

// requiresAuth selects the methods that need a bearer token.
func requiresAuth(_ context.Context, c interceptors.CallMeta) bool {
	switch c.FullMethod() {
	case authrpc.MethodWhoAmI, authrpc.MethodLogout:
		return true
	}
	return false
}

// Register builds the gRPC server. Interceptors run in order: panic
// recovery, logging, rate limit, then authentication for protected methods.
func (r *Router) Register() *grpc.Server {
	recoverer := middleware.NewRecovery(r.logger)
	logging := middleware.NewLogging(r.logger)
	limiter := middleware.NewRateLimit(r.rateLimit.PerSecond, r.rateLimit.Burst)
	authenticate := middleware.NewAuthenticate(r.authService, r.contextManager, r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(recovery.WithRecoveryHandler(recoverer.Handle)),
			logging.HandleGRPC,
			ratelimit.UnaryServerInterceptor(limiter),
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requiresAuth),
			),
		),
	)
	r.registerAuthRoutes(s)

	return s
}

func (r *Router) registerAuthRoutes(server *grpc.Server) {
	authHandler := handler.NewAuth(r.authService, r.contextManager, r.logger)
	authrpc.RegisterAuthServer(server, authHandler)
}

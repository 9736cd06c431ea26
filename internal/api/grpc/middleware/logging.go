package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/logger"
)

// Logging is a unary interceptor that logs gRPC requests and results.
type Logging struct {
	logger *logger.Logger
	now    func() time.Time
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger, now: time.Now}
}

// HandleGRPC logs method name, duration, status and failure category for each
// unary request. Expected business failures log at Info; only server-side
// faults log at Error.
func (l *Logging) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := l.now()

	l.logger.Debug("gRPC request started",
		"method", info.FullMethod)

	resp, err := handler(ctx, req)

	duration := l.now().Sub(start)

	if err == nil {
		l.logger.Info("gRPC request completed",
			"method", info.FullMethod,
			"duration_ms", duration.Milliseconds(),
			"status", codes.OK.String())
		return resp, nil
	}

	statusCode := codes.Internal
	if st, ok := status.FromError(err); ok {
		statusCode = st.Code()
	}
	category := apierror.FromStatus(err).Code

	args := []any{
		"method", info.FullMethod,
		"duration_ms", duration.Milliseconds(),
		"status", statusCode.String(),
		"code", string(category),
	}
	switch category {
	case apierror.CodeServerError, apierror.CodeUnknownError:
		l.logger.Error("gRPC request failed", append(args, "error", err.Error())...)
	default:
		l.logger.Info("gRPC request rejected", args...)
	}

	return resp, err
}

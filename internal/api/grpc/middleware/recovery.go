package middleware

import (
	"fmt"

	"github.com/dtroode/authflow/internal/apierror"
	"github.com/dtroode/authflow/internal/logger"
)

// Recovery turns handler panics into SERVER_ERROR statuses.
type Recovery struct {
	logger *logger.Logger
}

func NewRecovery(logger *logger.Logger) *Recovery {
	return &Recovery{logger: logger}
}

// Handle is a go-grpc-middleware recovery.RecoveryHandlerFunc.
func (r *Recovery) Handle(p any) error {
	r.logger.Error("gRPC handler panicked",
		"panic", fmt.Sprint(p))
	return apierror.ToStatus(apierror.NewErrServer())
}

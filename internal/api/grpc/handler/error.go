package handler

import (
	"context"
	"errors"

	"github.com/dtroode/authflow/internal/apierror"
)

func handleError(err error) error {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return apierror.ToStatus(apiErr)
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apierror.ToStatus(apierror.NewErrNetwork())
	default:
		return apierror.ToStatus(apierror.NewErrUnknown())
	}
}

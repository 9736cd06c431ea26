package apierror

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Domain is reported in ErrorInfo details.
const Domain = "authflow"

const (
	metaField   = "field"
	metaMessage = "message"
)

var grpcCodes = map[Code]codes.Code{
	CodeInvalidCredentials: codes.Unauthenticated,
	CodeUserNotFound:       codes.NotFound,
	CodeAccountLocked:      codes.PermissionDenied,
	CodeAccountSuspended:   codes.PermissionDenied,
	CodeEmailNotVerified:   codes.FailedPrecondition,
	CodeInvalid2FACode:     codes.Unauthenticated,
	CodeExpired2FACode:     codes.DeadlineExceeded,
	CodeTooManyAttempts:    codes.ResourceExhausted,
	CodeNetworkError:       codes.Unavailable,
	CodeServerError:        codes.Internal,
	CodeValidationError:    codes.InvalidArgument,
	CodeUnknownError:       codes.Unknown,
}

// GRPCCode maps a category to the gRPC status code used on the wire.
func GRPCCode(code Code) codes.Code {
	if c, ok := grpcCodes[code]; ok {
		return c
	}
	return codes.Unknown
}

// ToStatus converts err into a gRPC status error. The category, field and
// message travel in an ErrorInfo detail so the client can rebuild the APIError.
func ToStatus(err error) error {
	apiErr := From(err)
	st := status.New(GRPCCode(apiErr.Code), apiErr.Message)
	withDetails, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: string(apiErr.Code),
		Domain: Domain,
		Metadata: map[string]string{
			metaField:   apiErr.Field,
			metaMessage: apiErr.Message,
		},
	})
	if detailErr != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// FromStatus rebuilds an APIError from a gRPC error. Transport failures that
// carry no ErrorInfo are classified by status code.
func FromStatus(err error) *APIError {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return NewErrUnknown()
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != Domain {
			continue
		}
		code := Code(info.GetReason())
		if !code.Valid() {
			return NewErrUnknown()
		}
		return New(code, info.GetMetadata()[metaMessage], info.GetMetadata()[metaField])
	}

	switch st.Code() {
	case codes.Unavailable, codes.Canceled, codes.DeadlineExceeded:
		return NewErrNetwork()
	case codes.Internal:
		return NewErrServer()
	case codes.ResourceExhausted:
		return New(CodeTooManyAttempts, st.Message(), "")
	case codes.InvalidArgument:
		return New(CodeValidationError, st.Message(), "")
	default:
		return NewErrUnknown()
	}
}

// Package errors carries the structured failure type used across the like
// subsystem. Every error leaving a repository, the gateway or the wire is an
// *Error with a stable Code.
package errors

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Code classifies a failure independent of the transport.
type Code string

const (
	CodeInvalidArgument  Code = "invalid_argument"
	CodeUnauthenticated  Code = "unauthenticated"
	CodeNotFound         Code = "not_found"
	CodeAlreadyExists    Code = "already_exists"
	CodeUnavailable      Code = "unavailable"
	CodeDeadlineExceeded Code = "deadline_exceeded"
	CodeCanceled         Code = "canceled"
	CodeInternal         Code = "internal"
)

// errorDomain tags ErrorInfo details so foreign details are ignored.
const errorDomain = "motorplace"

// Error is the structured failure result: code, human message, optional details.
type Error struct {
	Code    Code
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// GRPCStatus lets grpc-go send *Error as a status with our code attached.
func (e *Error) GRPCStatus() *status.Status {
	st := status.New(grpcCode(e.Code), e.Message)
	info := &errdetails.ErrorInfo{
		Reason: string(e.Code),
		Domain: errorDomain,
	}
	if e.Details != "" {
		info.Metadata = map[string]string{"details": e.Details}
	}
	if withDetails, err := st.WithDetails(info); err == nil {
		return withDetails
	}
	return st
}

// Map converts repo/infra/transport errors into *Error.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, redis.Nil):
		return &Error{Code: CodeNotFound, Message: "record not found", Err: err}

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Code: CodeAlreadyExists, Message: "record already exists", Err: err}

	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: CodeDeadlineExceeded, Message: "request timed out", Err: err}

	case errors.Is(err, context.Canceled):
		return &Error{Code: CodeCanceled, Message: "request was canceled", Err: err}
	}

	if st, ok := status.FromError(err); ok {
		return FromStatus(st)
	}

	// fallback → bubble up error message for debugging
	return &Error{Code: CodeInternal, Message: "internal error", Details: err.Error(), Err: err}
}

// FromStatus rebuilds an *Error from a gRPC status received over the wire.
func FromStatus(st *status.Status) *Error {
	e := &Error{Code: codeFromGRPC(st.Code()), Message: st.Message(), Err: st.Err()}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != errorDomain {
			continue
		}
		e.Code = Code(info.GetReason())
		e.Details = info.GetMetadata()["details"]
	}
	return e
}

// CodeOf extracts the Code of any error; nil maps to "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(Map(err), &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// InvalidArgument creates an invalid-argument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return &Error{Code: CodeInvalidArgument, Message: msg}
}

// InvalidArgumentf wraps a validation failure with its details.
func InvalidArgumentf(msg string, cause error) error {
	return &Error{Code: CodeInvalidArgument, Message: msg, Details: cause.Error(), Err: cause}
}

// Unauthenticated is returned when an operation needs a signed-in user.
func Unauthenticated(msg string) error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// Unavailable marks transport or connectivity failures.
func Unavailable(msg string) error {
	return &Error{Code: CodeUnavailable, Message: msg}
}

func grpcCode(c Code) codes.Code {
	switch c {
	case CodeInvalidArgument:
		return codes.InvalidArgument
	case CodeUnauthenticated:
		return codes.Unauthenticated
	case CodeNotFound:
		return codes.NotFound
	case CodeAlreadyExists:
		return codes.AlreadyExists
	case CodeUnavailable:
		return codes.Unavailable
	case CodeDeadlineExceeded:
		return codes.DeadlineExceeded
	case CodeCanceled:
		return codes.Canceled
	default:
		return codes.Internal
	}
}

func codeFromGRPC(c codes.Code) Code {
	switch c {
	case codes.InvalidArgument:
		return CodeInvalidArgument
	case codes.Unauthenticated, codes.PermissionDenied:
		return CodeUnauthenticated
	case codes.NotFound:
		return CodeNotFound
	case codes.AlreadyExists:
		return CodeAlreadyExists
	case codes.Unavailable:
		return CodeUnavailable
	case codes.DeadlineExceeded:
		return CodeDeadlineExceeded
	case codes.Canceled:
		return CodeCanceled
	default:
		return CodeInternal
	}
}

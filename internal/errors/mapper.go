// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Kind classifies business failures. Anything that is not an *Error is an internal failure.
type Kind string

const (
	KindInvalidInput Kind = "INVALID_INPUT"
	KindNotFound     Kind = "NOT_FOUND"
	KindForbidden    Kind = "FORBIDDEN"
	KindConflict     Kind = "CONFLICT"
)

// Error is a terminal business error reported to the caller as-is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

// KindOf returns the business kind of err, or "" for internal failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	return ""
}

// Map converts service/repo/infra errors into gRPC-friendly status errors.
// Keeps service layer transport-agnostic by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var e *Error
	switch {
	case errors.As(err, &e):
		return status.Error(grpcCode(e.Kind), e.Message)

	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// internal details stay in the logs
		return status.Error(codes.Internal, "internal error")
	}
}

// HTTPStatus returns the REST status code and client-facing message for err.
func HTTPStatus(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindInvalidInput:
			return http.StatusBadRequest, e.Message
		case KindNotFound:
			return http.StatusNotFound, e.Message
		case KindForbidden:
			return http.StatusForbidden, e.Message
		case KindConflict:
			return http.StatusConflict, e.Message
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, "record not found"
	}
	return http.StatusInternalServerError, "internal error"
}

func grpcCode(k Kind) codes.Code {
	switch k {
	case KindInvalidInput:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindForbidden:
		return codes.PermissionDenied
	case KindConflict:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// InvalidArgument reports malformed, missing or contradictory input.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

// NotFound reports a referenced request or user that does not exist.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// PermissionDenied reports an actor without standing for the action.
func PermissionDenied(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Conflict reports a transition that is no longer valid for the current state.
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

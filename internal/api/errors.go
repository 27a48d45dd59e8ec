package api

import (
	"errors"
	"net/http"

	"github.com/elskow/gatekeep/internal/auth"
)

// Error codes reported in GraphQL error extensions.
const (
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInternal           = "INTERNAL"
	CodeRateLimited        = "RATE_LIMITED"
)

const (
	MsgAccountNotFound    = "User not found."
	MsgAccountLocked      = "Account locked. Try again later."
	MsgInvalidCredentials = "Invalid email or password."
	MsgNotAuthenticated   = "Not authenticated."
	MsgSessionExpired     = "Session expired. Please log in again."
	MsgInternal           = "Internal server error."
	MsgRateLimited        = "Too many requests. Try again later."
)

// PublicError is the caller-facing form of a service error. Internal causes
// never leak into Message.
type PublicError struct {
	Message string
	Code    string
	Status  int
}

func (e *PublicError) Error() string {
	return e.Message
}

// Extensions is read by the GraphQL executor.
func (e *PublicError) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code": e.Code,
	}
}

// Classify maps an error returned by the auth package to its public form.
// Unknown errors are reported as internal.
func Classify(err error) *PublicError {
	switch {
	case errors.Is(err, auth.ErrAccountNotFound):
		return &PublicError{Message: MsgAccountNotFound, Code: CodeAccountNotFound, Status: http.StatusOK}
	case errors.Is(err, auth.ErrAccountLocked):
		return &PublicError{Message: MsgAccountLocked, Code: CodeAccountLocked, Status: http.StatusOK}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &PublicError{Message: MsgInvalidCredentials, Code: CodeInvalidCredentials, Status: http.StatusOK}
	case errors.Is(err, auth.ErrNotAuthenticated):
		return &PublicError{Message: MsgNotAuthenticated, Code: CodeUnauthenticated, Status: http.StatusOK}
	case errors.Is(err, auth.ErrTokenExpired):
		return &PublicError{Message: MsgSessionExpired, Code: CodeTokenExpired, Status: http.StatusUnauthorized}
	case errors.Is(err, auth.ErrTokenInvalid):
		return &PublicError{Message: MsgSessionExpired, Code: CodeTokenInvalid, Status: http.StatusUnauthorized}
	default:
		return &PublicError{Message: MsgInternal, Code: CodeInternal, Status: http.StatusInternalServerError}
	}
}

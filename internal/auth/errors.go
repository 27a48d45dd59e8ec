package auth

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountLocked      = errors.New("account is locked")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrPersistence        = errors.New("persistence failure")
)

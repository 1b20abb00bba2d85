package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPermissionDenied indicates the actor lacks the permission for an
	// operation; raised locally, before any write reaches the backend.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInactiveUser indicates the account has been deactivated.
	ErrInactiveUser = errors.New("account deactivated")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrWeakPassword indicates the password does not meet the minimum length.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrSessionExpired indicates the session exceeded its idle or absolute window.
	ErrSessionExpired = errors.New("session expired")
	// ErrDuplicate indicates a unique-constraint violation on write.
	ErrDuplicate = errors.New("duplicate record")
)

package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate indicates a unique constraint was hit.
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidRole indicates a role outside the known set.
	ErrInvalidRole = errors.New("invalid role")
)

package services

import "errors"

// Sentinel errors returned by the service layer. Handlers translate them into
// HTTP status codes.
var (
	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness invariant was violated, such as a
	// duplicate username.
	ErrConflict = errors.New("already exists")

	// ErrInvalidCredentials is returned for any failed login, without
	// revealing whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden means the acting user is not allowed to perform the
	// operation, e.g. deleting someone else's post.
	ErrForbidden = errors.New("forbidden")
)

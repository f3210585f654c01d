// Package v1 provides authentication business logic for API version 1.
//
// Error Handling:
// This package defines sentinel errors that represent common authentication
// failures. These errors should be wrapped with context using
// fmt.Errorf("%w") when returned from business logic methods.
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrUsernameTaken):
//	    c.JSON(http.StatusConflict, ...)
//	case errors.Is(err, logicv1.ErrIncorrectUsername):
//	    c.JSON(http.StatusUnauthorized, ...)
//	default:
//	    c.JSON(http.StatusInternalServerError, ...)
//	}
package v1

import "errors"

// Sentinel errors for authentication operations.
// These errors should be wrapped with context using fmt.Errorf("%w") when returned.
var (
	// ErrUsernameTaken indicates the username already exists.
	// HTTP Status: 409 Conflict
	ErrUsernameTaken = errors.New("username already taken")

	// ErrIncorrectUsername indicates no user exists with the given username.
	// HTTP Status: 401 Unauthorized
	ErrIncorrectUsername = errors.New("incorrect username")

	// ErrIncorrectPassword indicates the password does not match the stored hash.
	// HTTP Status: 401 Unauthorized
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrUserMissing indicates a session references a user that no longer
	// exists. This is an invariant violation, not a user-facing condition.
	// HTTP Status: 500 Internal Server Error
	ErrUserMissing = errors.New("authenticated user missing")
)

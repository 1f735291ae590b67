// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// knowing about database/sql or the MySQL driver.
package repository

import "errors"

// ErrEmailExists is returned by UserRepo.Create when the unique email
// index rejects the insert.  Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user row matches.
var ErrUserNotFound = errors.New("user not found")

// ErrTokenInvalid is returned for a refresh token that is unknown,
// revoked or expired.  Handlers translate it into HTTP 401.
var ErrTokenInvalid = errors.New("refresh token invalid")

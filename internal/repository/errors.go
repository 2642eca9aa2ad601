// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without inspecting
// driver errors.
package repository

import (
	"errors"
	"strings"
)

// ErrScanNotFound is returned when a skin_analysis row does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrScanNotFound = errors.New("scan not found")

// ErrAdminNotFound is returned when no admin matches the lookup.
var ErrAdminNotFound = errors.New("admin not found")

// ErrEmailExists is returned when inserting an admin whose email is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidRefresh covers unknown, expired and revoked refresh tokens.
var ErrInvalidRefresh = errors.New("invalid refresh token")

// isDuplicateKey reports whether err is MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// Package repository is the raw-SQL data access layer. This file holds the
// sentinel errors shared across repositories so handlers can branch on the
// failure class without inspecting driver errors.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a row does not exist. Handlers translate it
// to NOT_FOUND, which is also the public face of permission denials.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned on unique-index violations (email, slug, name,
// thread pair). Handlers map it to UNIQUE or SLUG_TAKEN by field.
var ErrDuplicate = errors.New("duplicate")

// ErrConflict is returned when an operation cannot proceed because of
// dependent state.
var ErrConflict = errors.New("conflict")

// isDuplicateKey detects MySQL error 1062 without importing the driver's
// error types everywhere.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

package repository

import (
	"errors"
	"fmt"
)

// ErrNoFieldsToUpdate is returned by Update before any storage call when the
// partial field map is empty.
var ErrNoFieldsToUpdate = errors.New("no fields to update")

// ErrNotFoundAfterUpdate means the re-read following an update statement
// found no row. Distinct from "update matched zero rows": the row vanished
// between write and read, which callers treat as fatal rather than not-found.
var ErrNotFoundAfterUpdate = errors.New("row not found after update")

// ErrCreateReturnedNoRow means an INSERT ... RETURNING produced nothing.
// The caller must never receive a synthetic entity in its place.
var ErrCreateReturnedNoRow = errors.New("creation failed: no row returned")

// AlreadyExistsError is the domain conflict raised when an email is already
// taken, either by the service's fast-path check or by the storage unique
// constraint, which is the authoritative guard.
type AlreadyExistsError struct {
	Email string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("user with email %q already exists", e.Email)
}

// UnknownFieldError rejects a partial-update key that is not on the entity's
// allow-list. Caller-provided field names are never trusted verbatim as
// column names.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown update field %q", e.Field)
}

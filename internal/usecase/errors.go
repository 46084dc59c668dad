package usecase

import "errors"

// ErrInvalidID is returned when a path identifier is not a valid UUID.
// Routing maps it to a bad-request response.
var ErrInvalidID = errors.New("invalid id")

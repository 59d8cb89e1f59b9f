package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing photo, coordinate out of range).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a journey transition is attempted against the
// wrong state: starting a day that is already IN_PROGRESS or COMPLETED, or
// ending a day that was never started. Under concurrent requests the storage
// layer guarantees exactly one winner; the loser gets this.
// Handlers should map this to HTTP 409 Conflict.
var ErrConflict = errors.New("conflict")

package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. blank city, end date before start date, malformed amount string).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrIO marks a failure to read from or write to an export/import stream.
var ErrIO = errors.New("i/o failure")

// ErrParse marks an import document that cannot be decoded, carries an
// unknown schema version, or lacks a required field.
var ErrParse = errors.New("parse failure")

// ErrConstraint is returned by the repo layer when the database rejects a
// write because of a constraint (duplicate identity, check constraint).
// During import it aborts the transaction.
var ErrConstraint = errors.New("constraint violation")

package domain

import "errors"

var (
	// ErrNotFound means an id did not resolve in the forest or section list.
	ErrNotFound = errors.New("not found")

	ErrInvariantViolation = errors.New("invariant violation")
	ErrLastRootPage       = invariant("cannot delete the last root page")
	ErrDirectoryPage      = invariant("cannot add blocks to a page that has sub-pages")

	// ErrBoundary reports a move that would cross the start or end of its list.
	ErrBoundary = errors.New("already at boundary")

	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("not authenticated")

	ErrDocumentNotFound = errors.New("document not found")
)

// invariant builds an error that matches ErrInvariantViolation under errors.Is.
func invariant(msg string) error { return &invariantError{msg: msg} }

type invariantError struct{ msg string }

func (e *invariantError) Error() string        { return e.msg }
func (e *invariantError) Is(target error) bool { return target == ErrInvariantViolation }

// Package errs defines the sentinel error kinds used by the resolver and
// transactor. Callers match against them with errors.Is; the resolver
// and transactor wrap them with package/version context via fmt.Errorf's
// %w verb.
package errs

import "errors"

var (
	ErrIOFailure                = errors.New("io failure")
	ErrCatalogFailure           = errors.New("catalog failure")
	ErrParseFailure             = errors.New("parse failure")
	ErrArchMismatch             = errors.New("architecture mismatch")
	ErrMissingDependency        = errors.New("missing dependency")
	ErrVersionMismatch          = errors.New("version mismatch")
	ErrConflict                 = errors.New("conflicting package installed")
	ErrNotInstalled             = errors.New("package not installed")
	ErrReverseDependencyBlocked = errors.New("blocked by reverse dependency")
	ErrHookNonZero              = errors.New("hook exited non-zero")
	ErrNotFoundInRepo           = errors.New("package not found in any repo")
)

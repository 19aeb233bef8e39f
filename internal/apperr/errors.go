// Package apperr defines the sentinel errors shared across Raido components.
package apperr

import "errors"

var (
	// ErrNotFound means the requested application is not in the index
	// and the matcher produced no candidate either.
	ErrNotFound = errors.New("app not found")
	// ErrNotInitialized means the index could not be populated from
	// cache, scan, or fallback scan.
	ErrNotInitialized = errors.New("index not initialized")
	// ErrSecurityPolicy means the executor refused to launch a path that
	// failed the security gate. Distinct from ErrNotFound so callers can
	// tell "missing" from "found but refused".
	ErrSecurityPolicy = errors.New("security policy rejection")
	// ErrUnsupportedPlatform means the host OS is neither windows nor macos.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrEmptyQuery means a search was attempted with a blank query string.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrInvalidCache means the on-disk cache envelope failed schema or
	// staleness validation.
	ErrInvalidCache = errors.New("invalid cache envelope")
)

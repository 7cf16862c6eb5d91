package domain

import "errors"

var (
	// ErrUnknownPermission indicates a permission key absent from the catalog.
	// This is a configuration error, never coerced into a denial.
	ErrUnknownPermission = errors.New("unknown permission")
	// ErrUnknownRole indicates a role key outside the closed role set.
	ErrUnknownRole = errors.New("unknown role")
	// ErrStoreUnavailable indicates the backing store could not be reached
	// and no known-good snapshot exists to fall back on.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrResolutionTimeout indicates a resolution blocked on a refresh past
	// the caller's deadline. Guards treat it as deny.
	ErrResolutionTimeout = errors.New("resolution timed out")
)

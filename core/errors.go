package core

import "errors"

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrUnsupportedProvider is returned when a provider variant has no
// configuration. It is fatal and never retried.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// ErrUnauthorized is returned for forged or undecodable OAuth state tokens
// and for user mismatches during the connect callback.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotFoundOrInactive is returned when a sync is triggered for an
// integration that does not exist or has been revoked.
var ErrNotFoundOrInactive = errors.New("integration not found or inactive")

// ErrSyncAlreadyRunning is returned when another sync run holds the
// in-progress lease for the same integration.
var ErrSyncAlreadyRunning = errors.New("sync already running for integration")

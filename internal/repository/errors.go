// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// reservation service and the HTTP handlers to distinguish between
// different failure scenarios without inspecting driver errors. Anything
// not covered by a sentinel is a transient store failure: it is wrapped
// and propagated so the caller can retry the whole operation.
package repository

import "errors"

// ErrAccountNotFound is returned when an account id or login does not
// match any row. Handlers should translate this into an HTTP 404.
var ErrAccountNotFound = errors.New("account not found")

// ErrAccountInactive is returned when a ticket is requested for an
// account whose is_active flag is false. The booking transaction is
// rolled back and no writes survive.
var ErrAccountInactive = errors.New("account is deactivated")

// ErrMovieNotFound is returned when a movie id does not match any row.
// During ticket deletion it signals a dangling ticket, the referenced
// movie vanished, and is surfaced rather than silently ignored.
var ErrMovieNotFound = errors.New("movie not found")

// ErrMovieInUse is returned when a movie cannot be deleted because
// tickets still reference it. Handlers should translate this into an
// HTTP 409 response.
var ErrMovieInUse = errors.New("movie has tickets")

// ErrTicketNotFound is returned when a ticket id does not match any row.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrNoSeatsAvailable is returned when the conditional seat decrement
// matches no row because available_seats is already zero. Under
// concurrent bookings for the last seat exactly one transaction
// commits; every other caller receives this error.
var ErrNoSeatsAvailable = errors.New("no seats available")

// ErrLoginExists is returned when account creation violates the login
// uniqueness constraint. Logins are unique across the entire account
// space: clients, admins and staff share one domain.
var ErrLoginExists = errors.New("login already exists")

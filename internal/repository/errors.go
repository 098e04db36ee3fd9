// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrSlotTaken indicates that a booking lost the race for a
// (date, time) slot, while ErrConflict signals that an operation
// cannot proceed due to existing dependent records (e.g. deleting an
// organization that still has reservations).
package repository

import "errors"

// ErrSlotTaken is returned when a reservation insert finds its (date, time)
// slot already occupied by a non-cancelled reservation. Handlers should
// translate this into an HTTP 409 response so the client returns to slot
// selection.
var ErrSlotTaken = errors.New("slot already booked")

// ErrEmailExists is returned when a user insert collides with an existing
// email. Handlers should translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrSlugExists is returned when an organization, service or formation
// insert collides with an existing slug.
var ErrSlugExists = errors.New("slug already exists")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

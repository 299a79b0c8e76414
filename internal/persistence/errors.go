// Package persistence defines the sentinel errors shared by every store
// implementation. Repository contracts are declared by the consuming
// services; the in-memory store is the canonical implementation and the
// SQLite store mirrors it for deployments that keep state across restarts.
package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a record with the same identifier already exists.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConflict is returned when an insert or approval would put a second
	// booked reservation on one (room, date, start time) cell.
	ErrConflict = errors.New("persistence: cell already booked")
	// ErrInvalidState is returned when a decision targets a reservation that
	// is no longer pending.
	ErrInvalidState = errors.New("persistence: reservation not pending")
	// ErrConstraintViolation is returned when a record violates a storage constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)

package domain

import "github.com/google/uuid"

// Actor is the authenticated user performing an operation, as carried by the
// request identity. Services stamp actor id and name into ownership slots and
// audit records.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role Role
}

// Package access decides whether an actor may operate on a note.
package access

import (
	"noteguard-be/internal/entity"
	"noteguard-be/internal/pkg/apperror"

	"github.com/google/uuid"
)

// Capability is a bit set; a request for Owner|Admin is satisfied by either.
type Capability uint8

const (
	Owner Capability = 1 << iota
	Admin
)

const OwnerOrAdmin = Owner | Admin

type Decision bool

const (
	Allowed Decision = true
	Denied  Decision = false
)

type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// Authorize is only consulted after the note is known to exist.
func (g *Guard) Authorize(actor entity.Actor, ownerId uuid.UUID, required Capability) Decision {
	if required&Owner != 0 && actor.Id != uuid.Nil && actor.Id == ownerId {
		return Allowed
	}
	if required&Admin != 0 && actor.IsAdmin() {
		return Allowed
	}
	return Denied
}

func (g *Guard) Require(actor entity.Actor, ownerId uuid.UUID, required Capability) error {
	if g.Authorize(actor, ownerId, required) == Denied {
		return apperror.AccessDenied("you do not have permission to access this note")
	}
	return nil
}

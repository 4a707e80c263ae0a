package entity

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	Id                  uuid.UUID
	OwnerId             uuid.UUID
	Title               string
	Content             string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ExpirationTime      *time.Time
	ShareToken          *string
	ShareExpirationTime *time.Time
}

// IsExpired reports whether the note's content has expired at now. A note
// without an expiration time never expires.
func (n *Note) IsExpired(now time.Time) bool {
	return n.ExpirationTime != nil && !n.ExpirationTime.After(now)
}

// HasActiveShare reports whether the note carries a share link that still
// resolves at now.
func (n *Note) HasActiveShare(now time.Time) bool {
	return n.ShareToken != nil && n.ShareExpirationTime != nil && n.ShareExpirationTime.After(now)
}

// Clone returns a deep copy so callers can decrypt fields without touching
// the stored value.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	c := *n
	if n.ExpirationTime != nil {
		t := *n.ExpirationTime
		c.ExpirationTime = &t
	}
	if n.ShareToken != nil {
		s := *n.ShareToken
		c.ShareToken = &s
	}
	if n.ShareExpirationTime != nil {
		t := *n.ShareExpirationTime
		c.ShareExpirationTime = &t
	}
	return &c
}

package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Title           string `json:"title" validate:"required,max=255"`
	Content         string `json:"content" validate:"max=100000"`
	ExpirationHours *int   `json:"expiration_hours" validate:"omitempty,gt=0"`
}

type UpdateNoteRequest struct {
	Id      uuid.UUID `json:"-"`
	Title   string    `json:"title" validate:"required,max=255"`
	Content string    `json:"content" validate:"max=100000"`
}

// NoteResponse is a decrypted note as seen by its owner or an admin.
type NoteResponse struct {
	Id                  uuid.UUID  `json:"id"`
	OwnerId             uuid.UUID  `json:"owner_id"`
	OwnerUsername       string     `json:"owner_username,omitempty"`
	Title               string     `json:"title"`
	Content             string     `json:"content"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	ExpirationTime      *time.Time `json:"expiration_time"`
	ShareToken          *string    `json:"share_token,omitempty"`
	ShareExpirationTime *time.Time `json:"share_expiration_time,omitempty"`
}

// SharedNoteResponse is what an anonymous share-link viewer receives.
type SharedNoteResponse struct {
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ExpirationTime *time.Time `json:"expiration_time"`
	SharedUntil    time.Time  `json:"shared_until"`
}

type ShareTokenResponse struct {
	Token     string    `json:"token"`
	ShareUrl  string    `json:"share_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CleanupResult struct {
	SharesInvalidated int64     `json:"shares_invalidated"`
	NotesPurged       int64     `json:"notes_purged"`
	RanAt             time.Time `json:"ran_at"`
}

type ExpiringNotesResponse struct {
	Hours          int   `json:"hours"`
	ExpiringWithin int64 `json:"expiring_within"`
	AlreadyExpired int64 `json:"already_expired"`
}

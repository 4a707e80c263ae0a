package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteOwnedByUser struct {
	UserID uuid.UUID
}

func (s NoteOwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.owner_id = ?", s.UserID)
}

// NoteExpiredAt matches notes whose content expired at or before At.
type NoteExpiredAt struct {
	At time.Time
}

func (s NoteExpiredAt) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.expiration_time IS NOT NULL AND notes.expiration_time <= ?", s.At)
}

// NoteLiveAt is the negation of NoteExpiredAt.
type NoteLiveAt struct {
	At time.Time
}

func (s NoteLiveAt) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("(notes.expiration_time IS NULL OR notes.expiration_time > ?)", s.At)
}

// NoteExpiringBetween matches From < expiration_time <= To.
type NoteExpiringBetween struct {
	From time.Time
	To   time.Time
}

func (s NoteExpiringBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.expiration_time > ? AND notes.expiration_time <= ?", s.From, s.To)
}

type ByShareToken struct {
	Token string
}

func (s ByShareToken) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.share_token = ?", s.Token)
}

// ShareActiveAt matches notes carrying a share link that still resolves at At.
type ShareActiveAt struct {
	At time.Time
}

func (s ShareActiveAt) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.share_token IS NOT NULL AND notes.share_expiration_time > ?", s.At)
}

// ShareExpiredAt matches notes with a share link whose expiry has passed.
type ShareExpiredAt struct {
	At time.Time
}

func (s ShareExpiredAt) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.share_token IS NOT NULL AND notes.share_expiration_time <= ?", s.At)
}

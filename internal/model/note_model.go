package model

import (
	"time"

	"github.com/google/uuid"
)

// Note is the persisted row. Title and Content hold ciphertext.
type Note struct {
	Id                  uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerId             uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title               string     `gorm:"type:text;not null"`
	Content             string     `gorm:"type:text"`
	CreatedAt           time.Time  `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt           time.Time  `gorm:"not null;autoUpdateTime:false"`
	ExpirationTime      *time.Time `gorm:"index"`
	ShareToken          *string    `gorm:"type:varchar(64);uniqueIndex"`
	ShareExpirationTime *time.Time `gorm:"index"`
}

func (Note) TableName() string {
	return "notes"
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Role         string    `gorm:"type:varchar(20);not null;default:'user';index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	// Declared so AutoMigrate emits the cascading foreign key on notes.owner_id.
	Notes []Note `gorm:"foreignKey:OwnerId;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

// All lists every table in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Note{},
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the slice of the identity service's user record the core reads.
// Accounts are created and authenticated elsewhere; this table is consumed
// only for display-name lookups when assembling responses.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Nickname  string    `gorm:"type:varchar(30);not null" json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

package model

import (
	"time"

	"github.com/google/uuid"
)

// Category is meetup classification reference data. Managed elsewhere; the
// core only checks existence at meetup creation.
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string { return "categories" }

// Region is location reference data keyed by a stable code.
type Region struct {
	Code      string    `gorm:"type:varchar(50);primaryKey" json:"code"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Region) TableName() string { return "regions" }

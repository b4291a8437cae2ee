package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned by entity methods when the requested
// status change is not in the transition table.
var ErrInvalidTransition = errors.New("invalid status transition")

// Capacity bounds for a meetup.
const (
	MinCapacity = 2
	MaxCapacity = 100
)

// Meetup is an organizer-created, capacity-bounded event.
//
// DeletedAt is a plain nullable column, not gorm.DeletedAt: soft deletion is
// enforced explicitly at every query boundary so admission control and the
// read paths share one visibility rule.
type Meetup struct {
	ID                  uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrganizerID         uuid.UUID    `gorm:"type:uuid;not null;index:idx_meetups_organizer" json:"organizer_id"`
	Title               string       `gorm:"type:varchar(100);not null" json:"title"`
	Description         string       `gorm:"type:varchar(2000)" json:"description"`
	CategoryID          uuid.UUID    `gorm:"type:uuid;not null" json:"category_id"`
	RegionCode          string       `gorm:"type:varchar(50);not null" json:"region_code"`
	LocationText        string       `gorm:"type:varchar(500);not null" json:"location_text"`
	ExperienceLevelText string       `gorm:"type:varchar(200)" json:"experience_level_text,omitempty"`
	StartAt             time.Time    `gorm:"not null" json:"start_at"`
	EndAt               time.Time    `gorm:"not null" json:"end_at"`
	RecruitEndAt        time.Time    `gorm:"not null;index:idx_meetups_recruit_end" json:"recruit_end_at"`
	Capacity            int          `gorm:"not null" json:"capacity"`
	Status              MeetupStatus `gorm:"type:varchar(20);not null" json:"status"`
	DeletedAt           *time.Time   `gorm:"index:idx_meetups_deleted" json:"deleted_at,omitempty"`
	Version             int          `gorm:"not null;default:0" json:"version"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

func (Meetup) TableName() string { return "meetups" }

// MeetupUpdate carries the optional field edits of an update request.
// Nil fields are left untouched.
type MeetupUpdate struct {
	Title               *string
	Description         *string
	LocationText        *string
	ExperienceLevelText *string
}

// HasFields reports whether any field edit is present.
func (u MeetupUpdate) HasFields() bool {
	return u.Title != nil || u.Description != nil || u.LocationText != nil || u.ExperienceLevelText != nil
}

// ApplyUpdate writes the non-nil fields of u onto the meetup.
// Eligibility (status == OPEN) is the caller's responsibility.
func (m *Meetup) ApplyUpdate(u MeetupUpdate, now time.Time) {
	if u.Title != nil {
		m.Title = *u.Title
	}
	if u.Description != nil {
		m.Description = *u.Description
	}
	if u.LocationText != nil {
		m.LocationText = *u.LocationText
	}
	if u.ExperienceLevelText != nil {
		m.ExperienceLevelText = *u.ExperienceLevelText
	}
	m.UpdatedAt = now
}

// TransitionTo moves the meetup to target if the transition table allows it.
func (m *Meetup) TransitionTo(target MeetupStatus, now time.Time) error {
	if !m.Status.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	m.Status = target
	m.UpdatedAt = now
	return nil
}

// SoftDelete marks the meetup deleted. An OPEN or CLOSED meetup is forced to
// CANCELLED at the moment of deletion; other statuses are left untouched.
func (m *Meetup) SoftDelete(now time.Time) {
	m.DeletedAt = &now
	m.UpdatedAt = now
	if m.Status == MeetupStatusOpen || m.Status == MeetupStatusClosed {
		m.Status = MeetupStatusCancelled
	}
}

// IsDeleted reports whether the meetup has been soft-deleted.
func (m *Meetup) IsDeleted() bool {
	return m.DeletedAt != nil
}

// IsOrganizer reports whether userID created this meetup.
func (m *Meetup) IsOrganizer(userID uuid.UUID) bool {
	return m.OrganizerID == userID
}

// RecruitmentOpen reports whether the recruitment deadline has not yet passed
// at the given wall-clock instant.
func (m *Meetup) RecruitmentOpen(now time.Time) bool {
	return now.Before(m.RecruitEndAt)
}

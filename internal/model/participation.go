package model

import (
	"time"

	"github.com/google/uuid"
)

// Participation is one user's request to join one meetup. At most one row
// exists per (meetup_id, user_id); the unique index is the arbiter under
// concurrent creation. Rows are never physically deleted; terminal states
// are kept for audit.
type Participation struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MeetupID  uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uk_participations_meetup_user;index:idx_participations_meetup_status" json:"meetup_id"`
	UserID    uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uk_participations_meetup_user" json:"user_id"`
	Status    ParticipationStatus `gorm:"type:varchar(20);not null;index:idx_participations_meetup_status" json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func (Participation) TableName() string { return "participations" }

// NewParticipation creates a REQUESTED participation for (meetupID, userID).
func NewParticipation(meetupID, userID uuid.UUID, now time.Time) *Participation {
	return &Participation{
		MeetupID:  meetupID,
		UserID:    userID,
		Status:    ParticipationStatusRequested,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Participation) transitionTo(target ParticipationStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	p.Status = target
	p.UpdatedAt = now
	return nil
}

// Approve moves REQUESTED → APPROVED.
func (p *Participation) Approve(now time.Time) error {
	return p.transitionTo(ParticipationStatusApproved, now)
}

// Reject moves REQUESTED → REJECTED.
func (p *Participation) Reject(now time.Time) error {
	return p.transitionTo(ParticipationStatusRejected, now)
}

// Cancel moves REQUESTED or APPROVED → CANCELLED.
func (p *Participation) Cancel(now time.Time) error {
	return p.transitionTo(ParticipationStatusCancelled, now)
}

// BelongsTo reports whether the participation targets the given meetup.
func (p *Participation) BelongsTo(meetupID uuid.UUID) bool {
	return p.MeetupID == meetupID
}

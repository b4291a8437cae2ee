package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"strive/meetuphub/internal/model"
)

// LockWait bounds how long a transaction waits for an exclusive lock before
// failing with ErrLockTimeout.
const LockWait = 3 * time.Second

// MeetupFilter narrows meetup listings. Nil/zero fields are ignored.
type MeetupFilter struct {
	RegionCode  string
	CategoryID  *uuid.UUID
	Status      *model.MeetupStatus
	OrganizerID *uuid.UUID
	StartFrom   *time.Time
	StartTo     *time.Time
	// RecruitEndBefore selects meetups whose recruitment deadline has
	// already passed; used by the sweep.
	RecruitEndBefore *time.Time
	Limit            int
	Offset           int
}

// ReservationReads are the lookups shared by the plain store and a
// transaction. Every read excludes soft-deleted meetups.
type ReservationReads interface {
	GetMeetup(ctx context.Context, id uuid.UUID) (*model.Meetup, error)
	ListMeetups(ctx context.Context, filter MeetupFilter) ([]model.Meetup, int64, error)

	GetParticipation(ctx context.Context, id uuid.UUID) (*model.Participation, error)
	FindParticipation(ctx context.Context, meetupID, userID uuid.UUID) (*model.Participation, error)
	ListParticipations(ctx context.Context, meetupID uuid.UUID) ([]model.Participation, error)
	CountParticipations(ctx context.Context, meetupID uuid.UUID, status model.ParticipationStatus) (int64, error)
}

// ReservationWrites are the mutations shared by the plain store and a
// transaction.
type ReservationWrites interface {
	CreateMeetup(ctx context.Context, m *model.Meetup) error
	// SaveMeetup persists a meetup guarded by its optimistic version
	// counter: the row is written only if the stored version still equals
	// m.Version, and the counter is bumped. A lost race returns
	// ErrVersionConflict.
	SaveMeetup(ctx context.Context, m *model.Meetup) error

	// CreateParticipation inserts a new row. A racing insert for the same
	// (meetup_id, user_id) pair surfaces as ErrDuplicate; the unique
	// constraint, not any pre-check, is the arbiter.
	CreateParticipation(ctx context.Context, p *model.Participation) error
	SaveParticipation(ctx context.Context, p *model.Participation) error
}

// ReservationTx is the view of the store inside one atomic unit of work.
// The *ForUpdate reads take exclusive locks that are held to commit, with a
// bounded wait of LockWait.
type ReservationTx interface {
	ReservationReads
	ReservationWrites

	// MeetupForUpdate locks the meetup aggregate. Blocks other capacity
	// decisions on the same meetup until this transaction finishes.
	MeetupForUpdate(ctx context.Context, id uuid.UUID) (*model.Meetup, error)
	// ParticipationForUpdate locks one participation row by id.
	ParticipationForUpdate(ctx context.Context, id uuid.UUID) (*model.Participation, error)
	// FindParticipationForUpdate locks one participation row by
	// (meetupID, userID).
	FindParticipationForUpdate(ctx context.Context, meetupID, userID uuid.UUID) (*model.Participation, error)
}

// ReservationStore is the durable storage boundary for meetups and
// participations. Atomic runs fn inside one transaction: every mutation
// commits together or not at all, and locks taken inside are released at
// commit or rollback.
type ReservationStore interface {
	ReservationReads
	ReservationWrites

	Atomic(ctx context.Context, fn func(tx ReservationTx) error) error
}

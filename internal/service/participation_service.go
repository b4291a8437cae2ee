package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"strive/meetuphub/internal/model"
	"strive/meetuphub/internal/repository"
)

// ParticipationView is one participation enriched with the requester's
// display name.
type ParticipationView struct {
	ID           uuid.UUID                 `json:"id"`
	MeetupID     uuid.UUID                 `json:"meetup_id"`
	UserID       uuid.UUID                 `json:"user_id"`
	UserNickname string                    `json:"user_nickname,omitempty"`
	Status       model.ParticipationStatus `json:"status"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// ParticipationList is the organizer's view of a meetup's participations
// with summary counts.
type ParticipationList struct {
	Participations []ParticipationView `json:"participations"`
	TotalCount     int64               `json:"total_count"`
	ApprovedCount  int64               `json:"approved_count"`
	Capacity       int                 `json:"capacity"`
}

// ParticipationService coordinates admission control: it is the only
// component that touches meetups and participations together, and the
// capacity invariant (APPROVED count <= capacity) is enforced here, always
// against a fresh count taken under the meetup's exclusive lock.
type ParticipationService interface {
	RequestParticipation(ctx context.Context, meetupID, userID uuid.UUID) (*ParticipationView, error)
	CancelParticipation(ctx context.Context, meetupID, userID uuid.UUID) error
	ApproveParticipation(ctx context.Context, meetupID, participationID, organizerID uuid.UUID) (*ParticipationView, error)
	RejectParticipation(ctx context.Context, meetupID, participationID, organizerID uuid.UUID) (*ParticipationView, error)
	ListParticipations(ctx context.Context, meetupID, organizerID uuid.UUID) (*ParticipationList, error)
}

type participationService struct {
	store     repository.ReservationStore
	directory repository.UserDirectory
	now       func() time.Time
}

func NewParticipationService(store repository.ReservationStore, directory repository.UserDirectory) ParticipationService {
	return &participationService{
		store:     store,
		directory: directory,
		now:       time.Now,
	}
}

// RequestParticipation creates a REQUESTED row for (meetupID, userID).
// The existence pre-check is an optimization only: the storage layer's
// unique constraint is the arbiter, and a racing insert's constraint
// violation is remapped to the same error the pre-check produces.
func (s *participationService) RequestParticipation(ctx context.Context, meetupID, userID uuid.UUID) (*ParticipationView, error) {
	meetup, err := s.store.GetMeetup(ctx, meetupID)
	if err != nil {
		return nil, storeErr(err)
	}
	if err := s.admissible(meetup); err != nil {
		return nil, err
	}

	_, err = s.store.FindParticipation(ctx, meetupID, userID)
	if err == nil {
		return nil, ErrDuplicateParticipation
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check existing participation: %w", err)
	}

	participation := model.NewParticipation(meetupID, userID, s.now())
	if err := s.store.CreateParticipation(ctx, participation); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateParticipation
		}
		return nil, fmt.Errorf("create participation: %w", err)
	}
	return s.toView(ctx, participation), nil
}

// CancelParticipation moves the requester's own row to CANCELLED from
// REQUESTED or APPROVED. A freed APPROVED slot is visible to the next
// approve, which always re-counts under the meetup lock.
func (s *participationService) CancelParticipation(ctx context.Context, meetupID, userID uuid.UUID) error {
	err := s.store.Atomic(ctx, func(tx repository.ReservationTx) error {
		if _, err := tx.GetMeetup(ctx, meetupID); err != nil {
			return err
		}
		participation, err := tx.FindParticipationForUpdate(ctx, meetupID, userID)
		if err != nil {
			return err
		}
		if err := participation.Cancel(s.now()); err != nil {
			return ErrParticipationInvalidState
		}
		return tx.SaveParticipation(ctx, participation)
	})
	return storeErr(err)
}

// ApproveParticipation enforces the capacity invariant. The whole decision
// runs in one unit of work under the meetup's exclusive lock, and the
// APPROVED count is re-derived inside the critical section, never cached, so
// concurrent approvals can never over-allocate.
func (s *participationService) ApproveParticipation(ctx context.Context, meetupID, participationID, organizerID uuid.UUID) (*ParticipationView, error) {
	var approved *model.Participation
	err := s.store.Atomic(ctx, func(tx repository.ReservationTx) error {
		meetup, err := tx.MeetupForUpdate(ctx, meetupID)
		if err != nil {
			return err
		}
		if !meetup.IsOrganizer(organizerID) {
			return ErrForbidden
		}
		// Deadline is evaluated against the current wall clock, not the
		// time the join request was made.
		if err := s.admissible(meetup); err != nil {
			return err
		}

		participation, err := tx.ParticipationForUpdate(ctx, participationID)
		if err != nil {
			return err
		}
		if !participation.BelongsTo(meetupID) {
			return ErrNotFound
		}
		if participation.Status != model.ParticipationStatusRequested {
			return ErrParticipationInvalidState
		}

		count, err := tx.CountParticipations(ctx, meetupID, model.ParticipationStatusApproved)
		if err != nil {
			return err
		}
		if count >= int64(meetup.Capacity) {
			return ErrCapacityExceeded
		}

		if err := participation.Approve(s.now()); err != nil {
			return ErrParticipationInvalidState
		}
		if err := tx.SaveParticipation(ctx, participation); err != nil {
			return err
		}
		approved = participation
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return s.toView(ctx, approved), nil
}

// RejectParticipation moves REQUESTED → REJECTED. No capacity contention:
// the state check happens inside the same locked read-modify-write, so a row
// already transitioned by a racing caller cannot be re-transitioned.
func (s *participationService) RejectParticipation(ctx context.Context, meetupID, participationID, organizerID uuid.UUID) (*ParticipationView, error) {
	var rejected *model.Participation
	err := s.store.Atomic(ctx, func(tx repository.ReservationTx) error {
		meetup, err := tx.GetMeetup(ctx, meetupID)
		if err != nil {
			return err
		}
		if !meetup.IsOrganizer(organizerID) {
			return ErrForbidden
		}

		participation, err := tx.ParticipationForUpdate(ctx, participationID)
		if err != nil {
			return err
		}
		if !participation.BelongsTo(meetupID) {
			return ErrNotFound
		}
		if err := participation.Reject(s.now()); err != nil {
			return ErrParticipationInvalidState
		}
		if err := tx.SaveParticipation(ctx, participation); err != nil {
			return err
		}
		rejected = participation
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return s.toView(ctx, rejected), nil
}

// ListParticipations returns all rows for a meetup with summary counts.
// Organizer only.
func (s *participationService) ListParticipations(ctx context.Context, meetupID, organizerID uuid.UUID) (*ParticipationList, error) {
	meetup, err := s.store.GetMeetup(ctx, meetupID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !meetup.IsOrganizer(organizerID) {
		return nil, ErrForbidden
	}

	participations, err := s.store.ListParticipations(ctx, meetupID)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}

	userIDs := make([]uuid.UUID, 0, len(participations))
	seen := make(map[uuid.UUID]bool, len(participations))
	for _, p := range participations {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			userIDs = append(userIDs, p.UserID)
		}
	}
	nicknames, err := s.directory.Nicknames(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve nicknames: %w", err)
	}

	views := make([]ParticipationView, 0, len(participations))
	var approvedCount int64
	for _, p := range participations {
		if p.Status == model.ParticipationStatusApproved {
			approvedCount++
		}
		views = append(views, ParticipationView{
			ID:           p.ID,
			MeetupID:     p.MeetupID,
			UserID:       p.UserID,
			UserNickname: nicknames[p.UserID],
			Status:       p.Status,
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		})
	}

	return &ParticipationList{
		Participations: views,
		TotalCount:     int64(len(participations)),
		ApprovedCount:  approvedCount,
		Capacity:       meetup.Capacity,
	}, nil
}

// admissible verifies the meetup accepts new admissions right now: status
// OPEN and the recruitment deadline not yet reached.
func (s *participationService) admissible(meetup *model.Meetup) error {
	if meetup.Status != model.MeetupStatusOpen {
		return ErrMeetupInvalidState
	}
	if !meetup.RecruitmentOpen(s.now()) {
		return ErrDeadlinePassed
	}
	return nil
}

func (s *participationService) toView(ctx context.Context, p *model.Participation) *ParticipationView {
	view := &ParticipationView{
		ID:        p.ID,
		MeetupID:  p.MeetupID,
		UserID:    p.UserID,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if nicknames, err := s.directory.Nicknames(ctx, []uuid.UUID{p.UserID}); err == nil {
		view.UserNickname = nicknames[p.UserID]
	}
	return view
}

var _ ParticipationService = (*participationService)(nil)

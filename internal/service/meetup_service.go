package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"strive/meetuphub/internal/model"
	"strive/meetuphub/internal/repository"
)

// CreateMeetupInput carries a validated meetup creation request.
type CreateMeetupInput struct {
	Title               string
	Description         string
	CategoryID          uuid.UUID
	RegionCode          string
	LocationText        string
	ExperienceLevelText string
	StartAt             time.Time
	EndAt               time.Time
	RecruitEndAt        time.Time
	Capacity            int
}

// UpdateMeetupInput carries field edits and/or a requested status transition.
type UpdateMeetupInput struct {
	Fields model.MeetupUpdate
	Status *model.MeetupStatus
}

type MeetupService interface {
	CreateMeetup(ctx context.Context, in CreateMeetupInput, organizerID uuid.UUID) (*model.Meetup, error)
	GetMeetup(ctx context.Context, meetupID uuid.UUID) (*model.Meetup, error)
	ListMeetups(ctx context.Context, filter repository.MeetupFilter) ([]model.Meetup, int64, error)
	UpdateMeetup(ctx context.Context, meetupID uuid.UUID, in UpdateMeetupInput, callerID uuid.UUID) (*model.Meetup, error)
	DeleteMeetup(ctx context.Context, meetupID uuid.UUID, callerID uuid.UUID) error
}

type meetupService struct {
	store   repository.ReservationStore
	catalog repository.CatalogRepository
	now     func() time.Time
}

func NewMeetupService(store repository.ReservationStore, catalog repository.CatalogRepository) MeetupService {
	return &meetupService{
		store:   store,
		catalog: catalog,
		now:     time.Now,
	}
}

func (s *meetupService) CreateMeetup(ctx context.Context, in CreateMeetupInput, organizerID uuid.UUID) (*model.Meetup, error) {
	// 1. Catalog references must exist (creation-time check only).
	ok, err := s.catalog.CategoryExists(ctx, in.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	ok, err = s.catalog.RegionExists(ctx, in.RegionCode)
	if err != nil {
		return nil, fmt.Errorf("check region: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	// 2. Domain rules: recruitEndAt <= startAt < endAt, capacity bounds.
	if in.RecruitEndAt.After(in.StartAt) {
		return nil, ErrValidation
	}
	if !in.StartAt.Before(in.EndAt) {
		return nil, ErrValidation
	}
	if in.Capacity < model.MinCapacity || in.Capacity > model.MaxCapacity {
		return nil, ErrValidation
	}

	now := s.now()
	meetup := &model.Meetup{
		OrganizerID:         organizerID,
		Title:               in.Title,
		Description:         in.Description,
		CategoryID:          in.CategoryID,
		RegionCode:          in.RegionCode,
		LocationText:        in.LocationText,
		ExperienceLevelText: in.ExperienceLevelText,
		StartAt:             in.StartAt,
		EndAt:               in.EndAt,
		RecruitEndAt:        in.RecruitEndAt,
		Capacity:            in.Capacity,
		Status:              model.MeetupStatusDraft,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.store.CreateMeetup(ctx, meetup); err != nil {
		return nil, fmt.Errorf("create meetup: %w", err)
	}
	return meetup, nil
}

func (s *meetupService) GetMeetup(ctx context.Context, meetupID uuid.UUID) (*model.Meetup, error) {
	meetup, err := s.store.GetMeetup(ctx, meetupID)
	if err != nil {
		return nil, storeErr(err)
	}
	return meetup, nil
}

func (s *meetupService) ListMeetups(ctx context.Context, filter repository.MeetupFilter) ([]model.Meetup, int64, error) {
	meetups, total, err := s.store.ListMeetups(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list meetups: %w", err)
	}
	return meetups, total, nil
}

func (s *meetupService) UpdateMeetup(ctx context.Context, meetupID uuid.UUID, in UpdateMeetupInput, callerID uuid.UUID) (*model.Meetup, error) {
	meetup, err := s.store.GetMeetup(ctx, meetupID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !meetup.IsOrganizer(callerID) {
		return nil, ErrForbidden
	}

	hasFields := in.Fields.HasFields()
	hasTransition := in.Status != nil && *in.Status != meetup.Status
	if !hasFields && !hasTransition {
		return nil, ErrValidation
	}
	if err := validateRequiredText(in.Fields.Title); err != nil {
		return nil, err
	}
	if err := validateRequiredText(in.Fields.LocationText); err != nil {
		return nil, err
	}

	// The transition is validated against the current status; field-edit
	// eligibility is then validated against the resulting status.
	effective := meetup.Status
	if hasTransition {
		if !meetup.Status.CanTransitionTo(*in.Status) {
			return nil, ErrMeetupInvalidState
		}
		effective = *in.Status
	}
	if hasFields && effective != model.MeetupStatusOpen {
		return nil, ErrMeetupInvalidState
	}

	now := s.now()
	if hasTransition {
		if err := meetup.TransitionTo(*in.Status, now); err != nil {
			return nil, ErrMeetupInvalidState
		}
	}
	if hasFields {
		meetup.ApplyUpdate(in.Fields, now)
	}

	if err := s.store.SaveMeetup(ctx, meetup); err != nil {
		return nil, storeErr(err)
	}
	return meetup, nil
}

func (s *meetupService) DeleteMeetup(ctx context.Context, meetupID uuid.UUID, callerID uuid.UUID) error {
	meetup, err := s.store.GetMeetup(ctx, meetupID)
	if err != nil {
		return storeErr(err)
	}
	if !meetup.IsOrganizer(callerID) {
		return ErrForbidden
	}

	meetup.SoftDelete(s.now())
	if err := s.store.SaveMeetup(ctx, meetup); err != nil {
		return storeErr(err)
	}
	return nil
}

// validateRequiredText rejects explicit blanking of a required field.
func validateRequiredText(value *string) error {
	if value != nil && strings.TrimSpace(*value) == "" {
		return ErrValidation
	}
	return nil
}

// storeErr maps repository sentinels to their service counterparts; anything
// else passes through unchanged.
func storeErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicateParticipation
	case errors.Is(err, repository.ErrLockTimeout):
		return ErrLockTimeout
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrEditConflict
	}
	return err
}

var _ MeetupService = (*meetupService)(nil)

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"strive/meetuphub/internal/model"
	"strive/meetuphub/internal/repository"
)

// fakeCatalog answers reference checks from fixed sets.
type fakeCatalog struct {
	categories map[uuid.UUID]bool
	regions    map[string]bool
}

func (c fakeCatalog) CategoryExists(_ context.Context, id uuid.UUID) (bool, error) {
	return c.categories[id], nil
}

func (c fakeCatalog) RegionExists(_ context.Context, code string) (bool, error) {
	return c.regions[code], nil
}

func newMeetupFixture(t *testing.T) (*meetupService, repository.ReservationStore, uuid.UUID) {
	t.Helper()
	store := repository.NewMemoryReservationStore()
	categoryID := uuid.New()
	svc := &meetupService{
		store: store,
		catalog: fakeCatalog{
			categories: map[uuid.UUID]bool{categoryID: true},
			regions:    map[string]bool{"SEOUL_MAPO": true},
		},
		now: func() time.Time { return fixedNow },
	}
	return svc, store, categoryID
}

func validCreateInput(categoryID uuid.UUID) CreateMeetupInput {
	return CreateMeetupInput{
		Title:        "Saturday futsal",
		Description:  "casual 5v5",
		CategoryID:   categoryID,
		RegionCode:   "SEOUL_MAPO",
		LocationText: "Mapo indoor court",
		StartAt:      fixedNow.Add(7 * 24 * time.Hour),
		EndAt:        fixedNow.Add(7*24*time.Hour + 2*time.Hour),
		RecruitEndAt: fixedNow.Add(6 * 24 * time.Hour),
		Capacity:     10,
	}
}

func TestCreateMeetup(t *testing.T) {
	svc, _, categoryID := newMeetupFixture(t)
	organizerID := uuid.New()

	meetup, err := svc.CreateMeetup(context.Background(), validCreateInput(categoryID), organizerID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if meetup.Status != model.MeetupStatusDraft {
		t.Fatalf("status = %s, want DRAFT", meetup.Status)
	}
	if meetup.OrganizerID != organizerID {
		t.Fatalf("organizer = %s, want %s", meetup.OrganizerID, organizerID)
	}
	if meetup.ID == uuid.Nil {
		t.Fatal("id not assigned")
	}
}

func TestCreateMeetupValidation(t *testing.T) {
	svc, _, categoryID := newMeetupFixture(t)
	ctx := context.Background()
	organizerID := uuid.New()

	tests := []struct {
		name    string
		mutate  func(*CreateMeetupInput)
		wantErr error
	}{
		{
			name:    "unknown category",
			mutate:  func(in *CreateMeetupInput) { in.CategoryID = uuid.New() },
			wantErr: ErrNotFound,
		},
		{
			name:    "unknown region",
			mutate:  func(in *CreateMeetupInput) { in.RegionCode = "NOWHERE" },
			wantErr: ErrNotFound,
		},
		{
			name:    "recruit deadline after start",
			mutate:  func(in *CreateMeetupInput) { in.RecruitEndAt = in.StartAt.Add(time.Minute) },
			wantErr: ErrValidation,
		},
		{
			name:    "end not after start",
			mutate:  func(in *CreateMeetupInput) { in.EndAt = in.StartAt },
			wantErr: ErrValidation,
		},
		{
			name:    "capacity below minimum",
			mutate:  func(in *CreateMeetupInput) { in.Capacity = 1 },
			wantErr: ErrValidation,
		},
		{
			name:    "capacity above maximum",
			mutate:  func(in *CreateMeetupInput) { in.Capacity = 101 },
			wantErr: ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateInput(categoryID)
			tt.mutate(&in)
			if _, err := svc.CreateMeetup(ctx, in, organizerID); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// recruitEndAt == startAt is the boundary and is allowed.
	in := validCreateInput(categoryID)
	in.RecruitEndAt = in.StartAt
	if _, err := svc.CreateMeetup(ctx, in, organizerID); err != nil {
		t.Fatalf("recruitEndAt == startAt: %v", err)
	}
}

func createDraft(t *testing.T, svc *meetupService, categoryID, organizerID uuid.UUID) *model.Meetup {
	t.Helper()
	meetup, err := svc.CreateMeetup(context.Background(), validCreateInput(categoryID), organizerID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return meetup
}

func TestUpdateMeetupTransitions(t *testing.T) {
	svc, _, categoryID := newMeetupFixture(t)
	ctx := context.Background()
	organizerID := uuid.New()
	meetup := createDraft(t, svc, categoryID, organizerID)

	open := model.MeetupStatusOpen
	updated, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Status: &open}, organizerID)
	if err != nil {
		t.Fatalf("DRAFT -> OPEN: %v", err)
	}
	if updated.Status != model.MeetupStatusOpen {
		t.Fatalf("status = %s, want OPEN", updated.Status)
	}

	completed := model.MeetupStatusCompleted
	if _, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Status: &completed}, organizerID); !errors.Is(err, ErrMeetupInvalidState) {
		t.Fatalf("OPEN -> COMPLETED: err = %v, want ErrMeetupInvalidState", err)
	}
}

func TestUpdateMeetupFieldEdits(t *testing.T) {
	svc, _, categoryID := newMeetupFixture(t)
	ctx := context.Background()
	organizerID := uuid.New()
	meetup := createDraft(t, svc, categoryID, organizerID)

	title := "Sunday futsal"

	// Field edits require the OPEN status.
	if _, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Fields: model.MeetupUpdate{Title: &title}}, organizerID); !errors.Is(err, ErrMeetupInvalidState) {
		t.Fatalf("edit while DRAFT: err = %v, want ErrMeetupInvalidState", err)
	}

	// A combined transition + edit is allowed when the resulting status is
	// OPEN.
	open := model.MeetupStatusOpen
	updated, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Fields: model.MeetupUpdate{Title: &title}, Status: &open}, organizerID)
	if err != nil {
		t.Fatalf("open + edit: %v", err)
	}
	if updated.Title != title || updated.Status != model.MeetupStatusOpen {
		t.Fatalf("title = %q, status = %s", updated.Title, updated.Status)
	}

	// Closing and editing in one request fails: eligibility is judged
	// against the resulting status.
	closed := model.MeetupStatusClosed
	other := "Monday futsal"
	if _, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Fields: model.MeetupUpdate{Title: &other}, Status: &closed}, organizerID); !errors.Is(err, ErrMeetupInvalidState) {
		t.Fatalf("close + edit: err = %v, want ErrMeetupInvalidState", err)
	}
}

func TestUpdateMeetupValidation(t *testing.T) {
	svc, _, categoryID := newMeetupFixture(t)
	ctx := context.Background()
	organizerID := uuid.New()
	meetup := createDraft(t, svc, categoryID, organizerID)

	// A request carrying neither fields nor a transition is a no-op.
	if _, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{}, organizerID); !errors.Is(err, ErrValidation) {
		t.Fatalf("no-op update: err = %v, want ErrValidation", err)
	}

	// Restating the current status is also a no-op.
	draft := model.MeetupStatusDraft
	if _, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Status: &draft}, organizerID); !errors.Is(err, ErrValidation) {
		t.Fatalf("same-status update: err = %v, want ErrValidation", err)
	}

	// Required text cannot be blanked.
	open := model.MeetupStatusOpen
	if _, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Status: &open}, organizerID); err != nil {
		t.Fatalf("open: %v", err)
	}
	blank := "   "
	if _, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Fields: model.MeetupUpdate{Title: &blank}}, organizerID); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank title: err = %v, want ErrValidation", err)
	}
	if _, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Fields: model.MeetupUpdate{LocationText: &blank}}, organizerID); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank location: err = %v, want ErrValidation", err)
	}

	if _, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Status: &open}, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-organizer: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.UpdateMeetup(ctx, uuid.New(), UpdateMeetupInput{Status: &open}, organizerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown meetup: err = %v, want ErrNotFound", err)
	}
}

func TestUpdateMeetupEditConflict(t *testing.T) {
	svc, store, categoryID := newMeetupFixture(t)
	ctx := context.Background()
	organizerID := uuid.New()
	meetup := createDraft(t, svc, categoryID, organizerID)

	open := model.MeetupStatusOpen
	if _, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Status: &open}, organizerID); err != nil {
		t.Fatalf("open: %v", err)
	}

	// A writer holding a stale version loses the race and is told to
	// reload.
	stale, err := store.GetMeetup(ctx, meetup.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	title := "Sunday futsal"
	if _, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Fields: model.MeetupUpdate{Title: &title}}, organizerID); err != nil {
		t.Fatalf("first edit: %v", err)
	}
	stale.Title = "Monday futsal"
	if err := store.SaveMeetup(ctx, stale); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("stale save: err = %v, want ErrVersionConflict", err)
	}
	if storeErr(repository.ErrVersionConflict) != ErrEditConflict {
		t.Fatal("version conflict must surface as ErrEditConflict")
	}
}

func TestDeleteMeetup(t *testing.T) {
	svc, store, categoryID := newMeetupFixture(t)
	ctx := context.Background()
	organizerID := uuid.New()
	meetup := createDraft(t, svc, categoryID, organizerID)

	open := model.MeetupStatusOpen
	if _, err := svc.UpdateMeetup(ctx, meetup.ID, UpdateMeetupInput{Status: &open}, organizerID); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := svc.DeleteMeetup(ctx, meetup.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-organizer delete: err = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteMeetup(ctx, meetup.ID, organizerID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.GetMeetup(ctx, meetup.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteMeetup(ctx, meetup.ID, organizerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: err = %v, want ErrNotFound", err)
	}

	meetups, total, err := store.ListMeetups(ctx, repository.MeetupFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(meetups) != 0 || total != 0 {
		t.Fatalf("deleted meetup listed: len = %d, total = %d", len(meetups), total)
	}
}

func TestListMeetupsFilters(t *testing.T) {
	svc, _, categoryID := newMeetupFixture(t)
	ctx := context.Background()
	organizerID := uuid.New()

	first := createDraft(t, svc, categoryID, organizerID)
	in := validCreateInput(categoryID)
	in.StartAt = in.StartAt.Add(24 * time.Hour)
	in.EndAt = in.EndAt.Add(24 * time.Hour)
	if _, err := svc.CreateMeetup(ctx, in, uuid.New()); err != nil {
		t.Fatalf("create second: %v", err)
	}

	meetups, total, err := svc.ListMeetups(ctx, repository.MeetupFilter{OrganizerID: &organizerID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(meetups) != 1 || meetups[0].ID != first.ID {
		t.Fatalf("organizer filter: total = %d, len = %d", total, len(meetups))
	}

	meetups, total, err = svc.ListMeetups(ctx, repository.MeetupFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(meetups) != 1 {
		t.Fatalf("limit: total = %d, len = %d", total, len(meetups))
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"strive/meetuphub/internal/model"
	"strive/meetuphub/internal/repository"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newParticipationFixture(t *testing.T, capacity int) (*participationService, repository.ReservationStore, *model.Meetup) {
	t.Helper()
	store := repository.NewMemoryReservationStore()
	meetup := newOpenMeetup(t, store, capacity)
	svc := &participationService{
		store:     store,
		directory: repository.NewMemoryUserDirectory(),
		now:       func() time.Time { return fixedNow },
	}
	return svc, store, meetup
}

func newOpenMeetup(t *testing.T, store repository.ReservationStore, capacity int) *model.Meetup {
	t.Helper()
	m := &model.Meetup{
		OrganizerID:  uuid.New(),
		Title:        "Saturday futsal",
		CategoryID:   uuid.New(),
		RegionCode:   "SEOUL_MAPO",
		LocationText: "Mapo indoor court",
		StartAt:      fixedNow.Add(7 * 24 * time.Hour),
		EndAt:        fixedNow.Add(7*24*time.Hour + 2*time.Hour),
		RecruitEndAt: fixedNow.Add(6 * 24 * time.Hour),
		Capacity:     capacity,
		Status:       model.MeetupStatusOpen,
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
	if err := store.CreateMeetup(context.Background(), m); err != nil {
		t.Fatalf("seed meetup: %v", err)
	}
	return m
}

func seedRequested(t *testing.T, store repository.ReservationStore, meetupID uuid.UUID) *model.Participation {
	t.Helper()
	p := model.NewParticipation(meetupID, uuid.New(), fixedNow)
	if err := store.CreateParticipation(context.Background(), p); err != nil {
		t.Fatalf("seed participation: %v", err)
	}
	return p
}

func TestRequestParticipation(t *testing.T) {
	svc, _, meetup := newParticipationFixture(t, 10)
	ctx := context.Background()
	userID := uuid.New()

	view, err := svc.RequestParticipation(ctx, meetup.ID, userID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if view.Status != model.ParticipationStatusRequested {
		t.Fatalf("status = %s, want REQUESTED", view.Status)
	}

	if _, err := svc.RequestParticipation(ctx, meetup.ID, userID); !errors.Is(err, ErrDuplicateParticipation) {
		t.Fatalf("second request: err = %v, want ErrDuplicateParticipation", err)
	}
}

func TestRequestParticipationConcurrentSameUser(t *testing.T) {
	svc, _, meetup := newParticipationFixture(t, 10)
	ctx := context.Background()
	userID := uuid.New()

	const attempts = 30
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RequestParticipation(ctx, meetup.ID, userID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, duplicates int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrDuplicateParticipation):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || duplicates != attempts-1 {
		t.Fatalf("successes = %d, duplicates = %d, want 1 and %d", successes, duplicates, attempts-1)
	}
}

func TestRequestParticipationGuards(t *testing.T) {
	svc, store, meetup := newParticipationFixture(t, 10)
	ctx := context.Background()

	if _, err := svc.RequestParticipation(ctx, uuid.New(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown meetup: err = %v, want ErrNotFound", err)
	}

	// DRAFT meetup accepts no admissions.
	draft := newOpenMeetup(t, store, 10)
	draft.Status = model.MeetupStatusDraft
	if err := store.SaveMeetup(ctx, draft); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.RequestParticipation(ctx, draft.ID, uuid.New()); !errors.Is(err, ErrMeetupInvalidState) {
		t.Fatalf("draft meetup: err = %v, want ErrMeetupInvalidState", err)
	}

	// The deadline instant itself already rejects.
	late := &participationService{store: store, directory: repository.NewMemoryUserDirectory(), now: func() time.Time { return meetup.RecruitEndAt }}
	if _, err := late.RequestParticipation(ctx, meetup.ID, uuid.New()); !errors.Is(err, ErrDeadlinePassed) {
		t.Fatalf("at deadline: err = %v, want ErrDeadlinePassed", err)
	}
}

func TestApproveParticipation(t *testing.T) {
	svc, store, meetup := newParticipationFixture(t, 10)
	ctx := context.Background()
	p := seedRequested(t, store, meetup.ID)

	view, err := svc.ApproveParticipation(ctx, meetup.ID, p.ID, meetup.OrganizerID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if view.Status != model.ParticipationStatusApproved {
		t.Fatalf("status = %s, want APPROVED", view.Status)
	}

	// Already decided rows cannot be approved again.
	if _, err := svc.ApproveParticipation(ctx, meetup.ID, p.ID, meetup.OrganizerID); !errors.Is(err, ErrParticipationInvalidState) {
		t.Fatalf("re-approve: err = %v, want ErrParticipationInvalidState", err)
	}
}

func TestApproveParticipationCapacityStorm(t *testing.T) {
	const capacity = 10
	const requests = 100

	svc, store, meetup := newParticipationFixture(t, capacity)
	ctx := context.Background()

	ids := make([]uuid.UUID, 0, requests)
	for i := 0; i < requests; i++ {
		ids = append(ids, seedRequested(t, store, meetup.ID).ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, requests)
	for _, id := range ids {
		wg.Add(1)
		go func(participationID uuid.UUID) {
			defer wg.Done()
			_, err := svc.ApproveParticipation(ctx, meetup.ID, participationID, meetup.OrganizerID)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var approved, exceeded int
	for err := range errs {
		switch {
		case err == nil:
			approved++
		case errors.Is(err, ErrCapacityExceeded):
			exceeded++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if approved != capacity || exceeded != requests-capacity {
		t.Fatalf("approved = %d, exceeded = %d, want %d and %d", approved, exceeded, capacity, requests-capacity)
	}

	count, err := store.CountParticipations(ctx, meetup.ID, model.ParticipationStatusApproved)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != capacity {
		t.Fatalf("committed APPROVED count = %d, want %d", count, capacity)
	}
}

func TestApproveParticipationGuards(t *testing.T) {
	svc, store, meetup := newParticipationFixture(t, 10)
	ctx := context.Background()
	p := seedRequested(t, store, meetup.ID)

	if _, err := svc.ApproveParticipation(ctx, meetup.ID, p.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-organizer: err = %v, want ErrForbidden", err)
	}

	// The participation must belong to the addressed meetup.
	other := newOpenMeetup(t, store, 10)
	if _, err := svc.ApproveParticipation(ctx, other.ID, p.ID, other.OrganizerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wrong meetup: err = %v, want ErrNotFound", err)
	}

	// Deadline is checked at approval time, not request time.
	late := &participationService{store: store, directory: repository.NewMemoryUserDirectory(), now: func() time.Time { return meetup.RecruitEndAt.Add(time.Hour) }}
	if _, err := late.ApproveParticipation(ctx, meetup.ID, p.ID, meetup.OrganizerID); !errors.Is(err, ErrDeadlinePassed) {
		t.Fatalf("after deadline: err = %v, want ErrDeadlinePassed", err)
	}

	meetup.Status = model.MeetupStatusClosed
	if err := store.SaveMeetup(ctx, meetup); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.ApproveParticipation(ctx, meetup.ID, p.ID, meetup.OrganizerID); !errors.Is(err, ErrMeetupInvalidState) {
		t.Fatalf("closed meetup: err = %v, want ErrMeetupInvalidState", err)
	}
}

func TestCancelFreesApprovedSlot(t *testing.T) {
	svc, store, meetup := newParticipationFixture(t, 1)
	ctx := context.Background()

	a := seedRequested(t, store, meetup.ID)
	b := seedRequested(t, store, meetup.ID)

	if _, err := svc.ApproveParticipation(ctx, meetup.ID, a.ID, meetup.OrganizerID); err != nil {
		t.Fatalf("approve a: %v", err)
	}
	if _, err := svc.ApproveParticipation(ctx, meetup.ID, b.ID, meetup.OrganizerID); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("approve b at capacity: err = %v, want ErrCapacityExceeded", err)
	}

	if err := svc.CancelParticipation(ctx, meetup.ID, a.UserID); err != nil {
		t.Fatalf("cancel a: %v", err)
	}

	// The freed slot is visible to the next approval.
	if _, err := svc.ApproveParticipation(ctx, meetup.ID, b.ID, meetup.OrganizerID); err != nil {
		t.Fatalf("approve b after cancel: %v", err)
	}
}

func TestCancelParticipationGuards(t *testing.T) {
	svc, store, meetup := newParticipationFixture(t, 10)
	ctx := context.Background()

	if err := svc.CancelParticipation(ctx, meetup.ID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no participation: err = %v, want ErrNotFound", err)
	}

	p := seedRequested(t, store, meetup.ID)
	if err := svc.CancelParticipation(ctx, meetup.ID, p.UserID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.CancelParticipation(ctx, meetup.ID, p.UserID); !errors.Is(err, ErrParticipationInvalidState) {
		t.Fatalf("cancel of CANCELLED: err = %v, want ErrParticipationInvalidState", err)
	}
}

func TestRejectParticipation(t *testing.T) {
	svc, store, meetup := newParticipationFixture(t, 10)
	ctx := context.Background()
	p := seedRequested(t, store, meetup.ID)

	view, err := svc.RejectParticipation(ctx, meetup.ID, p.ID, meetup.OrganizerID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if view.Status != model.ParticipationStatusRejected {
		t.Fatalf("status = %s, want REJECTED", view.Status)
	}

	if _, err := svc.RejectParticipation(ctx, meetup.ID, p.ID, meetup.OrganizerID); !errors.Is(err, ErrParticipationInvalidState) {
		t.Fatalf("re-reject: err = %v, want ErrParticipationInvalidState", err)
	}
	if _, err := svc.RejectParticipation(ctx, meetup.ID, p.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-organizer: err = %v, want ErrForbidden", err)
	}
}

func TestSoftDeletedMeetupInvisibleToAdmission(t *testing.T) {
	svc, store, meetup := newParticipationFixture(t, 10)
	ctx := context.Background()
	p := seedRequested(t, store, meetup.ID)

	meetup.SoftDelete(fixedNow)
	if err := store.SaveMeetup(ctx, meetup); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := svc.RequestParticipation(ctx, meetup.ID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("request: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.ApproveParticipation(ctx, meetup.ID, p.ID, meetup.OrganizerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("approve: err = %v, want ErrNotFound", err)
	}
	if err := svc.CancelParticipation(ctx, meetup.ID, p.UserID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cancel: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.ListParticipations(ctx, meetup.ID, meetup.OrganizerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("list: err = %v, want ErrNotFound", err)
	}
}

func TestListParticipations(t *testing.T) {
	store := repository.NewMemoryReservationStore()
	directory := repository.NewMemoryUserDirectory()
	svc := &participationService{store: store, directory: directory, now: func() time.Time { return fixedNow }}
	meetup := newOpenMeetup(t, store, 5)
	ctx := context.Background()

	a := seedRequested(t, store, meetup.ID)
	b := seedRequested(t, store, meetup.ID)
	directory.SetNickname(a.UserID, "alex")
	directory.SetNickname(b.UserID, "sam")

	if _, err := svc.ApproveParticipation(ctx, meetup.ID, a.ID, meetup.OrganizerID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := svc.ListParticipations(ctx, meetup.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-organizer list: err = %v, want ErrForbidden", err)
	}

	list, err := svc.ListParticipations(ctx, meetup.ID, meetup.OrganizerID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.TotalCount != 2 || list.ApprovedCount != 1 || list.Capacity != 5 {
		t.Fatalf("counts = %d/%d/%d, want 2/1/5", list.TotalCount, list.ApprovedCount, list.Capacity)
	}
	names := map[uuid.UUID]string{}
	for _, v := range list.Participations {
		names[v.UserID] = v.UserNickname
	}
	if names[a.UserID] != "alex" || names[b.UserID] != "sam" {
		t.Fatalf("nicknames = %v", names)
	}
}

func TestApproveLockTimeoutSurfaces(t *testing.T) {
	store := repository.NewMemoryReservationStoreWithLockWait(50 * time.Millisecond)
	svc := &participationService{store: store, directory: repository.NewMemoryUserDirectory(), now: func() time.Time { return fixedNow }}
	meetup := newOpenMeetup(t, store, 10)
	ctx := context.Background()
	p := seedRequested(t, store, meetup.ID)

	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Atomic(ctx, func(tx repository.ReservationTx) error {
			if _, err := tx.MeetupForUpdate(ctx, meetup.ID); err != nil {
				return err
			}
			close(holding)
			<-release
			return nil
		})
	}()

	<-holding
	if _, err := svc.ApproveParticipation(ctx, meetup.ID, p.ID, meetup.OrganizerID); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("approve under held lock: err = %v, want ErrLockTimeout", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("lock holder: %v", err)
	}

	// The timed-out approval left no partial state behind.
	row, err := store.GetParticipation(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.Status != model.ParticipationStatusRequested {
		t.Fatalf("status = %s, want REQUESTED", row.Status)
	}
}

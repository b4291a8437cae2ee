package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"strive/meetuphub/internal/model"
)

// memoryReservationStore is a map-backed ReservationStore honoring the same
// locking and uniqueness contract as the postgres implementation: exclusive
// per-aggregate and per-row locks with a bounded wait, a unique
// (meetup_id, user_id) index enforced at insert, and all-or-nothing
// transactions. Used for local development and by the concurrency tests.
type memoryReservationStore struct {
	mu             sync.RWMutex
	meetups        map[uuid.UUID]*model.Meetup
	participations map[uuid.UUID]*model.Participation
	byMeetupUser   map[meetupUserKey]uuid.UUID
	locks          *keyedLocks
	lockWait       time.Duration
}

type meetupUserKey struct {
	meetupID uuid.UUID
	userID   uuid.UUID
}

func NewMemoryReservationStore() ReservationStore {
	return NewMemoryReservationStoreWithLockWait(LockWait)
}

// NewMemoryReservationStoreWithLockWait overrides the bounded lock wait so
// contention tests don't sit out the full production timeout.
func NewMemoryReservationStoreWithLockWait(wait time.Duration) ReservationStore {
	return &memoryReservationStore{
		meetups:        make(map[uuid.UUID]*model.Meetup),
		participations: make(map[uuid.UUID]*model.Participation),
		byMeetupUser:   make(map[meetupUserKey]uuid.UUID),
		locks:          newKeyedLocks(),
		lockWait:       wait,
	}
}

// keyedLocks hands out one exclusive slot per key. Acquisition waits at most
// the given duration, then fails with ErrLockTimeout.
type keyedLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{slots: make(map[string]chan struct{})}
}

func (l *keyedLocks) acquire(ctx context.Context, key string, wait time.Duration) error {
	l.mu.Lock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	l.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *keyedLocks) release(key string) {
	l.mu.Lock()
	ch := l.slots[key]
	l.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func copyMeetup(m *model.Meetup) *model.Meetup {
	c := *m
	if m.DeletedAt != nil {
		t := *m.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

func copyParticipation(p *model.Participation) *model.Participation {
	c := *p
	return &c
}

func (s *memoryReservationStore) GetMeetup(_ context.Context, id uuid.UUID) (*model.Meetup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getMeetupLocked(id)
}

func (s *memoryReservationStore) getMeetupLocked(id uuid.UUID) (*model.Meetup, error) {
	m, ok := s.meetups[id]
	if !ok || m.IsDeleted() {
		return nil, ErrNotFound
	}
	return copyMeetup(m), nil
}

func (s *memoryReservationStore) ListMeetups(_ context.Context, filter MeetupFilter) ([]model.Meetup, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []model.Meetup
	for _, m := range s.meetups {
		if m.IsDeleted() {
			continue
		}
		if filter.RegionCode != "" && m.RegionCode != filter.RegionCode {
			continue
		}
		if filter.CategoryID != nil && m.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.OrganizerID != nil && m.OrganizerID != *filter.OrganizerID {
			continue
		}
		if filter.StartFrom != nil && m.StartAt.Before(*filter.StartFrom) {
			continue
		}
		if filter.StartTo != nil && m.StartAt.After(*filter.StartTo) {
			continue
		}
		if filter.RecruitEndBefore != nil && m.RecruitEndAt.After(*filter.RecruitEndBefore) {
			continue
		}
		matched = append(matched, *copyMeetup(m))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].StartAt.Equal(matched[j].StartAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].StartAt.Before(matched[j].StartAt)
	})

	total := int64(len(matched))
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (s *memoryReservationStore) GetParticipation(_ context.Context, id uuid.UUID) (*model.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyParticipation(p), nil
}

func (s *memoryReservationStore) FindParticipation(_ context.Context, meetupID, userID uuid.UUID) (*model.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findParticipationLocked(meetupID, userID)
}

func (s *memoryReservationStore) findParticipationLocked(meetupID, userID uuid.UUID) (*model.Participation, error) {
	id, ok := s.byMeetupUser[meetupUserKey{meetupID, userID}]
	if !ok {
		return nil, ErrNotFound
	}
	p, ok := s.participations[id]
	if !ok {
		// Claimed by an uncommitted transaction; not yet visible.
		return nil, ErrNotFound
	}
	return copyParticipation(p), nil
}

func (s *memoryReservationStore) ListParticipations(_ context.Context, meetupID uuid.UUID) ([]model.Participation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Participation
	for _, p := range s.participations {
		if p.MeetupID == meetupID {
			result = append(result, *copyParticipation(p))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *memoryReservationStore) CountParticipations(_ context.Context, meetupID uuid.UUID, status model.ParticipationStatus) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, p := range s.participations {
		if p.MeetupID == meetupID && p.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *memoryReservationStore) CreateMeetup(_ context.Context, m *model.Meetup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	s.meetups[m.ID] = copyMeetup(m)
	return nil
}

func (s *memoryReservationStore) SaveMeetup(_ context.Context, m *model.Meetup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveMeetupLocked(m)
}

func (s *memoryReservationStore) saveMeetupLocked(m *model.Meetup) error {
	current, ok := s.meetups[m.ID]
	if !ok || current.Version != m.Version {
		return ErrVersionConflict
	}
	stored := copyMeetup(m)
	stored.Version++
	s.meetups[m.ID] = stored
	m.Version++
	return nil
}

func (s *memoryReservationStore) CreateParticipation(_ context.Context, p *model.Participation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := meetupUserKey{p.MeetupID, p.UserID}
	if _, exists := s.byMeetupUser[key]; exists {
		return ErrDuplicate
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.byMeetupUser[key] = p.ID
	s.participations[p.ID] = copyParticipation(p)
	return nil
}

func (s *memoryReservationStore) SaveParticipation(_ context.Context, p *model.Participation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveParticipationLocked(p)
}

func (s *memoryReservationStore) saveParticipationLocked(p *model.Participation) error {
	if _, ok := s.participations[p.ID]; !ok {
		return ErrNotFound
	}
	s.participations[p.ID] = copyParticipation(p)
	return nil
}

func (s *memoryReservationStore) Atomic(ctx context.Context, fn func(tx ReservationTx) error) error {
	tx := &memoryReservationTx{store: s, ctx: ctx}
	defer tx.releaseLocks()

	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return tx.commit()
}

// memoryReservationTx stages writes and applies them in one step at commit,
// so concurrent readers never observe a partial unit of work. Unique-index
// claims are taken at insert time (the constraint is the arbiter) and
// surrendered on rollback. Locks are held until after commit or rollback.
type memoryReservationTx struct {
	store *memoryReservationStore
	ctx   context.Context

	heldLocks     []string
	stagedMeetups []*model.Meetup
	stagedParts   []*model.Participation
	createdParts  []*model.Participation
	claims        []meetupUserKey
}

func (t *memoryReservationTx) lock(key string) error {
	if err := t.store.locks.acquire(t.ctx, key, t.store.lockWait); err != nil {
		return err
	}
	t.heldLocks = append(t.heldLocks, key)
	return nil
}

func (t *memoryReservationTx) releaseLocks() {
	for i := len(t.heldLocks) - 1; i >= 0; i-- {
		t.store.locks.release(t.heldLocks[i])
	}
	t.heldLocks = nil
}

func (t *memoryReservationTx) rollback() {
	t.store.mu.Lock()
	for _, key := range t.claims {
		delete(t.store.byMeetupUser, key)
	}
	t.store.mu.Unlock()
	t.stagedMeetups = nil
	t.stagedParts = nil
	t.createdParts = nil
	t.claims = nil
}

func (t *memoryReservationTx) commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	// Validate optimistic versions before touching anything.
	for _, m := range t.stagedMeetups {
		current, ok := t.store.meetups[m.ID]
		if !ok || current.Version != m.Version {
			for _, key := range t.claims {
				delete(t.store.byMeetupUser, key)
			}
			return ErrVersionConflict
		}
	}

	for _, m := range t.stagedMeetups {
		if err := t.store.saveMeetupLocked(m); err != nil {
			return err
		}
	}
	for _, p := range t.createdParts {
		t.store.participations[p.ID] = copyParticipation(p)
	}
	for _, p := range t.stagedParts {
		if err := t.store.saveParticipationLocked(p); err != nil {
			return err
		}
	}
	return nil
}

func (t *memoryReservationTx) MeetupForUpdate(_ context.Context, id uuid.UUID) (*model.Meetup, error) {
	if err := t.lock("meetup:" + id.String()); err != nil {
		return nil, err
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.getMeetupLocked(id)
}

func (t *memoryReservationTx) ParticipationForUpdate(_ context.Context, id uuid.UUID) (*model.Participation, error) {
	if err := t.lock("participation:" + id.String()); err != nil {
		return nil, err
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	p, ok := t.store.participations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyParticipation(p), nil
}

func (t *memoryReservationTx) FindParticipationForUpdate(_ context.Context, meetupID, userID uuid.UUID) (*model.Participation, error) {
	t.store.mu.RLock()
	id, ok := t.store.byMeetupUser[meetupUserKey{meetupID, userID}]
	t.store.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	// Re-read after the lock is held; the row may have moved meanwhile.
	return t.ParticipationForUpdate(t.ctx, id)
}

func (t *memoryReservationTx) GetMeetup(ctx context.Context, id uuid.UUID) (*model.Meetup, error) {
	return t.store.GetMeetup(ctx, id)
}

func (t *memoryReservationTx) ListMeetups(ctx context.Context, filter MeetupFilter) ([]model.Meetup, int64, error) {
	return t.store.ListMeetups(ctx, filter)
}

func (t *memoryReservationTx) GetParticipation(ctx context.Context, id uuid.UUID) (*model.Participation, error) {
	return t.store.GetParticipation(ctx, id)
}

func (t *memoryReservationTx) FindParticipation(ctx context.Context, meetupID, userID uuid.UUID) (*model.Participation, error) {
	return t.store.FindParticipation(ctx, meetupID, userID)
}

func (t *memoryReservationTx) ListParticipations(ctx context.Context, meetupID uuid.UUID) ([]model.Participation, error) {
	return t.store.ListParticipations(ctx, meetupID)
}

func (t *memoryReservationTx) CountParticipations(ctx context.Context, meetupID uuid.UUID, status model.ParticipationStatus) (int64, error) {
	return t.store.CountParticipations(ctx, meetupID, status)
}

func (t *memoryReservationTx) CreateMeetup(_ context.Context, m *model.Meetup) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	t.store.meetups[m.ID] = copyMeetup(m)
	return nil
}

func (t *memoryReservationTx) SaveMeetup(_ context.Context, m *model.Meetup) error {
	t.stagedMeetups = append(t.stagedMeetups, copyMeetup(m))
	return nil
}

func (t *memoryReservationTx) CreateParticipation(_ context.Context, p *model.Participation) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	key := meetupUserKey{p.MeetupID, p.UserID}
	if _, exists := t.store.byMeetupUser[key]; exists {
		return ErrDuplicate
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	// Claim the unique slot now; the row itself lands at commit.
	t.store.byMeetupUser[key] = p.ID
	t.claims = append(t.claims, key)
	t.createdParts = append(t.createdParts, copyParticipation(p))
	return nil
}

func (t *memoryReservationTx) SaveParticipation(_ context.Context, p *model.Participation) error {
	t.stagedParts = append(t.stagedParts, copyParticipation(p))
	return nil
}

var _ ReservationStore = (*memoryReservationStore)(nil)
var _ ReservationTx = (*memoryReservationTx)(nil)

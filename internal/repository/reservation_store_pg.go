package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"strive/meetuphub/internal/model"
)

// Postgres error codes translated at this boundary.
const (
	pgUniqueViolation = "23505"
	pgLockNotAvail    = "55P03"
)

type pgReservationStore struct {
	db *gorm.DB
}

func NewPGReservationStore(db *gorm.DB) ReservationStore {
	return &pgReservationStore{db: db}
}

func translatePGError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgLockNotAvail:
			return ErrLockTimeout
		}
	}
	return err
}

func (s *pgReservationStore) GetMeetup(ctx context.Context, id uuid.UUID) (*model.Meetup, error) {
	var m model.Meetup
	err := s.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&m).Error
	if err != nil {
		return nil, translatePGError(err)
	}
	return &m, nil
}

func (s *pgReservationStore) ListMeetups(ctx context.Context, filter MeetupFilter) ([]model.Meetup, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Meetup{}).Where("deleted_at IS NULL")
	if filter.RegionCode != "" {
		q = q.Where("region_code = ?", filter.RegionCode)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.OrganizerID != nil {
		q = q.Where("organizer_id = ?", *filter.OrganizerID)
	}
	if filter.StartFrom != nil {
		q = q.Where("start_at >= ?", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		q = q.Where("start_at <= ?", *filter.StartTo)
	}
	if filter.RecruitEndBefore != nil {
		q = q.Where("recruit_end_at <= ?", *filter.RecruitEndBefore)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translatePGError(err)
	}

	var meetups []model.Meetup
	q = q.Order("start_at ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Find(&meetups).Error; err != nil {
		return nil, 0, translatePGError(err)
	}
	return meetups, total, nil
}

func (s *pgReservationStore) GetParticipation(ctx context.Context, id uuid.UUID) (*model.Participation, error) {
	var p model.Participation
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translatePGError(err)
	}
	return &p, nil
}

func (s *pgReservationStore) FindParticipation(ctx context.Context, meetupID, userID uuid.UUID) (*model.Participation, error) {
	var p model.Participation
	err := s.db.WithContext(ctx).
		Where("meetup_id = ? AND user_id = ?", meetupID, userID).
		First(&p).Error
	if err != nil {
		return nil, translatePGError(err)
	}
	return &p, nil
}

func (s *pgReservationStore) ListParticipations(ctx context.Context, meetupID uuid.UUID) ([]model.Participation, error) {
	var participations []model.Participation
	err := s.db.WithContext(ctx).
		Where("meetup_id = ?", meetupID).
		Order("created_at ASC").
		Find(&participations).Error
	if err != nil {
		return nil, translatePGError(err)
	}
	return participations, nil
}

func (s *pgReservationStore) CountParticipations(ctx context.Context, meetupID uuid.UUID, status model.ParticipationStatus) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Participation{}).
		Where("meetup_id = ? AND status = ?", meetupID, status).
		Count(&count).Error
	if err != nil {
		return 0, translatePGError(err)
	}
	return count, nil
}

func (s *pgReservationStore) CreateMeetup(ctx context.Context, m *model.Meetup) error {
	return translatePGError(s.db.WithContext(ctx).Create(m).Error)
}

func (s *pgReservationStore) SaveMeetup(ctx context.Context, m *model.Meetup) error {
	res := s.db.WithContext(ctx).
		Model(&model.Meetup{}).
		Where("id = ? AND version = ?", m.ID, m.Version).
		Updates(map[string]interface{}{
			"title":                 m.Title,
			"description":           m.Description,
			"location_text":         m.LocationText,
			"experience_level_text": m.ExperienceLevelText,
			"status":                m.Status,
			"deleted_at":            m.DeletedAt,
			"updated_at":            m.UpdatedAt,
			"version":               m.Version + 1,
		})
	if res.Error != nil {
		return translatePGError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	m.Version++
	return nil
}

func (s *pgReservationStore) CreateParticipation(ctx context.Context, p *model.Participation) error {
	return translatePGError(s.db.WithContext(ctx).Create(p).Error)
}

func (s *pgReservationStore) SaveParticipation(ctx context.Context, p *model.Participation) error {
	err := s.db.WithContext(ctx).
		Model(&model.Participation{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"status":     p.Status,
			"updated_at": p.UpdatedAt,
		}).Error
	return translatePGError(err)
}

func (s *pgReservationStore) Atomic(ctx context.Context, fn func(tx ReservationTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Bounded wait for the row locks taken below; an exceeded wait
		// surfaces as 55P03 and is translated to ErrLockTimeout.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", LockWait.Milliseconds())
		if err := tx.Exec(stmt).Error; err != nil {
			return translatePGError(err)
		}
		return fn(&pgReservationTx{pgReservationStore{db: tx}})
	})
}

type pgReservationTx struct {
	pgReservationStore
}

func (t *pgReservationTx) MeetupForUpdate(ctx context.Context, id uuid.UUID) (*model.Meetup, error) {
	var m model.Meetup
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&m).Error
	if err != nil {
		return nil, translatePGError(err)
	}
	return &m, nil
}

func (t *pgReservationTx) ParticipationForUpdate(ctx context.Context, id uuid.UUID) (*model.Participation, error) {
	var p model.Participation
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, translatePGError(err)
	}
	return &p, nil
}

func (t *pgReservationTx) FindParticipationForUpdate(ctx context.Context, meetupID, userID uuid.UUID) (*model.Participation, error) {
	var p model.Participation
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("meetup_id = ? AND user_id = ?", meetupID, userID).
		First(&p).Error
	if err != nil {
		return nil, translatePGError(err)
	}
	return &p, nil
}

var _ ReservationStore = (*pgReservationStore)(nil)
var _ ReservationTx = (*pgReservationTx)(nil)

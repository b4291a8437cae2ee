package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"strive/meetuphub/internal/model"
	"strive/meetuphub/internal/repository"
)

const sweepBatchSize = 100

// RecruitmentSweeper closes recruitment (OPEN → CLOSED) for meetups whose
// deadline has passed. Admission control already rejects late requests and
// approvals against the wall clock; the sweep keeps the stored status in
// step with it.
type RecruitmentSweeper struct {
	store    repository.ReservationStore
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time
}

func NewRecruitmentSweeper(store repository.ReservationStore, logger *zap.Logger, interval time.Duration) *RecruitmentSweeper {
	return &RecruitmentSweeper{
		store:    store,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Run sweeps on a ticker until ctx is cancelled.
func (s *RecruitmentSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("recruitment sweeper stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("recruitment sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep performs one pass. Meetups that lost a concurrent edit race are
// skipped; the next tick picks them up again.
func (s *RecruitmentSweeper) Sweep(ctx context.Context) error {
	now := s.now()
	open := model.MeetupStatusOpen
	expired, _, err := s.store.ListMeetups(ctx, repository.MeetupFilter{
		Status:           &open,
		RecruitEndBefore: &now,
		Limit:            sweepBatchSize,
	})
	if err != nil {
		return err
	}

	for i := range expired {
		meetup := expired[i]
		if err := meetup.TransitionTo(model.MeetupStatusClosed, now); err != nil {
			continue
		}
		if err := s.store.SaveMeetup(ctx, &meetup); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				continue
			}
			return err
		}
		s.logger.Info("recruitment closed",
			zap.String("meetup_id", meetup.ID.String()),
			zap.Time("recruit_end_at", meetup.RecruitEndAt))
	}
	return nil
}

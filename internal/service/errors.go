package service

import "errors"

var (
	// ErrNotFound: the meetup or participation is absent or soft-deleted.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden: the caller is not the meetup's organizer.
	ErrForbidden = errors.New("caller is not the organizer")
	// ErrValidation: malformed input, e.g. a no-op update request.
	ErrValidation = errors.New("invalid input")
	// ErrMeetupInvalidState: the meetup status disallows the requested
	// transition or edit.
	ErrMeetupInvalidState = errors.New("meetup status disallows this operation")
	// ErrParticipationInvalidState: the participation status disallows the
	// requested transition.
	ErrParticipationInvalidState = errors.New("participation status disallows this operation")
	// ErrDeadlinePassed: the recruitment deadline has elapsed.
	ErrDeadlinePassed = errors.New("recruitment deadline has passed")
	// ErrDuplicateParticipation: a participation already exists for this
	// user and meetup.
	ErrDuplicateParticipation = errors.New("participation already exists")
	// ErrCapacityExceeded: approving would push APPROVED count past capacity.
	ErrCapacityExceeded = errors.New("meetup capacity exceeded")
	// ErrEditConflict: an optimistic-version write lost a race; safe to
	// reload and retry.
	ErrEditConflict = errors.New("meetup was modified concurrently")
	// ErrLockTimeout: the bounded wait for the meetup lock elapsed.
	// Transient; the caller may retry, the underlying state is unchanged.
	ErrLockTimeout = errors.New("could not acquire meetup lock in time")
)

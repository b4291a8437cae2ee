package repository

import "errors"

// Storage-boundary sentinels. Driver-specific failures are translated to
// these at the repository layer so services never inspect driver errors.
var (
	// ErrNotFound: the row is absent or soft-deleted.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate: a unique constraint rejected the write.
	ErrDuplicate = errors.New("record already exists")
	// ErrLockTimeout: the bounded wait for an exclusive lock elapsed.
	// Transient; the caller may retry.
	ErrLockTimeout = errors.New("lock acquisition timed out")
	// ErrVersionConflict: an optimistic-version write lost the race.
	ErrVersionConflict = errors.New("stale version")
)

package model

// MeetupStatus is the lifecycle state of a meetup.
//
// Allowed transitions:
//   - DRAFT  → OPEN
//   - OPEN   → CLOSED / CANCELLED
//   - CLOSED → COMPLETED / CANCELLED
//
// COMPLETED and CANCELLED are terminal.
type MeetupStatus string

const (
	MeetupStatusDraft     MeetupStatus = "DRAFT"
	MeetupStatusOpen      MeetupStatus = "OPEN"
	MeetupStatusClosed    MeetupStatus = "CLOSED"
	MeetupStatusCompleted MeetupStatus = "COMPLETED"
	MeetupStatusCancelled MeetupStatus = "CANCELLED"
)

// meetupTransitions is the full transition table. Pairs absent from the
// table (including every self-transition) are disallowed.
var meetupTransitions = map[MeetupStatus]map[MeetupStatus]bool{
	MeetupStatusDraft: {
		MeetupStatusOpen: true,
	},
	MeetupStatusOpen: {
		MeetupStatusClosed:    true,
		MeetupStatusCancelled: true,
	},
	MeetupStatusClosed: {
		MeetupStatusCompleted: true,
		MeetupStatusCancelled: true,
	},
	MeetupStatusCompleted: {},
	MeetupStatusCancelled: {},
}

// CanTransitionTo reports whether the machine allows moving from s to target.
func (s MeetupStatus) CanTransitionTo(target MeetupStatus) bool {
	return meetupTransitions[s][target]
}

// Valid reports whether s is a known meetup status value.
func (s MeetupStatus) Valid() bool {
	_, ok := meetupTransitions[s]
	return ok
}

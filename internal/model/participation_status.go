package model

// ParticipationStatus is the lifecycle state of a single join request.
//
// Allowed transitions:
//   - REQUESTED → APPROVED / REJECTED / CANCELLED
//   - APPROVED  → CANCELLED
//
// REJECTED and CANCELLED are terminal. An approved participation can only
// move forward by the requester's own cancellation; there is no way back
// to REJECTED.
type ParticipationStatus string

const (
	ParticipationStatusRequested ParticipationStatus = "REQUESTED"
	ParticipationStatusApproved  ParticipationStatus = "APPROVED"
	ParticipationStatusRejected  ParticipationStatus = "REJECTED"
	ParticipationStatusCancelled ParticipationStatus = "CANCELLED"
)

var participationTransitions = map[ParticipationStatus]map[ParticipationStatus]bool{
	ParticipationStatusRequested: {
		ParticipationStatusApproved:  true,
		ParticipationStatusRejected:  true,
		ParticipationStatusCancelled: true,
	},
	ParticipationStatusApproved: {
		ParticipationStatusCancelled: true,
	},
	ParticipationStatusRejected:  {},
	ParticipationStatusCancelled: {},
}

// CanTransitionTo reports whether the machine allows moving from s to target.
func (s ParticipationStatus) CanTransitionTo(target ParticipationStatus) bool {
	return participationTransitions[s][target]
}

// Valid reports whether s is a known participation status value.
func (s ParticipationStatus) Valid() bool {
	_, ok := participationTransitions[s]
	return ok
}

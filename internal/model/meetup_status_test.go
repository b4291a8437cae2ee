package model

import "testing"

func TestMeetupStatusCanTransitionTo(t *testing.T) {
	all := []MeetupStatus{
		MeetupStatusDraft,
		MeetupStatusOpen,
		MeetupStatusClosed,
		MeetupStatusCompleted,
		MeetupStatusCancelled,
	}

	allowed := map[MeetupStatus]map[MeetupStatus]bool{
		MeetupStatusDraft:  {MeetupStatusOpen: true},
		MeetupStatusOpen:   {MeetupStatusClosed: true, MeetupStatusCancelled: true},
		MeetupStatusClosed: {MeetupStatusCompleted: true, MeetupStatusCancelled: true},
	}

	for _, current := range all {
		for _, target := range all {
			want := allowed[current][target]
			got := current.CanTransitionTo(target)
			if got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", current, target, got, want)
			}
		}
	}
}

func TestMeetupStatusSelfTransitionsDisallowed(t *testing.T) {
	for _, s := range []MeetupStatus{
		MeetupStatusDraft,
		MeetupStatusOpen,
		MeetupStatusClosed,
		MeetupStatusCompleted,
		MeetupStatusCancelled,
	} {
		if s.CanTransitionTo(s) {
			t.Errorf("self-transition %s -> %s must be disallowed", s, s)
		}
	}
}

func TestMeetupStatusValid(t *testing.T) {
	if !MeetupStatusOpen.Valid() {
		t.Error("OPEN should be valid")
	}
	if MeetupStatus("PENDING").Valid() {
		t.Error("unknown status should be invalid")
	}
}

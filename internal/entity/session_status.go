package entity

import "fmt"

type SessionStatus string

const (
	SessionStatusPending            SessionStatus = "pending"
	SessionStatusActive             SessionStatus = "active"
	SessionStatusGeneratingFeedback SessionStatus = "generating_feedback"
	SessionStatusCompleted          SessionStatus = "completed"
	SessionStatusFailed             SessionStatus = "failed"
)

var transitions = map[SessionStatus][]SessionStatus{
	SessionStatusPending:            {SessionStatusActive, SessionStatusFailed},
	SessionStatusActive:             {SessionStatusGeneratingFeedback, SessionStatusFailed},
	SessionStatusGeneratingFeedback: {SessionStatusCompleted, SessionStatusFailed},
}

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusPending, SessionStatusActive, SessionStatusGeneratingFeedback,
		SessionStatusCompleted, SessionStatusFailed:
		return true
	}
	return false
}

func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed
}

// CanTransition reports whether s -> to is a legal edge.
func (s SessionStatus) CanTransition(to SessionStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates s -> to. Leaving a terminal state is a no-op
// (changed=false, nil error); any other illegal edge is rejected.
func (s SessionStatus) Transition(to SessionStatus) (changed bool, err error) {
	if s.IsTerminal() {
		return false, nil
	}
	if !s.CanTransition(to) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, s, to)
	}
	return true, nil
}

// FailableStatuses are the states MarkFailed may move out of.
var FailableStatuses = []SessionStatus{
	SessionStatusPending,
	SessionStatusActive,
	SessionStatusGeneratingFeedback,
}

package entity

import "errors"

var (
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAgentNotProvisioned    = errors.New("persona does not have a voice agent")
	ErrSessionNotFound        = errors.New("training session not found")
	ErrPersonaNotFound        = errors.New("persona not found")
	ErrParcelNotFound         = errors.New("parcel not found")
	ErrPersonaBusy            = errors.New("persona has an active session")
	ErrNoSessionsRemaining    = errors.New("no sessions remaining")
	ErrUserNotFound           = errors.New("user not found")
)

package contract

import "errors"

var (
	ErrResolution      = errors.New("intent resolution failed")
	ErrAmbiguousIntent = errors.New("intent is ambiguous")
	ErrValidation      = errors.New("validation failed")
	ErrCollaborator    = errors.New("collaborator call failed")
)

// Calendar collaborator failure reasons.
var (
	ErrAuthExpired    = errors.New("calendar authorization expired")
	ErrInvalidPayload = errors.New("calendar rejected the event payload")
	ErrUnavailable    = errors.New("calendar is unavailable")
)

var ErrReminderNotFound = errors.New("reminder not found")

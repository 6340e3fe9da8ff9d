package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Configuration errors
	ErrUnknownActionType = errors.New("unknown action type")

	// Not found errors
	ErrActionNotFound  = errors.New("action log not found")
	ErrSettingNotFound = errors.New("authority setting not found")

	// Transition errors: the entry exists but is not in a status the
	// requested transition accepts. The stored row is unchanged and the
	// caller should re-check the current status.
	ErrActionNotTransitionable = errors.New("action log not in required status")

	// Feedback errors
	ErrActionNotClosed     = errors.New("action log is not in a terminal status")
	ErrFeedbackAlreadySet  = errors.New("feedback is already set")
	ErrInvalidFeedback     = errors.New("invalid feedback label")
	ErrInvalidReversalInit = errors.New("invalid reversal initiator")
)

// Context keys for error values
const (
	UserIDKey       = "user_id"
	ActionTypeIDKey = "action_type_id"
	ActionLogIDKey  = "action_log_id"
)

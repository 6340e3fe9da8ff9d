package types

import "fmt"

// ActionStatus represents the lifecycle status of a ledger entry
type ActionStatus string

const (
	ActionStatusPendingApproval ActionStatus = "pending_approval"
	ActionStatusApproved        ActionStatus = "approved"
	ActionStatusRejected        ActionStatus = "rejected"
	ActionStatusExecuted        ActionStatus = "executed"
	ActionStatusFailed          ActionStatus = "failed"
	ActionStatusReversed        ActionStatus = "reversed"
)

// AllActionStatuses returns all valid action statuses
func AllActionStatuses() []ActionStatus {
	return []ActionStatus{
		ActionStatusPendingApproval,
		ActionStatusApproved,
		ActionStatusRejected,
		ActionStatusExecuted,
		ActionStatusFailed,
		ActionStatusReversed,
	}
}

// IsValid checks if the action status is valid
func (s ActionStatus) IsValid() bool {
	switch s {
	case ActionStatusPendingApproval,
		ActionStatusApproved,
		ActionStatusRejected,
		ActionStatusExecuted,
		ActionStatusFailed,
		ActionStatusReversed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status admits no further transition other
// than reversal of an executed entry. `approved` is an intermediate waypoint
// toward `executed` or `failed`.
func (s ActionStatus) IsTerminal() bool {
	switch s {
	case ActionStatusRejected,
		ActionStatusExecuted,
		ActionStatusFailed,
		ActionStatusReversed:
		return true
	default:
		return false
	}
}

// IsClosed reports whether user feedback may be attached to an entry in
// this status
func (s ActionStatus) IsClosed() bool {
	return s.IsTerminal()
}

// String returns the string representation of the action status
func (s ActionStatus) String() string {
	return string(s)
}

// ParseActionStatus parses a string into an ActionStatus
func ParseActionStatus(s string) (ActionStatus, error) {
	status := ActionStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid action status: %s", s)
	}
	return status, nil
}

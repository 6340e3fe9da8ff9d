package types

import "fmt"

// AuthorityLevel represents how much autonomy is granted for an action type
type AuthorityLevel string

const (
	// AuthorityLevelAuto executes without asking the user
	AuthorityLevelAuto AuthorityLevel = "auto"
	// AuthorityLevelNotify executes and informs the user afterwards
	AuthorityLevelNotify AuthorityLevel = "notify"
	// AuthorityLevelApprovalRequired must be approved by the user before execution
	AuthorityLevelApprovalRequired AuthorityLevel = "approval_required"
)

// AllAuthorityLevels returns all valid authority levels
func AllAuthorityLevels() []AuthorityLevel {
	return []AuthorityLevel{
		AuthorityLevelAuto,
		AuthorityLevelNotify,
		AuthorityLevelApprovalRequired,
	}
}

// IsValid checks if the authority level is valid
func (l AuthorityLevel) IsValid() bool {
	switch l {
	case AuthorityLevelAuto,
		AuthorityLevelNotify,
		AuthorityLevelApprovalRequired:
		return true
	default:
		return false
	}
}

// RequiresApproval reports whether an action at this level must wait for
// explicit human approval before execution
func (l AuthorityLevel) RequiresApproval() bool {
	return l == AuthorityLevelApprovalRequired
}

// String returns the string representation of the authority level
func (l AuthorityLevel) String() string {
	return string(l)
}

// ParseAuthorityLevel parses a string into an AuthorityLevel
func ParseAuthorityLevel(s string) (AuthorityLevel, error) {
	level := AuthorityLevel(s)
	if !level.IsValid() {
		return "", fmt.Errorf("invalid authority level: %s", s)
	}
	return level, nil
}

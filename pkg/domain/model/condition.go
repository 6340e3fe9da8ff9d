package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ConditionKind tags a condition variant
type ConditionKind string

const (
	// ConditionMaxAmount matches actions whose monetary amount does not
	// exceed a ceiling
	ConditionMaxAmount ConditionKind = "max_amount"
	// ConditionTimeWindow matches actions proposed within a daily time
	// window, expressed as "HH:MM" in the user's timezone
	ConditionTimeWindow ConditionKind = "time_window"
	// ConditionTargetPrefix matches actions whose target ID starts with a
	// given prefix
	ConditionTargetPrefix ConditionKind = "target_prefix"
)

// Condition is one predicate of a user's authority override. Conditions are
// plain data evaluated by Matches, never executable code. A collaborator
// evaluates them before treating an override as applicable to a proposed
// action.
type Condition struct {
	Kind ConditionKind `json:"kind"`

	// max_amount
	Amount float64 `json:"amount,omitempty"`

	// time_window, "HH:MM" 24h clock
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	// target_prefix
	Prefix string `json:"prefix,omitempty"`
}

const clockLayout = "15:04"

// Validate checks if the condition is well-formed
func (c *Condition) Validate() error {
	switch c.Kind {
	case ConditionMaxAmount:
		if c.Amount < 0 {
			return goerr.New("max_amount condition requires a non-negative amount",
				goerr.V("amount", c.Amount))
		}
	case ConditionTimeWindow:
		if _, err := time.Parse(clockLayout, c.Start); err != nil {
			return goerr.Wrap(err, "invalid time window start", goerr.V("start", c.Start))
		}
		if _, err := time.Parse(clockLayout, c.End); err != nil {
			return goerr.Wrap(err, "invalid time window end", goerr.V("end", c.End))
		}
	case ConditionTargetPrefix:
		if c.Prefix == "" {
			return goerr.New("target_prefix condition requires a prefix")
		}
	default:
		return goerr.New("unknown condition kind", goerr.V("kind", c.Kind))
	}
	return nil
}

// ActionContext carries the facts a condition is evaluated against
type ActionContext struct {
	Amount   float64
	Now      time.Time
	TargetID string
}

// Matches evaluates the condition against an action context. It is total:
// an unknown kind never matches.
func (c *Condition) Matches(actx ActionContext) bool {
	switch c.Kind {
	case ConditionMaxAmount:
		return actx.Amount <= c.Amount

	case ConditionTimeWindow:
		start, err := time.Parse(clockLayout, c.Start)
		if err != nil {
			return false
		}
		end, err := time.Parse(clockLayout, c.End)
		if err != nil {
			return false
		}
		now := actx.Now.Hour()*60 + actx.Now.Minute()
		s := start.Hour()*60 + start.Minute()
		e := end.Hour()*60 + end.Minute()
		if s <= e {
			return now >= s && now <= e
		}
		// Window crosses midnight
		return now >= s || now <= e

	case ConditionTargetPrefix:
		return len(actx.TargetID) >= len(c.Prefix) && actx.TargetID[:len(c.Prefix)] == c.Prefix

	default:
		return false
	}
}

// MatchesAll evaluates every condition against the context; an empty set
// matches unconditionally.
func MatchesAll(conditions []Condition, actx ActionContext) bool {
	for i := range conditions {
		if !conditions[i].Matches(actx) {
			return false
		}
	}
	return true
}

package model

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

// AuthoritySetting is a per-user override of an action type's default
// authority level. At most one setting exists per (user, action type) pair;
// the pair itself is the persistence key.
type AuthoritySetting struct {
	UserID       types.UserID         `json:"user_id"`
	ActionTypeID types.ActionTypeID   `json:"action_type_id"`
	Level        types.AuthorityLevel `json:"level"`
	Conditions   []Condition          `json:"conditions,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// SettingKey returns the composite persistence key for a (user, action type)
// pair. Using the pair as the document key makes the uniqueness invariant a
// property of the store rather than of check-then-insert logic.
func SettingKey(userID types.UserID, actionTypeID types.ActionTypeID) string {
	return fmt.Sprintf("%s:%s", userID, actionTypeID)
}

// Key returns the composite persistence key of this setting
func (s *AuthoritySetting) Key() string {
	return SettingKey(s.UserID, s.ActionTypeID)
}

// Validate checks if the setting is valid
func (s *AuthoritySetting) Validate() error {
	if err := s.UserID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid user ID")
	}
	if err := s.ActionTypeID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid action type ID")
	}
	if !s.Level.IsValid() {
		return goerr.New("invalid authority level",
			goerr.V("user_id", s.UserID), goerr.V("level", s.Level))
	}
	for i := range s.Conditions {
		if err := s.Conditions[i].Validate(); err != nil {
			return goerr.Wrap(err, "invalid condition",
				goerr.V("user_id", s.UserID), goerr.V("action_type_id", s.ActionTypeID))
		}
	}
	return nil
}

// Clone creates a deep copy of the setting
func (s *AuthoritySetting) Clone() *AuthoritySetting {
	conditions := make([]Condition, len(s.Conditions))
	copy(conditions, s.Conditions)

	return &AuthoritySetting{
		UserID:       s.UserID,
		ActionTypeID: s.ActionTypeID,
		Level:        s.Level,
		Conditions:   conditions,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// EffectiveAuthority is the resolver's answer for a (user, action type)
// pair: the user's override when one exists, else the catalog default.
type EffectiveAuthority struct {
	ActionTypeID types.ActionTypeID   `json:"action_type_id"`
	Level        types.AuthorityLevel `json:"level"`
	IsOverride   bool                 `json:"is_override"`
	Conditions   []Condition          `json:"conditions,omitempty"`
}

package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// UserID identifies the user on whose behalf the assistant acts
type UserID string

// Validate checks if the user ID is well-formed
func (id UserID) Validate() error {
	if id == "" {
		return goerr.New("user ID must not be empty")
	}
	return nil
}

func (id UserID) String() string {
	return string(id)
}

// ActionTypeID identifies a catalog entry, e.g. "send_email_reply"
type ActionTypeID string

// Validate checks if the action type ID is well-formed
func (id ActionTypeID) Validate() error {
	if id == "" {
		return goerr.New("action type ID must not be empty")
	}
	for _, r := range id {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' {
			continue
		}
		return goerr.New("action type ID must be lower snake case", goerr.V("id", string(id)))
	}
	return nil
}

func (id ActionTypeID) String() string {
	return string(id)
}

// ActionLogID identifies a single ledger entry
type ActionLogID string

// NewActionLogID generates a new random ledger entry ID
func NewActionLogID() ActionLogID {
	return ActionLogID(uuid.NewString())
}

// Validate checks if the action log ID is well-formed
func (id ActionLogID) Validate() error {
	if id == "" {
		return goerr.New("action log ID must not be empty")
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		return goerr.Wrap(err, "action log ID must be a UUID", goerr.V("id", string(id)))
	}
	return nil
}

func (id ActionLogID) String() string {
	return string(id)
}

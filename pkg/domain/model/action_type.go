package model

import (
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

// ActionType is an immutable catalog row describing a kind of effect the
// assistant can take on the user's behalf.
type ActionType struct {
	ID           types.ActionTypeID   `json:"id" toml:"id"`
	Name         string               `json:"name" toml:"name"`
	Description  string               `json:"description" toml:"description"`
	Category     string               `json:"category" toml:"category"`
	DefaultLevel types.AuthorityLevel `json:"default_level" toml:"default_level"`
}

// Validate checks if the ActionType is valid
func (t *ActionType) Validate() error {
	if err := t.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid action type ID")
	}
	if t.Name == "" {
		return goerr.New("action type name is required", goerr.V("id", t.ID))
	}
	if t.Category == "" {
		return goerr.New("action type category is required", goerr.V("id", t.ID))
	}
	if !t.DefaultLevel.IsValid() {
		return goerr.New("invalid default authority level",
			goerr.V("id", t.ID), goerr.V("level", t.DefaultLevel))
	}
	return nil
}

// ActionTypeRegistry is a read-only catalog of action types, built once at
// startup. Lookups are deterministic: the registry never changes after
// construction, so resolving the same action twice against an unchanged
// configuration always yields the same decision.
type ActionTypeRegistry struct {
	byID  map[types.ActionTypeID]*ActionType
	order []types.ActionTypeID
}

// NewActionTypeRegistry builds a registry from catalog rows. Duplicate IDs
// and invalid rows are configuration errors.
func NewActionTypeRegistry(actionTypes []ActionType) (*ActionTypeRegistry, error) {
	r := &ActionTypeRegistry{
		byID: make(map[types.ActionTypeID]*ActionType, len(actionTypes)),
	}

	for i := range actionTypes {
		at := actionTypes[i]
		if err := at.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid action type in catalog")
		}
		if _, exists := r.byID[at.ID]; exists {
			return nil, goerr.New("duplicate action type ID", goerr.V("id", at.ID))
		}
		r.byID[at.ID] = &at
		r.order = append(r.order, at.ID)
	}

	sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })

	return r, nil
}

// Get retrieves an action type by ID
func (r *ActionTypeRegistry) Get(id types.ActionTypeID) (*ActionType, bool) {
	at, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	cp := *at
	return &cp, true
}

// List returns all action types ordered by ID
func (r *ActionTypeRegistry) List() []*ActionType {
	out := make([]*ActionType, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.byID[id]
		out = append(out, &cp)
	}
	return out
}

// Len returns the number of catalog rows
func (r *ActionTypeRegistry) Len() int {
	return len(r.byID)
}

// DefaultActionTypes returns the built-in catalog used when no catalog file
// is configured.
func DefaultActionTypes() []ActionType {
	return []ActionType{
		{
			ID:           "send_email_reply",
			Name:         "Send email reply",
			Description:  "Reply to an email thread on the user's behalf",
			Category:     "email",
			DefaultLevel: types.AuthorityLevelNotify,
		},
		{
			ID:           "archive_email",
			Name:         "Archive email",
			Description:  "Archive an email from the inbox",
			Category:     "email",
			DefaultLevel: types.AuthorityLevelAuto,
		},
		{
			ID:           "create_reminder",
			Name:         "Create reminder",
			Description:  "File a reminder for the user",
			Category:     "tasks",
			DefaultLevel: types.AuthorityLevelAuto,
		},
		{
			ID:           "update_reminder",
			Name:         "Update reminder",
			Description:  "Modify or complete an existing reminder",
			Category:     "tasks",
			DefaultLevel: types.AuthorityLevelAuto,
		},
		{
			ID:           "create_calendar_event",
			Name:         "Create calendar event",
			Description:  "Add an event to the user's calendar",
			Category:     "calendar",
			DefaultLevel: types.AuthorityLevelNotify,
		},
		{
			ID:           "modify_calendar_event",
			Name:         "Modify calendar event",
			Description:  "Change or cancel an existing calendar event",
			Category:     "calendar",
			DefaultLevel: types.AuthorityLevelApprovalRequired,
		},
		{
			ID:           "modify_financial_record",
			Name:         "Modify financial record",
			Description:  "Create or change a financial record",
			Category:     "finance",
			DefaultLevel: types.AuthorityLevelApprovalRequired,
		},
		{
			ID:           "send_notification",
			Name:         "Send notification",
			Description:  "Deliver a message to the user's notification channel",
			Category:     "messaging",
			DefaultLevel: types.AuthorityLevelAuto,
		},
		{
			ID:           "delete_record",
			Name:         "Delete record",
			Description:  "Permanently remove a domain record",
			Category:     "records",
			DefaultLevel: types.AuthorityLevelApprovalRequired,
		},
	}
}

package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

// Metadata keys written by ledger transitions
const (
	MetaRejectionReason   = "rejection_reason"
	MetaFailureReason     = "failure_reason"
	MetaReversalInitiator = "reversal_initiator"
	MetaReversalReason    = "reversal_reason"
	MetaAutoGranted       = "auto_granted"
	MetaGrantedLevel      = "granted_level"
)

// ActionLog is one audit entry: a specific proposed action and everything
// that happened to it. It is created exactly once per proposal and only
// moves through the legal status transitions.
type ActionLog struct {
	ID           types.ActionLogID  `json:"id"`
	UserID       types.UserID       `json:"user_id"`
	ActionTypeID types.ActionTypeID `json:"action_type_id"`

	// TargetType/TargetID loosely associate the entry with the domain
	// entity the action would affect (e.g. "email_thread", "reminder").
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`

	Status types.ActionStatus `json:"status"`

	// Metadata holds structured context, including the snapshot a reversal
	// would need. Transition merges are additive: keys absent from the
	// caller's metadata are never dropped.
	Metadata map[string]any `json:"metadata,omitempty"`

	UserFeedback *types.FeedbackLabel `json:"user_feedback,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`
	ExecutedAt *time.Time `json:"executed_at,omitempty"`
}

// Validate checks if the action log is valid
func (a *ActionLog) Validate() error {
	if err := a.UserID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid user ID")
	}
	if err := a.ActionTypeID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid action type ID")
	}
	if a.TargetType == "" {
		return goerr.New("target type is required", goerr.V("id", a.ID))
	}
	if !a.Status.IsValid() {
		return goerr.New("invalid action status",
			goerr.V("id", a.ID), goerr.V("status", a.Status))
	}
	if a.UserFeedback != nil && !a.UserFeedback.IsValid() {
		return goerr.New("invalid user feedback",
			goerr.V("id", a.ID), goerr.V("feedback", *a.UserFeedback))
	}
	return nil
}

// Clone creates a deep copy of the action log
func (a *ActionLog) Clone() *ActionLog {
	cp := &ActionLog{
		ID:           a.ID,
		UserID:       a.UserID,
		ActionTypeID: a.ActionTypeID,
		TargetType:   a.TargetType,
		TargetID:     a.TargetID,
		Status:       a.Status,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}

	if a.Metadata != nil {
		cp.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			cp.Metadata[k] = v
		}
	}
	if a.UserFeedback != nil {
		fb := *a.UserFeedback
		cp.UserFeedback = &fb
	}
	if a.ApprovedAt != nil {
		ts := *a.ApprovedAt
		cp.ApprovedAt = &ts
	}
	if a.RejectedAt != nil {
		ts := *a.RejectedAt
		cp.RejectedAt = &ts
	}
	if a.ExecutedAt != nil {
		ts := *a.ExecutedAt
		cp.ExecutedAt = &ts
	}

	return cp
}

// MergeMetadata adds the supplied keys to the entry's metadata. Existing
// keys not present in extra are preserved; conflicting keys take the
// supplied value.
func (a *ActionLog) MergeMetadata(extra map[string]any) {
	if len(extra) == 0 {
		return
	}
	if a.Metadata == nil {
		a.Metadata = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		a.Metadata[k] = v
	}
}

// ActionLogStats aggregates a user's ledger over an optional time window
type ActionLogStats struct {
	Total      int                         `json:"total"`
	ByStatus   map[types.ActionStatus]int  `json:"by_status"`
	ByFeedback map[types.FeedbackLabel]int `json:"by_feedback"`
}

// NewActionLogStats returns a stats object with every bucket present and
// zeroed, so an empty window renders zeros instead of missing keys.
func NewActionLogStats() *ActionLogStats {
	s := &ActionLogStats{
		ByStatus:   make(map[types.ActionStatus]int, len(types.AllActionStatuses())),
		ByFeedback: make(map[types.FeedbackLabel]int, len(types.AllFeedbackLabels())),
	}
	for _, st := range types.AllActionStatuses() {
		s.ByStatus[st] = 0
	}
	for _, fb := range types.AllFeedbackLabels() {
		s.ByFeedback[fb] = 0
	}
	return s
}

// BatchResult reports per-item outcomes of a batch transition. Items are
// applied independently: one failure never blocks the others.
type BatchResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BulkUpdateItem is one element of a bulk authority settings update
type BulkUpdateItem struct {
	ActionTypeID types.ActionTypeID   `json:"action_type_id"`
	Level        types.AuthorityLevel `json:"level"`
	Conditions   []Condition          `json:"conditions,omitempty"`
}

// BulkUpdateOutcome reports the result of one bulk update item
type BulkUpdateOutcome struct {
	ActionTypeID types.ActionTypeID
	Err          error
}

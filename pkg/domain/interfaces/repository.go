package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	AuthoritySetting() AuthoritySettingRepository
	ActionLog() ActionLogRepository
	Close() error
}

// AuthoritySettingRepository persists per-user authority overrides. The
// (user, action type) pair is the storage key, so uniqueness is a property
// of the store and concurrent initializations cannot create duplicates.
type AuthoritySettingRepository interface {
	// Get retrieves the setting for a (user, action type) pair.
	// Returns ErrNotFound when no override exists.
	Get(ctx context.Context, userID types.UserID, actionTypeID types.ActionTypeID) (*model.AuthoritySetting, error)

	// Put creates or replaces the setting for its (user, action type)
	// pair. CreatedAt of an existing setting is preserved.
	Put(ctx context.Context, setting *model.AuthoritySetting) (*model.AuthoritySetting, error)

	// ListByUser retrieves all settings of a user
	ListByUser(ctx context.Context, userID types.UserID) ([]*model.AuthoritySetting, error)

	// DeleteByUser removes all settings of a user (account removal only)
	// and returns the number of settings removed.
	DeleteByUser(ctx context.Context, userID types.UserID) (int, error)
}

// ActionLogRepository persists ledger entries. Every status transition is a
// single-row conditional update guarded by the entry's stored status at
// transition time.
type ActionLogRepository interface {
	// Create stores a new ledger entry
	Create(ctx context.Context, entry *model.ActionLog) (*model.ActionLog, error)

	// Get retrieves a ledger entry by ID. Returns ErrNotFound when absent.
	Get(ctx context.Context, id types.ActionLogID) (*model.ActionLog, error)

	// Transition applies mutate to the entry only if its stored status is
	// one of from, as a single read-then-conditional-write. Returns
	// ErrPreconditionFailed when the stored status does not match, and
	// ErrNotFound when the entry does not exist. Two concurrent calls on
	// the same entry yield exactly one success.
	Transition(ctx context.Context, id types.ActionLogID, from []types.ActionStatus, mutate func(*model.ActionLog) error) (*model.ActionLog, error)

	// ListByStatus retrieves a user's entries in the given status, newest
	// first, up to limit (0 means no limit).
	ListByStatus(ctx context.Context, userID types.UserID, status types.ActionStatus, limit int) ([]*model.ActionLog, error)

	// ListSimilar retrieves a user's most recent entries matching the
	// action type and target type whose status is one of statuses, newest
	// first, up to limit.
	ListSimilar(ctx context.Context, userID types.UserID, actionTypeID types.ActionTypeID, targetType string, statuses []types.ActionStatus, limit int) ([]*model.ActionLog, error)

	// ListWithFeedback retrieves a user's entries carrying any feedback
	// label, newest first, up to limit.
	ListWithFeedback(ctx context.Context, userID types.UserID, limit int) ([]*model.ActionLog, error)

	// CountByStatus counts a user's entries in the given status
	CountByStatus(ctx context.Context, userID types.UserID, status types.ActionStatus) (int, error)

	// Stats aggregates a user's entries by status and feedback label over
	// an optional window. A window with no entries yields zeroed buckets.
	Stats(ctx context.Context, userID types.UserID, since *time.Time) (*model.ActionLogStats, error)
}

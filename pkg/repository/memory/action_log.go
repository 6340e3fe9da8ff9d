package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

type actionLogRepository struct {
	mu   sync.RWMutex
	logs map[types.ActionLogID]*model.ActionLog
}

func newActionLogRepository() *actionLogRepository {
	return &actionLogRepository{
		logs: make(map[types.ActionLogID]*model.ActionLog),
	}
}

func (r *actionLogRepository) Create(ctx context.Context, entry *model.ActionLog) (*model.ActionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := entry.Clone()
	if created.ID == "" {
		created.ID = types.NewActionLogID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, exists := r.logs[created.ID]; exists {
		return nil, goerr.New("action log already exists", goerr.V("id", created.ID))
	}

	r.logs[created.ID] = created
	return created.Clone(), nil
}

func (r *actionLogRepository) Get(ctx context.Context, id types.ActionLogID) (*model.ActionLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.logs[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action log not found", goerr.V("id", id))
	}

	return entry.Clone(), nil
}

func (r *actionLogRepository) Transition(ctx context.Context, id types.ActionLogID, from []types.ActionStatus, mutate func(*model.ActionLog) error) (*model.ActionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.logs[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action log not found", goerr.V("id", id))
	}

	allowed := false
	for _, status := range from {
		if entry.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, goerr.Wrap(interfaces.ErrPreconditionFailed, "action log status precondition failed",
			goerr.V("id", id), goerr.V("status", entry.Status), goerr.V("required", from))
	}

	// Mutate a copy so a failing mutate leaves the stored row unchanged
	updated := entry.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now().UTC()

	r.logs[id] = updated
	return updated.Clone(), nil
}

func (r *actionLogRepository) ListByStatus(ctx context.Context, userID types.UserID, status types.ActionStatus, limit int) ([]*model.ActionLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(limit, func(e *model.ActionLog) bool {
		return e.UserID == userID && e.Status == status
	}), nil
}

func (r *actionLogRepository) ListSimilar(ctx context.Context, userID types.UserID, actionTypeID types.ActionTypeID, targetType string, statuses []types.ActionStatus, limit int) ([]*model.ActionLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statusSet := make(map[types.ActionStatus]bool, len(statuses))
	for _, s := range statuses {
		statusSet[s] = true
	}

	return r.collect(limit, func(e *model.ActionLog) bool {
		return e.UserID == userID &&
			e.ActionTypeID == actionTypeID &&
			e.TargetType == targetType &&
			statusSet[e.Status]
	}), nil
}

func (r *actionLogRepository) ListWithFeedback(ctx context.Context, userID types.UserID, limit int) ([]*model.ActionLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(limit, func(e *model.ActionLog) bool {
		return e.UserID == userID && e.UserFeedback != nil
	}), nil
}

func (r *actionLogRepository) CountByStatus(ctx context.Context, userID types.UserID, status types.ActionStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, entry := range r.logs {
		if entry.UserID == userID && entry.Status == status {
			count++
		}
	}

	return count, nil
}

func (r *actionLogRepository) Stats(ctx context.Context, userID types.UserID, since *time.Time) (*model.ActionLogStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := model.NewActionLogStats()
	for _, entry := range r.logs {
		if entry.UserID != userID {
			continue
		}
		if since != nil && entry.CreatedAt.Before(*since) {
			continue
		}
		stats.Total++
		stats.ByStatus[entry.Status]++
		if entry.UserFeedback != nil {
			stats.ByFeedback[*entry.UserFeedback]++
		}
	}

	return stats, nil
}

// collect returns matching entries newest-first; callers must hold the lock
func (r *actionLogRepository) collect(limit int, match func(*model.ActionLog) bool) []*model.ActionLog {
	entries := make([]*model.ActionLog, 0)
	for _, entry := range r.logs {
		if match(entry) {
			entries = append(entries, entry.Clone())
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries
}

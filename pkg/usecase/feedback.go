package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

// Default result window sizes for calibration queries
const (
	defaultSimilarLimit  = 10
	defaultFeedbackLimit = 50
)

// FeedbackUseCase attaches user judgments to closed ledger entries and
// serves the historical views an external calibration process conditions
// on. It never adjusts authority levels itself; calibration writes back
// through the Authority resolver's upsert contract.
type FeedbackUseCase struct {
	repo interfaces.Repository
}

func NewFeedbackUseCase(repo interfaces.Repository) *FeedbackUseCase {
	return &FeedbackUseCase{
		repo: repo,
	}
}

// AddUserFeedback attaches a feedback label to a closed entry. The label
// can be set at most once, and only after the entry reached a terminal
// status: judging a still-pending proposal is not meaningful.
func (uc *FeedbackUseCase) AddUserFeedback(ctx context.Context, id types.ActionLogID, feedback types.FeedbackLabel) (*model.ActionLog, error) {
	if !feedback.IsValid() {
		return nil, goerr.Wrap(ErrInvalidFeedback, "unknown feedback label",
			goerr.V("feedback", feedback))
	}

	updated, err := uc.repo.ActionLog().Transition(ctx, id,
		[]types.ActionStatus{
			types.ActionStatusRejected,
			types.ActionStatusExecuted,
			types.ActionStatusFailed,
			types.ActionStatusReversed,
		},
		func(e *model.ActionLog) error {
			if e.UserFeedback != nil {
				return goerr.Wrap(ErrFeedbackAlreadySet, "entry already has feedback",
					goerr.V(ActionLogIDKey, id), goerr.V("feedback", *e.UserFeedback))
			}
			fb := feedback
			e.UserFeedback = &fb
			return nil
		})
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrNotFound):
			return nil, goerr.Wrap(ErrActionNotFound, "no such ledger entry", goerr.V(ActionLogIDKey, id))
		case errors.Is(err, interfaces.ErrPreconditionFailed):
			return nil, goerr.Wrap(ErrActionNotClosed, "feedback requires a terminal status",
				goerr.V(ActionLogIDKey, id))
		default:
			return nil, err
		}
	}

	return updated, nil
}

// FindSimilarPastActions returns the most recent entries matching the
// action type and target type whose status is executed, approved or
// rejected — the candidate set a confidence model conditions on.
func (uc *FeedbackUseCase) FindSimilarPastActions(ctx context.Context, userID types.UserID, actionTypeID types.ActionTypeID, targetType string, limit int) ([]*model.ActionLog, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	entries, err := uc.repo.ActionLog().ListSimilar(ctx, userID, actionTypeID, targetType,
		[]types.ActionStatus{
			types.ActionStatusExecuted,
			types.ActionStatusApproved,
			types.ActionStatusRejected,
		}, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find similar past actions",
			goerr.V(UserIDKey, userID), goerr.V(ActionTypeIDKey, actionTypeID))
	}

	return entries, nil
}

// GetActionsWithFeedback returns a user's labeled entries, newest first —
// the calibration training set.
func (uc *FeedbackUseCase) GetActionsWithFeedback(ctx context.Context, userID types.UserID, limit int) ([]*model.ActionLog, error) {
	if limit <= 0 {
		limit = defaultFeedbackLimit
	}

	entries, err := uc.repo.ActionLog().ListWithFeedback(ctx, userID, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get actions with feedback", goerr.V(UserIDKey, userID))
	}

	return entries, nil
}

// GetActionLogStats aggregates a user's ledger by status and feedback over
// an optional window. An empty window renders zeros, never an error.
func (uc *FeedbackUseCase) GetActionLogStats(ctx context.Context, userID types.UserID, since *time.Time) (*model.ActionLogStats, error) {
	stats, err := uc.repo.ActionLog().Stats(ctx, userID, since)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate action log stats", goerr.V(UserIDKey, userID))
	}

	return stats, nil
}

// GetPendingApprovalCount returns a fast count for notification badges
func (uc *FeedbackUseCase) GetPendingApprovalCount(ctx context.Context, userID types.UserID) (int, error) {
	count, err := uc.repo.ActionLog().CountByStatus(ctx, userID, types.ActionStatusPendingApproval)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count pending approvals", goerr.V(UserIDKey, userID))
	}

	return count, nil
}

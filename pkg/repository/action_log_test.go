package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/repository/firestore"
	"github.com/secmon-lab/warden/pkg/repository/memory"
)

func newPendingEntry(userID types.UserID) *model.ActionLog {
	return &model.ActionLog{
		UserID:       userID,
		ActionTypeID: "send_email_reply",
		TargetType:   "email_thread",
		TargetID:     "thread-1",
		Status:       types.ActionStatusPendingApproval,
		Metadata:     map[string]any{"subject": "Re: invoice"},
	}
}

func runActionLogRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns ID and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.ActionLog().Create(ctx, newPendingEntry(newTestUserID()))
		gt.NoError(t, err).Required()

		gt.Value(t, created.ID).NotEqual(types.ActionLogID(""))
		gt.NoError(t, created.ID.Validate())
		gt.B(t, created.CreatedAt.IsZero()).False()
		gt.Value(t, created.Status).Equal(types.ActionStatusPendingApproval)

		got, err := repo.ActionLog().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Metadata["subject"]).Equal("Re: invoice")
	})

	t.Run("Get returns ErrNotFound for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.ActionLog().Get(ctx, types.NewActionLogID())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("Transition applies mutate when status matches", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.ActionLog().Create(ctx, newPendingEntry(newTestUserID()))
		gt.NoError(t, err).Required()

		updated, err := repo.ActionLog().Transition(ctx, created.ID,
			[]types.ActionStatus{types.ActionStatusPendingApproval},
			func(e *model.ActionLog) error {
				now := time.Now().UTC()
				e.Status = types.ActionStatusApproved
				e.ApprovedAt = &now
				return nil
			})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Status).Equal(types.ActionStatusApproved)
		gt.Value(t, updated.ApprovedAt).NotNil()
	})

	t.Run("Transition from wrong status leaves the row unchanged", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.ActionLog().Create(ctx, newPendingEntry(newTestUserID()))
		gt.NoError(t, err).Required()

		_, err = repo.ActionLog().Transition(ctx, created.ID,
			[]types.ActionStatus{types.ActionStatusExecuted},
			func(e *model.ActionLog) error {
				e.Status = types.ActionStatusReversed
				return nil
			})
		gt.Error(t, err).Is(interfaces.ErrPreconditionFailed)

		got, err := repo.ActionLog().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.ActionStatusPendingApproval)
	})

	t.Run("Transition on unknown ID returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.ActionLog().Transition(ctx, types.NewActionLogID(),
			[]types.ActionStatus{types.ActionStatusPendingApproval},
			func(e *model.ActionLog) error { return nil })
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("concurrent transitions on one entry yield exactly one success", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.ActionLog().Create(ctx, newPendingEntry(newTestUserID()))
		gt.NoError(t, err).Required()

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = repo.ActionLog().Transition(ctx, created.ID,
					[]types.ActionStatus{types.ActionStatusPendingApproval},
					func(e *model.ActionLog) error {
						now := time.Now().UTC()
						e.Status = types.ActionStatusApproved
						e.ApprovedAt = &now
						return nil
					})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			}
		}
		gt.Value(t, succeeded).Equal(1)

		got, err := repo.ActionLog().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.ActionStatusApproved)
	})

	t.Run("ListByStatus returns newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newTestUserID()

		for i := 0; i < 3; i++ {
			_, err := repo.ActionLog().Create(ctx, newPendingEntry(userID))
			gt.NoError(t, err).Required()
			time.Sleep(5 * time.Millisecond)
		}

		entries, err := repo.ActionLog().ListByStatus(ctx, userID, types.ActionStatusPendingApproval, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(3)
		for i := 1; i < len(entries); i++ {
			gt.B(t, entries[i-1].CreatedAt.Before(entries[i].CreatedAt)).False()
		}

		limited, err := repo.ActionLog().ListByStatus(ctx, userID, types.ActionStatusPendingApproval, 2)
		gt.NoError(t, err).Required()
		gt.Array(t, limited).Length(2)
	})

	t.Run("ListSimilar filters by type, target and statuses", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newTestUserID()

		mk := func(actionTypeID types.ActionTypeID, targetType string, status types.ActionStatus) {
			entry := &model.ActionLog{
				UserID:       userID,
				ActionTypeID: actionTypeID,
				TargetType:   targetType,
				TargetID:     "t-1",
				Status:       status,
			}
			_, err := repo.ActionLog().Create(ctx, entry)
			gt.NoError(t, err).Required()
		}

		mk("send_email_reply", "email_thread", types.ActionStatusExecuted)
		mk("send_email_reply", "email_thread", types.ActionStatusRejected)
		mk("send_email_reply", "email_thread", types.ActionStatusFailed)    // excluded status
		mk("create_reminder", "email_thread", types.ActionStatusExecuted)   // other type
		mk("send_email_reply", "calendar_event", types.ActionStatusExecuted) // other target

		similar, err := repo.ActionLog().ListSimilar(ctx, userID, "send_email_reply", "email_thread",
			[]types.ActionStatus{types.ActionStatusExecuted, types.ActionStatusApproved, types.ActionStatusRejected}, 10)
		gt.NoError(t, err).Required()
		gt.Array(t, similar).Length(2)
	})

	t.Run("ListWithFeedback returns only labeled entries", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newTestUserID()

		fb := types.FeedbackCorrect
		labeled := newPendingEntry(userID)
		labeled.Status = types.ActionStatusExecuted
		labeled.UserFeedback = &fb
		_, err := repo.ActionLog().Create(ctx, labeled)
		gt.NoError(t, err).Required()

		_, err = repo.ActionLog().Create(ctx, newPendingEntry(userID))
		gt.NoError(t, err).Required()

		entries, err := repo.ActionLog().ListWithFeedback(ctx, userID, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, entries).Length(1)
		gt.Value(t, *entries[0].UserFeedback).Equal(types.FeedbackCorrect)
	})

	t.Run("CountByStatus counts only the user's entries", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newTestUserID()

		for i := 0; i < 2; i++ {
			_, err := repo.ActionLog().Create(ctx, newPendingEntry(userID))
			gt.NoError(t, err).Required()
		}
		_, err := repo.ActionLog().Create(ctx, newPendingEntry(newTestUserID()))
		gt.NoError(t, err).Required()

		count, err := repo.ActionLog().CountByStatus(ctx, userID, types.ActionStatusPendingApproval)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(2)
	})

	t.Run("Stats aggregates by status and feedback", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newTestUserID()

		fb := types.FeedbackCorrect
		executed := newPendingEntry(userID)
		executed.Status = types.ActionStatusExecuted
		executed.UserFeedback = &fb
		_, err := repo.ActionLog().Create(ctx, executed)
		gt.NoError(t, err).Required()

		rejected := newPendingEntry(userID)
		rejected.Status = types.ActionStatusRejected
		_, err = repo.ActionLog().Create(ctx, rejected)
		gt.NoError(t, err).Required()

		stats, err := repo.ActionLog().Stats(ctx, userID, nil)
		gt.NoError(t, err).Required()
		gt.Value(t, stats.Total).Equal(2)
		gt.Value(t, stats.ByStatus[types.ActionStatusExecuted]).Equal(1)
		gt.Value(t, stats.ByStatus[types.ActionStatusRejected]).Equal(1)
		gt.Value(t, stats.ByStatus[types.ActionStatusPendingApproval]).Equal(0)
		gt.Value(t, stats.ByFeedback[types.FeedbackCorrect]).Equal(1)
		gt.Value(t, stats.ByFeedback[types.FeedbackWrong]).Equal(0)
	})

	t.Run("Stats with empty window yields zeros", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID := newTestUserID()

		_, err := repo.ActionLog().Create(ctx, newPendingEntry(userID))
		gt.NoError(t, err).Required()

		future := time.Now().UTC().Add(time.Hour)
		stats, err := repo.ActionLog().Stats(ctx, userID, &future)
		gt.NoError(t, err).Required()
		gt.Value(t, stats.Total).Equal(0)
		gt.Value(t, stats.ByStatus[types.ActionStatusPendingApproval]).Equal(0)
	})
}

func TestActionLogRepository_Memory(t *testing.T) {
	runActionLogRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestActionLogRepository_Firestore(t *testing.T) {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	runActionLogRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		repo, err := firestore.New(context.Background(), projectID, databaseID,
			firestore.WithCollectionPrefix("test"))
		gt.NoError(t, err).Required()
		return repo
	})
}

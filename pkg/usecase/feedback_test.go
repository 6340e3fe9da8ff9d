package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/usecase"
)

func TestFeedbackUseCase_AddUserFeedback(t *testing.T) {
	t.Run("feedback on an executed entry", func(t *testing.T) {
		uc := newTestUseCases(t)
		ctx := context.Background()
		entry := proposeAt(t, uc, "archive_email").Entry

		_, err := uc.Ledger.MarkActionExecuted(ctx, entry.ID, nil)
		gt.NoError(t, err).Required()

		labeled, err := uc.Feedback.AddUserFeedback(ctx, entry.ID, types.FeedbackShouldAsk)
		gt.NoError(t, err).Required()
		gt.Value(t, labeled.UserFeedback).NotNil()
		gt.Value(t, *labeled.UserFeedback).Equal(types.FeedbackShouldAsk)
	})

	t.Run("feedback on a rejected entry", func(t *testing.T) {
		uc := newTestUseCases(t)
		ctx := context.Background()
		entry := proposeAt(t, uc, "delete_record").Entry

		_, err := uc.Ledger.RejectAction(ctx, entry.ID, "no")
		gt.NoError(t, err).Required()

		labeled, err := uc.Feedback.AddUserFeedback(ctx, entry.ID, types.FeedbackCorrect)
		gt.NoError(t, err).Required()
		gt.Value(t, *labeled.UserFeedback).Equal(types.FeedbackCorrect)
	})

	t.Run("pending entries cannot be judged", func(t *testing.T) {
		uc := newTestUseCases(t)
		ctx := context.Background()
		entry := proposeAt(t, uc, "delete_record").Entry

		_, err := uc.Feedback.AddUserFeedback(ctx, entry.ID, types.FeedbackCorrect)
		gt.Error(t, err).Is(usecase.ErrActionNotClosed)
	})

	t.Run("approved is a waypoint, not closed", func(t *testing.T) {
		uc := newTestUseCases(t)
		ctx := context.Background()
		entry := proposeAt(t, uc, "archive_email").Entry

		_, err := uc.Feedback.AddUserFeedback(ctx, entry.ID, types.FeedbackCorrect)
		gt.Error(t, err).Is(usecase.ErrActionNotClosed)
	})

	t.Run("feedback is write-once", func(t *testing.T) {
		uc := newTestUseCases(t)
		ctx := context.Background()
		entry := proposeAt(t, uc, "archive_email").Entry

		_, err := uc.Ledger.MarkActionExecuted(ctx, entry.ID, nil)
		gt.NoError(t, err).Required()

		_, err = uc.Feedback.AddUserFeedback(ctx, entry.ID, types.FeedbackCorrect)
		gt.NoError(t, err).Required()

		_, err = uc.Feedback.AddUserFeedback(ctx, entry.ID, types.FeedbackWrong)
		gt.Error(t, err).Is(usecase.ErrFeedbackAlreadySet)

		got, err := uc.Ledger.GetAction(ctx, entry.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, *got.UserFeedback).Equal(types.FeedbackCorrect)
	})

	t.Run("invalid label", func(t *testing.T) {
		uc := newTestUseCases(t)

		_, err := uc.Feedback.AddUserFeedback(context.Background(), types.NewActionLogID(), "meh")
		gt.Error(t, err).Is(usecase.ErrInvalidFeedback)
	})

	t.Run("unknown entry", func(t *testing.T) {
		uc := newTestUseCases(t)

		_, err := uc.Feedback.AddUserFeedback(context.Background(), types.NewActionLogID(), types.FeedbackCorrect)
		gt.Error(t, err).Is(usecase.ErrActionNotFound)
	})
}

func TestFeedbackUseCase_FindSimilarPastActions(t *testing.T) {
	uc := newTestUseCases(t)
	ctx := context.Background()

	// Three archive_email runs against mailbox targets, one rejected delete
	for range 3 {
		entry := proposeAt(t, uc, "archive_email").Entry
		_, err := uc.Ledger.MarkActionExecuted(ctx, entry.ID, nil)
		gt.NoError(t, err).Required()
	}
	deletion := proposeAt(t, uc, "delete_record").Entry
	_, err := uc.Ledger.RejectAction(ctx, deletion.ID, "")
	gt.NoError(t, err).Required()

	similar, err := uc.Feedback.FindSimilarPastActions(ctx, testUserID, "archive_email", "email", 0)
	gt.NoError(t, err).Required()
	gt.Array(t, similar).Length(3)
	for _, e := range similar {
		gt.Value(t, e.ActionTypeID).Equal(types.ActionTypeID("archive_email"))
		gt.Value(t, e.TargetType).Equal("email")
	}

	// Limit caps the result
	similar, err = uc.Feedback.FindSimilarPastActions(ctx, testUserID, "archive_email", "email", 2)
	gt.NoError(t, err).Required()
	gt.Array(t, similar).Length(2)
}

func TestFeedbackUseCase_GetActionsWithFeedback(t *testing.T) {
	uc := newTestUseCases(t)
	ctx := context.Background()

	labeled := proposeAt(t, uc, "archive_email").Entry
	_, err := uc.Ledger.MarkActionExecuted(ctx, labeled.ID, nil)
	gt.NoError(t, err).Required()
	_, err = uc.Feedback.AddUserFeedback(ctx, labeled.ID, types.FeedbackShouldAsk)
	gt.NoError(t, err).Required()

	unlabeled := proposeAt(t, uc, "archive_email").Entry
	_, err = uc.Ledger.MarkActionExecuted(ctx, unlabeled.ID, nil)
	gt.NoError(t, err).Required()

	entries, err := uc.Feedback.GetActionsWithFeedback(ctx, testUserID, 0)
	gt.NoError(t, err).Required()
	gt.Array(t, entries).Length(1)
	gt.Value(t, entries[0].ID).Equal(labeled.ID)
}

func TestFeedbackUseCase_GetActionLogStats(t *testing.T) {
	t.Run("empty ledger renders zeroed buckets", func(t *testing.T) {
		uc := newTestUseCases(t)

		stats, err := uc.Feedback.GetActionLogStats(context.Background(), testUserID, nil)
		gt.NoError(t, err).Required()
		gt.Value(t, stats.Total).Equal(0)
		gt.Value(t, stats.ByStatus[types.ActionStatusExecuted]).Equal(0)
		gt.Value(t, stats.ByFeedback[types.FeedbackCorrect]).Equal(0)
	})

	t.Run("buckets reflect the ledger", func(t *testing.T) {
		uc := newTestUseCases(t)
		ctx := context.Background()

		executed := proposeAt(t, uc, "archive_email").Entry
		_, err := uc.Ledger.MarkActionExecuted(ctx, executed.ID, nil)
		gt.NoError(t, err).Required()
		_, err = uc.Feedback.AddUserFeedback(ctx, executed.ID, types.FeedbackCorrect)
		gt.NoError(t, err).Required()

		rejected := proposeAt(t, uc, "delete_record").Entry
		_, err = uc.Ledger.RejectAction(ctx, rejected.ID, "no")
		gt.NoError(t, err).Required()
		_, err = uc.Feedback.AddUserFeedback(ctx, rejected.ID, types.FeedbackWrong)
		gt.NoError(t, err).Required()

		proposeAt(t, uc, "modify_financial_record") // stays pending

		stats, err := uc.Feedback.GetActionLogStats(ctx, testUserID, nil)
		gt.NoError(t, err).Required()
		gt.Value(t, stats.Total).Equal(3)
		gt.Value(t, stats.ByStatus[types.ActionStatusExecuted]).Equal(1)
		gt.Value(t, stats.ByStatus[types.ActionStatusRejected]).Equal(1)
		gt.Value(t, stats.ByStatus[types.ActionStatusPendingApproval]).Equal(1)
		gt.Value(t, stats.ByFeedback[types.FeedbackCorrect]).Equal(1)
		gt.Value(t, stats.ByFeedback[types.FeedbackWrong]).Equal(1)
		gt.Value(t, stats.ByFeedback[types.FeedbackShouldAuto]).Equal(0)
	})
}

func TestFeedbackUseCase_GetPendingApprovalCount(t *testing.T) {
	uc := newTestUseCases(t)
	ctx := context.Background()

	proposeAt(t, uc, "delete_record")
	proposeAt(t, uc, "modify_financial_record")
	proposeAt(t, uc, "archive_email") // born approved

	count, err := uc.Feedback.GetPendingApprovalCount(ctx, testUserID)
	gt.NoError(t, err).Required()
	gt.Value(t, count).Equal(2)
}

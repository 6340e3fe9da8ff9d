package firestore

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type actionLogRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newActionLogRepository(client *firestore.Client) *actionLogRepository {
	return &actionLogRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *actionLogRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_action_logs"
	}
	return "action_logs"
}

func (r *actionLogRepository) Create(ctx context.Context, entry *model.ActionLog) (*model.ActionLog, error) {
	now := time.Now().UTC()
	created := entry.Clone()
	if created.ID == "" {
		created.ID = types.NewActionLogID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	docRef := r.client.Collection(r.collection()).Doc(created.ID.String())
	if _, err := docRef.Create(ctx, created); err != nil {
		return nil, goerr.Wrap(err, "failed to create action log", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *actionLogRepository) Get(ctx context.Context, id types.ActionLogID) (*model.ActionLog, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "action log not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get action log", goerr.V("id", id))
	}

	var a model.ActionLog
	if err := docSnap.DataTo(&a); err != nil {
		return nil, goerr.Wrap(err, "failed to decode action log", goerr.V("id", id))
	}

	return &a, nil
}

// Transition reads the entry, checks the status precondition against the
// stored value and writes the mutated copy, all inside one transaction. A
// concurrent transition on the same entry retries the transaction, re-reads
// the new status and fails the precondition, so exactly one caller wins.
func (r *actionLogRepository) Transition(ctx context.Context, id types.ActionLogID, from []types.ActionStatus, mutate func(*model.ActionLog) error) (*model.ActionLog, error) {
	docRef := r.client.Collection(r.collection()).Doc(id.String())

	var updated *model.ActionLog
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "action log not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get action log", goerr.V("id", id))
		}

		var entry model.ActionLog
		if err := doc.DataTo(&entry); err != nil {
			return goerr.Wrap(err, "failed to decode action log", goerr.V("id", id))
		}

		allowed := false
		for _, s := range from {
			if entry.Status == s {
				allowed = true
				break
			}
		}
		if !allowed {
			return goerr.Wrap(interfaces.ErrPreconditionFailed, "action log status precondition failed",
				goerr.V("id", id), goerr.V("status", entry.Status), goerr.V("required", from))
		}

		updated = entry.Clone()
		if err := mutate(updated); err != nil {
			return err
		}
		updated.UpdatedAt = time.Now().UTC()

		return tx.Set(docRef, updated)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *actionLogRepository) ListByStatus(ctx context.Context, userID types.UserID, status types.ActionStatus, limit int) ([]*model.ActionLog, error) {
	q := r.client.Collection(r.collection()).
		Where("UserID", "==", string(userID)).
		Where("Status", "==", string(status)).
		OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	return r.query(ctx, q)
}

func (r *actionLogRepository) ListSimilar(ctx context.Context, userID types.UserID, actionTypeID types.ActionTypeID, targetType string, statuses []types.ActionStatus, limit int) ([]*model.ActionLog, error) {
	statusValues := make([]string, 0, len(statuses))
	for _, s := range statuses {
		statusValues = append(statusValues, string(s))
	}

	q := r.client.Collection(r.collection()).
		Where("UserID", "==", string(userID)).
		Where("ActionTypeID", "==", string(actionTypeID)).
		Where("TargetType", "==", targetType).
		Where("Status", "in", statusValues).
		OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	return r.query(ctx, q)
}

func (r *actionLogRepository) ListWithFeedback(ctx context.Context, userID types.UserID, limit int) ([]*model.ActionLog, error) {
	feedbackValues := make([]string, 0, len(types.AllFeedbackLabels()))
	for _, fb := range types.AllFeedbackLabels() {
		feedbackValues = append(feedbackValues, string(fb))
	}

	q := r.client.Collection(r.collection()).
		Where("UserID", "==", string(userID)).
		Where("UserFeedback", "in", feedbackValues).
		OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	return r.query(ctx, q)
}

func (r *actionLogRepository) CountByStatus(ctx context.Context, userID types.UserID, status types.ActionStatus) (int, error) {
	q := r.client.Collection(r.collection()).
		Where("UserID", "==", string(userID)).
		Where("Status", "==", string(status))

	return r.count(ctx, q)
}

// Stats fans out one count query per status and feedback bucket. The
// individual counts are independent, so they run concurrently.
func (r *actionLogRepository) Stats(ctx context.Context, userID types.UserID, since *time.Time) (*model.ActionLogStats, error) {
	stats := model.NewActionLogStats()
	var mu sync.Mutex

	base := r.client.Collection(r.collection()).Where("UserID", "==", string(userID))
	if since != nil {
		base = base.Where("CreatedAt", ">=", since.UTC())
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)

	for _, st := range types.AllActionStatuses() {
		eg.Go(func() error {
			n, err := r.count(ctx, base.Where("Status", "==", string(st)))
			if err != nil {
				return goerr.Wrap(err, "failed to count by status", goerr.V("status", st))
			}
			mu.Lock()
			stats.ByStatus[st] = n
			stats.Total += n
			mu.Unlock()
			return nil
		})
	}

	for _, fb := range types.AllFeedbackLabels() {
		eg.Go(func() error {
			n, err := r.count(ctx, base.Where("UserFeedback", "==", string(fb)))
			if err != nil {
				return goerr.Wrap(err, "failed to count by feedback", goerr.V("feedback", fb))
			}
			mu.Lock()
			stats.ByFeedback[fb] = n
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *actionLogRepository) query(ctx context.Context, q firestore.Query) ([]*model.ActionLog, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	entries := make([]*model.ActionLog, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate action logs")
		}

		var a model.ActionLog
		if err := docSnap.DataTo(&a); err != nil {
			return nil, goerr.Wrap(err, "failed to decode action log", goerr.V("doc_id", docSnap.Ref.ID))
		}

		entries = append(entries, &a)
	}

	return entries, nil
}

func (r *actionLogRepository) count(ctx context.Context, q firestore.Query) (int, error) {
	results, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to run count aggregation")
	}

	raw, ok := results["all"]
	if !ok {
		return 0, goerr.New("count aggregation returned no result")
	}
	value, ok := raw.(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("count aggregation returned unexpected type", goerr.V("value", raw))
	}

	return int(value.GetIntegerValue()), nil
}

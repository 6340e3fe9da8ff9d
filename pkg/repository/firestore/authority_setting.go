package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type authoritySettingRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAuthoritySettingRepository(client *firestore.Client) *authoritySettingRepository {
	return &authoritySettingRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *authoritySettingRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_authority_settings"
	}
	return "authority_settings"
}

func (r *authoritySettingRepository) Get(ctx context.Context, userID types.UserID, actionTypeID types.ActionTypeID) (*model.AuthoritySetting, error) {
	docID := model.SettingKey(userID, actionTypeID)
	docSnap, err := r.client.Collection(r.collection()).Doc(docID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "authority setting not found",
				goerr.V("user_id", userID), goerr.V("action_type_id", actionTypeID))
		}
		return nil, goerr.Wrap(err, "failed to get authority setting",
			goerr.V("user_id", userID), goerr.V("action_type_id", actionTypeID))
	}

	var s model.AuthoritySetting
	if err := docSnap.DataTo(&s); err != nil {
		return nil, goerr.Wrap(err, "failed to decode authority setting", goerr.V("doc_id", docID))
	}

	return &s, nil
}

// Put upserts inside a transaction so CreatedAt of an existing setting is
// preserved even under concurrent writers. The (user, action type) pair is
// the document ID: two racing initializations write the same document, never
// a duplicate row.
func (r *authoritySettingRepository) Put(ctx context.Context, setting *model.AuthoritySetting) (*model.AuthoritySetting, error) {
	docRef := r.client.Collection(r.collection()).Doc(setting.Key())

	stored := setting.Clone()
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		stored.UpdatedAt = now
		stored.CreatedAt = now

		doc, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to check authority setting existence")
		}
		if err == nil {
			var existing model.AuthoritySetting
			if err := doc.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to decode existing authority setting")
			}
			stored.CreatedAt = existing.CreatedAt
		}

		return tx.Set(docRef, stored)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put authority setting",
			goerr.V("user_id", setting.UserID), goerr.V("action_type_id", setting.ActionTypeID))
	}

	return stored, nil
}

func (r *authoritySettingRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.AuthoritySetting, error) {
	iter := r.client.Collection(r.collection()).
		Where("UserID", "==", string(userID)).
		Documents(ctx)
	defer iter.Stop()

	settings := make([]*model.AuthoritySetting, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate authority settings", goerr.V("user_id", userID))
		}

		var s model.AuthoritySetting
		if err := docSnap.DataTo(&s); err != nil {
			return nil, goerr.Wrap(err, "failed to decode authority setting", goerr.V("doc_id", docSnap.Ref.ID))
		}

		settings = append(settings, &s)
	}

	return settings, nil
}

func (r *authoritySettingRepository) DeleteByUser(ctx context.Context, userID types.UserID) (int, error) {
	iter := r.client.Collection(r.collection()).
		Where("UserID", "==", string(userID)).
		Documents(ctx)
	defer iter.Stop()

	removed := 0
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return removed, goerr.Wrap(err, "failed to iterate authority settings", goerr.V("user_id", userID))
		}

		if _, err := docSnap.Ref.Delete(ctx); err != nil {
			return removed, goerr.Wrap(err, "failed to delete authority setting", goerr.V("doc_id", docSnap.Ref.ID))
		}
		removed++
	}

	return removed, nil
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

type authoritySettingRepository struct {
	mu sync.RWMutex
	// keyed by model.SettingKey(userID, actionTypeID); the composite key
	// is what makes the (user, action type) pair unique in this backend
	settings map[string]*model.AuthoritySetting
}

func newAuthoritySettingRepository() *authoritySettingRepository {
	return &authoritySettingRepository{
		settings: make(map[string]*model.AuthoritySetting),
	}
}

func (r *authoritySettingRepository) Get(ctx context.Context, userID types.UserID, actionTypeID types.ActionTypeID) (*model.AuthoritySetting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	setting, exists := r.settings[model.SettingKey(userID, actionTypeID)]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "authority setting not found",
			goerr.V("user_id", userID), goerr.V("action_type_id", actionTypeID))
	}

	return setting.Clone(), nil
}

func (r *authoritySettingRepository) Put(ctx context.Context, setting *model.AuthoritySetting) (*model.AuthoritySetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := setting.Clone()
	stored.UpdatedAt = now

	if existing, exists := r.settings[stored.Key()]; exists {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}

	r.settings[stored.Key()] = stored
	return stored.Clone(), nil
}

func (r *authoritySettingRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.AuthoritySetting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	settings := make([]*model.AuthoritySetting, 0)
	for _, setting := range r.settings {
		if setting.UserID == userID {
			settings = append(settings, setting.Clone())
		}
	}

	return settings, nil
}

func (r *authoritySettingRepository) DeleteByUser(ctx context.Context, userID types.UserID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, setting := range r.settings {
		if setting.UserID == userID {
			delete(r.settings, key)
			removed++
		}
	}

	return removed, nil
}

package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

// AuthorityUseCase resolves the effective authority level for proposed
// actions and manages per-user overrides. Resolution is a pure function of
// the registry and the stored settings: evaluating the same action twice
// against an unchanged configuration always yields the same decision.
type AuthorityUseCase struct {
	repo     interfaces.Repository
	registry *model.ActionTypeRegistry
}

func NewAuthorityUseCase(repo interfaces.Repository, registry *model.ActionTypeRegistry) *AuthorityUseCase {
	return &AuthorityUseCase{
		repo:     repo,
		registry: registry,
	}
}

// GetEffectiveAuthorityLevel returns the user's override for the action
// type when one exists, else the type's catalog default.
func (uc *AuthorityUseCase) GetEffectiveAuthorityLevel(ctx context.Context, userID types.UserID, actionTypeID types.ActionTypeID) (*model.EffectiveAuthority, error) {
	actionType, ok := uc.registry.Get(actionTypeID)
	if !ok {
		return nil, goerr.Wrap(ErrUnknownActionType, "action type is not in the catalog",
			goerr.V(ActionTypeIDKey, actionTypeID))
	}

	setting, err := uc.repo.AuthoritySetting().Get(ctx, userID, actionTypeID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return &model.EffectiveAuthority{
				ActionTypeID: actionTypeID,
				Level:        actionType.DefaultLevel,
				IsOverride:   false,
			}, nil
		}
		return nil, goerr.Wrap(err, "failed to get authority setting",
			goerr.V(UserIDKey, userID), goerr.V(ActionTypeIDKey, actionTypeID))
	}

	return &model.EffectiveAuthority{
		ActionTypeID: actionTypeID,
		Level:        setting.Level,
		IsOverride:   true,
		Conditions:   setting.Conditions,
	}, nil
}

// UpsertAuthoritySetting creates or updates the user's override for an
// action type. Idempotent by construction: the (user, action type) pair is
// the storage key.
func (uc *AuthorityUseCase) UpsertAuthoritySetting(ctx context.Context, userID types.UserID, actionTypeID types.ActionTypeID, level types.AuthorityLevel, conditions []model.Condition) (*model.AuthoritySetting, error) {
	if _, ok := uc.registry.Get(actionTypeID); !ok {
		return nil, goerr.Wrap(ErrUnknownActionType, "action type is not in the catalog",
			goerr.V(ActionTypeIDKey, actionTypeID))
	}

	setting := &model.AuthoritySetting{
		UserID:       userID,
		ActionTypeID: actionTypeID,
		Level:        level,
		Conditions:   conditions,
	}
	if err := setting.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid authority setting")
	}

	stored, err := uc.repo.AuthoritySetting().Put(ctx, setting)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store authority setting",
			goerr.V(UserIDKey, userID), goerr.V(ActionTypeIDKey, actionTypeID))
	}

	return stored, nil
}

// InitializeUserAuthoritySettings seeds a setting at the catalog default
// for every action type the user has no setting for yet, and returns the
// number of settings created. Computing the existing set first makes the
// call safe to repeat; the composite storage key makes it safe to race.
func (uc *AuthorityUseCase) InitializeUserAuthoritySettings(ctx context.Context, userID types.UserID) (int, error) {
	if err := userID.Validate(); err != nil {
		return 0, goerr.Wrap(err, "invalid user ID")
	}

	existing, err := uc.repo.AuthoritySetting().ListByUser(ctx, userID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list authority settings", goerr.V(UserIDKey, userID))
	}

	existingTypes := make(map[types.ActionTypeID]bool, len(existing))
	for _, s := range existing {
		existingTypes[s.ActionTypeID] = true
	}

	created := 0
	for _, actionType := range uc.registry.List() {
		if existingTypes[actionType.ID] {
			continue
		}

		setting := &model.AuthoritySetting{
			UserID:       userID,
			ActionTypeID: actionType.ID,
			Level:        actionType.DefaultLevel,
		}
		if _, err := uc.repo.AuthoritySetting().Put(ctx, setting); err != nil {
			return created, goerr.Wrap(err, "failed to seed authority setting",
				goerr.V(UserIDKey, userID), goerr.V(ActionTypeIDKey, actionType.ID))
		}
		created++
	}

	return created, nil
}

// SetAllAuthorityLevels overrides every action type to the given level for
// one user, preserving existing conditions, and returns the number of
// settings touched. Used for "pause all automation" style toggles; other
// users are unaffected.
func (uc *AuthorityUseCase) SetAllAuthorityLevels(ctx context.Context, userID types.UserID, level types.AuthorityLevel) (int, error) {
	if !level.IsValid() {
		return 0, goerr.New("invalid authority level", goerr.V("level", level))
	}

	existing, err := uc.repo.AuthoritySetting().ListByUser(ctx, userID)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list authority settings", goerr.V(UserIDKey, userID))
	}

	conditionsByType := make(map[types.ActionTypeID][]model.Condition, len(existing))
	for _, s := range existing {
		conditionsByType[s.ActionTypeID] = s.Conditions
	}

	touched := 0
	for _, actionType := range uc.registry.List() {
		setting := &model.AuthoritySetting{
			UserID:       userID,
			ActionTypeID: actionType.ID,
			Level:        level,
			Conditions:   conditionsByType[actionType.ID],
		}
		if _, err := uc.repo.AuthoritySetting().Put(ctx, setting); err != nil {
			return touched, goerr.Wrap(err, "failed to store authority setting",
				goerr.V(UserIDKey, userID), goerr.V(ActionTypeIDKey, actionType.ID))
		}
		touched++
	}

	return touched, nil
}

// BulkUpdateAuthoritySettings applies a list of per-type overrides. Each
// item is upserted independently: one failing item never blocks the others,
// and every item's outcome is reported.
func (uc *AuthorityUseCase) BulkUpdateAuthoritySettings(ctx context.Context, userID types.UserID, items []model.BulkUpdateItem) []model.BulkUpdateOutcome {
	outcomes := make([]model.BulkUpdateOutcome, 0, len(items))

	for _, item := range items {
		_, err := uc.UpsertAuthoritySetting(ctx, userID, item.ActionTypeID, item.Level, item.Conditions)
		outcomes = append(outcomes, model.BulkUpdateOutcome{
			ActionTypeID: item.ActionTypeID,
			Err:          err,
		})
	}

	return outcomes
}

// ListEffectiveAuthority returns the effective authority of every catalog
// action type for one user, used to render a settings dashboard.
func (uc *AuthorityUseCase) ListEffectiveAuthority(ctx context.Context, userID types.UserID) ([]*model.EffectiveAuthority, error) {
	settings, err := uc.repo.AuthoritySetting().ListByUser(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list authority settings", goerr.V(UserIDKey, userID))
	}

	byType := make(map[types.ActionTypeID]*model.AuthoritySetting, len(settings))
	for _, s := range settings {
		byType[s.ActionTypeID] = s
	}

	out := make([]*model.EffectiveAuthority, 0, uc.registry.Len())
	for _, actionType := range uc.registry.List() {
		if s, ok := byType[actionType.ID]; ok {
			out = append(out, &model.EffectiveAuthority{
				ActionTypeID: actionType.ID,
				Level:        s.Level,
				IsOverride:   true,
				Conditions:   s.Conditions,
			})
			continue
		}
		out = append(out, &model.EffectiveAuthority{
			ActionTypeID: actionType.ID,
			Level:        actionType.DefaultLevel,
			IsOverride:   false,
		})
	}

	return out, nil
}

// RemoveUserAuthoritySettings hard-deletes all of a user's settings. Only
// used on account removal.
func (uc *AuthorityUseCase) RemoveUserAuthoritySettings(ctx context.Context, userID types.UserID) (int, error) {
	removed, err := uc.repo.AuthoritySetting().DeleteByUser(ctx, userID)
	if err != nil {
		return removed, goerr.Wrap(err, "failed to delete authority settings", goerr.V(UserIDKey, userID))
	}
	return removed, nil
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/utils/errutil"
)

func (s *Server) handleListActionTypes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"action_types": s.uc.Registry().List(),
	})
}

func (s *Server) handleGetEffectiveAuthority(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))
	actionTypeID := types.ActionTypeID(chi.URLParam(r, "actionTypeID"))

	authority, err := s.uc.Authority.GetEffectiveAuthorityLevel(r.Context(), userID, actionTypeID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, authority)
}

func (s *Server) handleListEffectiveAuthority(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))

	listed, err := s.uc.Authority.ListEffectiveAuthority(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"authority": listed})
}

func (s *Server) handleUpsertAuthority(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))
	actionTypeID := types.ActionTypeID(chi.URLParam(r, "actionTypeID"))

	var req struct {
		Level      types.AuthorityLevel `json:"level"`
		Conditions []model.Condition    `json:"conditions"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	setting, err := s.uc.Authority.UpsertAuthoritySetting(r.Context(), userID, actionTypeID, req.Level, req.Conditions)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, setting)
}

func (s *Server) handleInitializeAuthority(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))

	created, err := s.uc.Authority.InitializeUserAuthoritySettings(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]int{"created": created})
}

func (s *Server) handleSetAllLevels(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))

	var req struct {
		Level types.AuthorityLevel `json:"level"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	if !req.Level.IsValid() {
		errutil.HandleHTTP(r.Context(), w, goerr.New("invalid authority level",
			goerr.V("level", req.Level)), http.StatusBadRequest)
		return
	}

	updated, err := s.uc.Authority.SetAllAuthorityLevels(r.Context(), userID, req.Level)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]int{"updated": updated})
}

func (s *Server) handleBulkUpdateAuthority(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))

	var req struct {
		Items []model.BulkUpdateItem `json:"items"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	outcomes := s.uc.Authority.BulkUpdateAuthoritySettings(r.Context(), userID, req.Items)

	type itemResult struct {
		ActionTypeID types.ActionTypeID `json:"action_type_id"`
		OK           bool               `json:"ok"`
		Error        string             `json:"error,omitempty"`
	}
	results := make([]itemResult, len(outcomes))
	for i, oc := range outcomes {
		results[i] = itemResult{ActionTypeID: oc.ActionTypeID, OK: oc.Err == nil}
		if oc.Err != nil {
			results[i].Error = oc.Err.Error()
		}
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleRemoveUserAuthority(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))

	removed, err := s.uc.Authority.RemoveUserAuthoritySettings(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]int{"removed": removed})
}

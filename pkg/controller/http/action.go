package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/usecase"
	"github.com/secmon-lab/warden/pkg/utils/errutil"
)

func (s *Server) handleProposeAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       types.UserID       `json:"user_id"`
		ActionTypeID types.ActionTypeID `json:"action_type_id"`
		TargetType   string             `json:"target_type"`
		TargetID     string             `json:"target_id"`
		Metadata     map[string]any     `json:"metadata"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	decision, err := s.uc.Ledger.ProposeAction(r.Context(), usecase.ProposeActionInput{
		UserID:       req.UserID,
		ActionTypeID: req.ActionTypeID,
		TargetType:   req.TargetType,
		TargetID:     req.TargetID,
		Metadata:     req.Metadata,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, decision)
}

func (s *Server) handleGetAction(w http.ResponseWriter, r *http.Request) {
	id := types.ActionLogID(chi.URLParam(r, "actionLogID"))

	entry, err := s.uc.Ledger.GetAction(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, entry)
}

func (s *Server) handleApproveAction(w http.ResponseWriter, r *http.Request) {
	id := types.ActionLogID(chi.URLParam(r, "actionLogID"))

	var req struct {
		Metadata map[string]any `json:"metadata"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}
	}

	entry, err := s.uc.Ledger.ApproveAction(r.Context(), id, req.Metadata)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, entry)
}

func (s *Server) handleRejectAction(w http.ResponseWriter, r *http.Request) {
	id := types.ActionLogID(chi.URLParam(r, "actionLogID"))

	var req struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}
	}

	entry, err := s.uc.Ledger.RejectAction(r.Context(), id, req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, entry)
}

func (s *Server) handleMarkExecuted(w http.ResponseWriter, r *http.Request) {
	id := types.ActionLogID(chi.URLParam(r, "actionLogID"))

	var req struct {
		Outcome map[string]any `json:"outcome"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}
	}

	entry, err := s.uc.Ledger.MarkActionExecuted(r.Context(), id, req.Outcome)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, entry)
}

func (s *Server) handleMarkFailed(w http.ResponseWriter, r *http.Request) {
	id := types.ActionLogID(chi.URLParam(r, "actionLogID"))

	var req struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}
	}

	entry, err := s.uc.Ledger.MarkActionFailed(r.Context(), id, req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, entry)
}

func (s *Server) handleMarkReversed(w http.ResponseWriter, r *http.Request) {
	id := types.ActionLogID(chi.URLParam(r, "actionLogID"))

	var req struct {
		Initiator types.ReversalInitiator `json:"initiator"`
		Reason    string                  `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	entry, err := s.uc.Ledger.MarkActionReversed(r.Context(), id, req.Initiator, req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, entry)
}

func (s *Server) handleBatchApprove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs      []types.ActionLogID `json:"ids"`
		Metadata map[string]any      `json:"metadata"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	result := s.uc.Ledger.BatchApproveActions(r.Context(), req.IDs, req.Metadata)
	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleBatchReject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs    []types.ActionLogID `json:"ids"`
		Reason string              `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	result := s.uc.Ledger.BatchRejectActions(r.Context(), req.IDs, req.Reason)
	respondJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleAddFeedback(w http.ResponseWriter, r *http.Request) {
	id := types.ActionLogID(chi.URLParam(r, "actionLogID"))

	var req struct {
		Feedback types.FeedbackLabel `json:"feedback"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	entry, err := s.uc.Feedback.AddUserFeedback(r.Context(), id, req.Feedback)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, entry)
}

func (s *Server) handleListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))

	entries, err := s.uc.Ledger.ListPendingApprovals(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"actions": entries})
}

func (s *Server) handlePendingApprovalCount(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))

	count, err := s.uc.Feedback.GetPendingApprovalCount(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleFindSimilarActions(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))
	actionTypeID := types.ActionTypeID(r.URL.Query().Get("action_type_id"))
	targetType := r.URL.Query().Get("target_type")
	limit := queryInt(r, "limit", 0)

	if actionTypeID == "" || targetType == "" {
		errutil.HandleHTTP(r.Context(), w,
			goerr.New("action_type_id and target_type query parameters are required"),
			http.StatusBadRequest)
		return
	}

	entries, err := s.uc.Feedback.FindSimilarPastActions(r.Context(), userID, actionTypeID, targetType, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"actions": entries})
}

func (s *Server) handleListActionsWithFeedback(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))
	limit := queryInt(r, "limit", 0)

	entries, err := s.uc.Feedback.GetActionsWithFeedback(r.Context(), userID, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"actions": entries})
}

func (s *Server) handleActionLogStats(w http.ResponseWriter, r *http.Request) {
	userID := types.UserID(chi.URLParam(r, "userID"))

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w,
				goerr.Wrap(err, "since must be RFC3339"), http.StatusBadRequest)
			return
		}
		since = &ts
	}

	stats, err := s.uc.Feedback.GetActionLogStats(r.Context(), userID, since)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, stats)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

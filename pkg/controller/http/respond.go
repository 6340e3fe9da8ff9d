package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/usecase"
	"github.com/secmon-lab/warden/pkg/utils/errutil"
)

func respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data) //nolint:errcheck // header already committed
}

// respondError maps use case sentinel errors to HTTP status codes. Anything
// unrecognized is a 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusFromError(err))
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, usecase.ErrActionNotFound),
		errors.Is(err, usecase.ErrSettingNotFound):
		return http.StatusNotFound

	case errors.Is(err, usecase.ErrUnknownActionType),
		errors.Is(err, usecase.ErrInvalidFeedback),
		errors.Is(err, usecase.ErrInvalidReversalInit):
		return http.StatusBadRequest

	case errors.Is(err, usecase.ErrActionNotTransitionable),
		errors.Is(err, usecase.ErrActionNotClosed),
		errors.Is(err, usecase.ErrFeedbackAlreadySet):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return goerr.Wrap(err, "failed to decode request body")
	}
	return nil
}

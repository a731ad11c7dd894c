package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Jonatasvm/pagamento-sub000/internal/auth"
	"github.com/Jonatasvm/pagamento-sub000/internal/core"
	"github.com/Jonatasvm/pagamento-sub000/internal/services"
	"github.com/Jonatasvm/pagamento-sub000/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto the status codes the frontend keys on:
// 422 sends the user back to the form, 401 clears the stored token, 409
// tells the review table someone else got there first.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case errors.Is(err, services.ErrRequestLocked), errors.Is(err, services.ErrEditInProgress):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	default:
		slog.Error("Internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func isValidationError(err error) bool {
	for _, v := range []error{
		core.ErrInvalidAmount,
		core.ErrMissingObra,
		core.ErrMissingReferente,
		core.ErrMissingTitular,
		core.ErrMissingDocumento,
		core.ErrMissingChavePix,
		core.ErrMissingVencimento,
		core.ErrScheduleSum,
		core.ErrTooManyParcelas,
		core.ErrInvalidMethod,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

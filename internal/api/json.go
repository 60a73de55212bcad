package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/knowgraph/knowgraph/internal/mastery"
	"github.com/knowgraph/knowgraph/internal/session"
	"github.com/knowgraph/knowgraph/internal/signup"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missing  *mastery.MissingAnswerError
		inputErr *signup.InputError
		persist  *signup.PersistenceError
	)
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(missing.UserMessage()))
	case errors.Is(err, mastery.ErrEmptySelection):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("Please select an answer"))
	case mastery.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, session.ErrLocked):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, session.ErrClosed):
		writeJSON(w, http.StatusGone, errorBody(err.Error()))
	case errors.As(err, &inputErr):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{
			Error:  signup.UserMessage(err),
			Fields: inputErr.Fields(),
		})
	case errors.Is(err, signup.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(signup.UserMessage(err)))
	case errors.As(err, &persist):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(signup.UserMessage(err)))
	default:
		slog.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/knowgraph/knowgraph/internal/session"
	"github.com/knowgraph/knowgraph/internal/signup"
)

// Handler holds API route handlers.
type Handler struct {
	sessions *session.Manager
	signups  *signup.Service
	broker   *Broker
	logger   *slog.Logger
	now      func() time.Time
}

// Catalog handles GET /api/catalog.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newCatalogResponse(h.sessions.Catalog()))
}

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+s.ID())
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	s, ok := h.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody(fmt.Sprintf("session %q not found", id)))
		return nil, false
	}
	return s, true
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// EndSession handles DELETE /api/sessions/{id}.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.End(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Select handles POST /api/sessions/{id}/select.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := s.Select(req.CapsuleID, req.QuestionIndex, req.Option); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// Submit handles POST /api/sessions/{id}/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	out, err := s.Submit(req.CapsuleID, req.QuestionIndex)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := s.Snapshot()
	writeJSON(w, http.StatusOK, submitResponse{
		Outcome: newOutcomeDTO(s.Catalog(), out, snap.States[req.CapsuleID]),
		Session: snap,
	})
}

// capsuleAction handles the single-capsule POSTs: reveal, replay, goto.
func (h *Handler) capsuleAction(apply func(*session.Session, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.session(w, r)
		if !ok {
			return
		}
		var req capsuleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		if err := apply(s, req.CapsuleID); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}

// SessionEvents handles GET /api/sessions/{id}/events. The first event is
// a full snapshot.
func (h *Handler) SessionEvents(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	first := StreamEvent{Type: "snapshot", Data: sessionEventDTO{Kind: "snapshot", Session: s.Snapshot()}}
	h.broker.Stream(w, r, s.ID(), &first)
}

// publishSession forwards session events to the broker. It is registered
// on every session the manager creates.
func (h *Handler) publishSession(s *session.Session) {
	s.Subscribe(func(ev session.Event) {
		if ev.Kind == session.EventEnded {
			h.broker.CloseTopic(ev.SessionID)
			return
		}
		h.broker.Publish(ev.SessionID, StreamEvent{
			Type: string(ev.Kind),
			Data: sessionEventDTO{Kind: ev.Kind, CapsuleID: ev.CapsuleID, Session: s.Snapshot()},
		})
	})
}

// CreateSignup handles POST /api/signups.
func (h *Handler) CreateSignup(w http.ResponseWriter, r *http.Request) {
	var in signup.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	rec, err := h.signups.Submit(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":      rec.ID,
		"message": signup.UserMessage(nil),
	})
}

func filterFromQuery(r *http.Request) (signup.Filter, error) {
	q := r.URL.Query()
	f := signup.Filter{
		Role:   signup.Role(q.Get("role")),
		Plan:   signup.Plan(q.Get("plan")),
		Search: q.Get("q"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errors.New("limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f, nil
}

// ListSignups handles GET /api/admin/signups.
func (h *Handler) ListSignups(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	items, err := h.signups.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []signup.Signup{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"signups": items,
		"total":   len(items),
	})
}

// ExportSignups handles GET /api/admin/signups/export?format=csv|xlsx. The
// listing filters apply.
func (h *Handler) ExportSignups(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if !slices.Contains(signup.ExportFormats, format) {
		writeJSON(w, http.StatusBadRequest, errorBody(signup.ErrExportFormat.Error()))
		return
	}

	items, err := h.signups.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := signup.Export(&buf, format, items); err != nil {
		writeError(w, r, fmt.Errorf("export %s: %w", format, err))
		return
	}

	w.Header().Set("Content-Type", signup.ContentType(format))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, signup.ExportFileName(h.now(), format)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// SignupStats handles GET /api/admin/stats.
func (h *Handler) SignupStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.signups.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

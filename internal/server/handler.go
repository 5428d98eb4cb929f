package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/codewalk-dev/codewalk/internal/export"
	"github.com/codewalk-dev/codewalk/internal/playback"
	"github.com/codewalk-dev/codewalk/internal/session"
	"github.com/codewalk-dev/codewalk/internal/timemap"
)

const requestTimeout = 10 * time.Second

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler builds a Handler over a session store.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Routes assembles the full router, middleware included.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logging(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/sessions", h.ListSessions)
		r.Post("/sessions", h.CreateSession)
		r.Get("/sessions/{id}", h.GetSession)
		r.Delete("/sessions/{id}", h.DeleteSession)
		r.Get("/sessions/{id}/audio", h.GetAudio)
		r.Get("/sessions/{id}/code", h.GetCode)
	})
	r.Get("/healthz", h.Health)

	return r
}

// Health handles health check requests.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListSessions handles GET /v1/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	metas, err := h.store.List(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if metas == nil {
		metas = []session.Meta{}
	}
	h.respondJSON(w, http.StatusOK, metas)
}

// CreateSession handles POST /v1/sessions. The body is a session JSON
// document in any accepted wire form; it is normalized before storage.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<20))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	rec, err := session.Decode(body)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid session document")
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	if err := h.store.Save(r.Context(), rec); err != nil {
		if errors.Is(err, session.ErrExists) {
			h.respondError(w, http.StatusConflict, "session already exists")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to store session")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]string{"id": rec.ID})
}

// GetSession handles GET /v1/sessions/{id}, returning the full document with
// locally stored audio inlined so the response is self-contained.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	data, err := (&export.JSONRenderer{InlineAudio: true}).Render(rec)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to encode session")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "session not found")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAudio handles GET /v1/sessions/{id}/audio, serving the narration bytes
// with their MIME type. Remote references redirect instead.
func (h *Handler) GetAudio(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if !rec.HasAudio() {
		h.respondError(w, http.StatusNotFound, "session has no audio")
		return
	}
	if rec.Audio.Kind == session.PayloadExternal && strings.HasPrefix(rec.Audio.URL, "http") {
		http.Redirect(w, r, rec.Audio.URL, http.StatusFound)
		return
	}
	data, err := rec.Audio.Bytes()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to read audio payload")
		return
	}
	w.Header().Set("Content-Type", rec.Audio.MIME)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetCode handles GET /v1/sessions/{id}/code?t=<effectiveMs>. The alternative
// audio_t query takes a raw-timeline position and maps it first. Out-of-range
// times clamp to the session bounds.
func (h *Handler) GetCode(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var t int64
	switch {
	case q.Has("t"):
		v, err := strconv.ParseInt(q.Get("t"), 10, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "t must be an integer millisecond offset")
			return
		}
		t = v
	case q.Has("audio_t"):
		v, err := strconv.ParseInt(q.Get("audio_t"), 10, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "audio_t must be an integer millisecond offset")
			return
		}
		t = timemap.New(rec.AudioEvents).AudioToEffective(v)
	default:
		h.respondError(w, http.StatusBadRequest, "missing t or audio_t query parameter")
		return
	}

	if t < 0 {
		t = 0
	}
	if d := rec.Duration(); t > d {
		t = d
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"time": t,
		"code": playback.ReconstructAt(rec, t),
	})
}

// loadSession fetches the session in the URL, writing the error response
// itself when that fails.
func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (*session.Recording, bool) {
	id := chi.URLParam(r, "id")
	rec, err := h.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "session not found")
			return nil, false
		}
		h.logger.Error("loading session", "id", id, "err", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load session")
		return nil, false
	}
	return rec, true
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}

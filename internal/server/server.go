package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Tiliavir/medrem/internal/model"
	"github.com/Tiliavir/medrem/internal/store"
)

// Options configures the router.
type Options struct {
	Store store.Store
	// Logger receives one line per write; nil discards.
	Logger *slog.Logger
	// AccessLog enables chi's request logger.
	AccessLog bool
}

type handler struct {
	store store.Store
	log   *slog.Logger
}

type envelope struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message,omitempty"`
	Medicines []model.Medicine `json:"medicines,omitempty"`
}

// NewRouter returns the record API handler.
func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &handler{store: opts.Store, log: log}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if opts.AccessLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/medicines", func(mr chi.Router) {
		mr.Get("/", h.list)
		mr.Post("/", h.create)
		mr.Get("/search", h.search)
		mr.Put("/{id}", h.update)
		mr.Delete("/{id}", h.remove)
	})
	return r
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		h.fail(w, r, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, listEnvelope(records))
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		h.fail(w, r, "search", err)
		return
	}
	query := strings.ToLower(r.URL.Query().Get("q"))
	filtered := []model.Medicine{}
	for _, m := range records {
		if strings.Contains(strings.ToLower(m.Name), query) {
			filtered = append(filtered, m)
		}
	}
	writeJSON(w, http.StatusOK, listEnvelope(filtered))
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var f model.Fields
	if !decodeFields(w, r, &f) {
		return
	}
	m, err := h.store.Add(r.Context(), f)
	if err != nil {
		h.fail(w, r, "create", err)
		return
	}
	h.log.Info("medicine added", "id", m.ID, "name", m.Name, "request_id", chimw.GetReqID(r.Context()))
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Medicine '" + m.Name + "' added successfully"})
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var f model.Fields
	if !decodeFields(w, r, &f) {
		return
	}
	m, err := h.store.Update(r.Context(), id, f)
	if err != nil {
		h.fail(w, r, "update", err)
		return
	}
	h.log.Info("medicine updated", "id", m.ID, "name", m.Name, "request_id", chimw.GetReqID(r.Context()))
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Medicine updated successfully"})
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	m, err := h.store.Remove(r.Context(), id)
	if err != nil {
		h.fail(w, r, "delete", err)
		return
	}
	h.log.Info("medicine removed", "id", m.ID, "name", m.Name, "request_id", chimw.GetReqID(r.Context()))
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Medicine '" + m.Name + "' removed successfully"})
}

// fail maps a store error to a status code and an envelope message.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var dup *store.DuplicateError
	switch {
	case errors.Is(err, store.ErrRequired):
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Name and time are required"})
	case errors.Is(err, store.ErrInvalidTime):
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Time must be HH:MM"})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, envelope{Message: "Medicine not found"})
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, envelope{Message: "Medicine '" + dup.Name + "' already exists"})
	default:
		h.log.Error("store failure", "op", op, "err", err, "request_id", chimw.GetReqID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, envelope{Message: "Failed to save medicine data"})
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, envelope{Message: "Medicine not found"})
		return 0, false
	}
	return id, true
}

func decodeFields(w http.ResponseWriter, r *http.Request, f *model.Fields) bool {
	if err := json.NewDecoder(r.Body).Decode(f); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Invalid request body"})
		return false
	}
	return true
}

func listEnvelope(records []model.Medicine) any {
	if records == nil {
		records = []model.Medicine{}
	}
	// medicines must be present even when empty.
	return struct {
		Success   bool             `json:"success"`
		Medicines []model.Medicine `json:"medicines"`
	}{Success: true, Medicines: records}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"trackany/internal/model"
	"trackany/internal/prefs"
	"trackany/internal/repo"
)

type EventsHandler struct {
	Events *repo.Events
	Colors *prefs.Colors
	Charts *prefs.Charts
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.Events.List(r.Context())
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

type createEventReq struct {
	EventName  string  `json:"event_name"`
	EventType  string  `json:"event_type"`
	ScaleLabel *string `json:"scale_label"`
	ScaleMax   *int    `json:"scale_max"`
	Color      string  `json:"color"`
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.EventName = strings.TrimSpace(req.EventName)

	created, err := h.Events.Create(r.Context(), model.Event{
		EventName:  req.EventName,
		EventType:  model.EventType(req.EventType),
		ScaleLabel: req.ScaleLabel,
		ScaleMax:   req.ScaleMax,
		Color:      req.Color,
	})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, repo.ErrNoSession) {
			status = http.StatusUnauthorized
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch model.EventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	updated, err := h.Events.Update(r.Context(), id, patch)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Events.Delete(r.Context(), id); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveReq struct {
	Direction string `json:"direction"` // "up" or "down"
}

func (h *EventsHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	ordered, err := h.Events.List(r.Context())
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	index := -1
	for i, ev := range ordered {
		if ev.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch req.Direction {
	case "up":
		err = h.Events.MoveUp(ordered, index)
	case "down":
		err = h.Events.MoveDown(ordered, index)
	default:
		http.Error(w, "direction must be up or down", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventsHandler) SyncPositions(w http.ResponseWriter, r *http.Request) {
	if err := h.Events.SyncPositionsToDatabase(r.Context()); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type colorReq struct {
	Color string `json:"color"`
}

// SetColor writes the color overlay; the overlay itself fires the detached
// backend update.
func (h *EventsHandler) SetColor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req colorReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Color == "" {
		http.Error(w, "color required", http.StatusBadRequest)
		return
	}
	h.Colors.Set(id, req.Color)
	w.WriteHeader(http.StatusNoContent)
}

type chartReq struct {
	ChartType string `json:"chart_type"` // "line" or "bar"
}

func (h *EventsHandler) SetChart(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req chartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	t := model.ChartType(req.ChartType)
	if t != model.ChartTypeLine && t != model.ChartTypeBar {
		http.Error(w, "chart_type must be line or bar", http.StatusBadRequest)
		return
	}

	ev, err := h.Events.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	h.Charts.Set(ev.EventName, t)
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, repo.ErrNoSession):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

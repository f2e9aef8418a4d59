package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"trackany/internal/model"
	"trackany/internal/repo"
)

type LogsHandler struct {
	Logs *repo.Logs
}

// List serves the full collection or one of the filtered views, depending
// on which query parameter is present: event_id, event_name, or from+to
// (RFC3339).
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		logs []model.Log
		err  error
	)
	switch {
	case q.Get("event_id") != "":
		var eventID uuid.UUID
		eventID, err = uuid.Parse(q.Get("event_id"))
		if err != nil {
			http.Error(w, "invalid event_id", http.StatusBadRequest)
			return
		}
		logs, err = h.Logs.ListByEvent(r.Context(), eventID)
	case q.Get("event_name") != "":
		logs, err = h.Logs.ListByEventName(r.Context(), q.Get("event_name"))
	case q.Get("from") != "" && q.Get("to") != "":
		var from, to time.Time
		from, err = time.Parse(time.RFC3339, q.Get("from"))
		if err == nil {
			to, err = time.Parse(time.RFC3339, q.Get("to"))
		}
		if err != nil {
			http.Error(w, "from/to must be RFC3339", http.StatusBadRequest)
			return
		}
		logs, err = h.Logs.ListByDateRange(r.Context(), from, to)
	default:
		logs, err = h.Logs.List(r.Context())
	}
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

type createLogReq struct {
	EventID   string  `json:"event_id"`
	EventName string  `json:"event_name"`
	Value     float64 `json:"value"`
	LogDate   *string `json:"log_date"` // YYYY-MM-DD, optional
}

func (h *LogsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLogReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		http.Error(w, "invalid event_id", http.StatusBadRequest)
		return
	}

	in := model.Log{
		EventID:   eventID,
		EventName: strings.TrimSpace(req.EventName),
		Value:     req.Value,
	}
	if req.LogDate != nil && *req.LogDate != "" {
		t, err := time.Parse("2006-01-02", *req.LogDate)
		if err != nil {
			http.Error(w, "log_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		d := datatypes.Date(t)
		in.LogDate = &d
	}

	created, err := h.Logs.Create(r.Context(), in)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *LogsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch model.LogPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	updated, err := h.Logs.Update(r.Context(), id, patch)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *LogsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Logs.Delete(r.Context(), id); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

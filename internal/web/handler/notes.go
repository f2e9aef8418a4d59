package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"trackany/internal/model"
	"trackany/internal/repo"
)

type NotesHandler struct {
	Notes *repo.Notes
}

func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		notes []model.Note
		err   error
	)
	if v := r.URL.Query().Get("event_id"); v != "" {
		eventID, perr := uuid.Parse(v)
		if perr != nil {
			http.Error(w, "invalid event_id", http.StatusBadRequest)
			return
		}
		notes, err = h.Notes.ListByEvent(r.Context(), eventID)
	} else {
		notes, err = h.Notes.List(r.Context())
	}
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

type createNoteReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	EventID     string  `json:"event_id"`
	StartDate   string  `json:"start_date"` // RFC3339
}

func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, "title required", http.StatusBadRequest)
		return
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		http.Error(w, "invalid event_id", http.StatusBadRequest)
		return
	}
	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		http.Error(w, "start_date must be RFC3339", http.StatusBadRequest)
		return
	}

	created, err := h.Notes.Create(r.Context(), model.Note{
		Title:       req.Title,
		Description: req.Description,
		EventID:     eventID,
		StartDate:   startDate,
	})
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch model.NotePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	updated, err := h.Notes.Update(r.Context(), id, patch)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Notes.Delete(r.Context(), id); err != nil {
		writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"trackany/internal/notify"
)

// ChangesHandler exposes a monotonically increasing revision fed by the
// change notifier. The web UI polls it and re-queries the collections when
// the revision moves; the signal itself carries no payload.
type ChangesHandler struct {
	revision atomic.Uint64
}

func NewChangesHandler(n *notify.Notifier) *ChangesHandler {
	h := &ChangesHandler{}
	n.Subscribe(func() {
		h.revision.Add(1)
	})
	return h
}

func (h *ChangesHandler) Changes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"revision": h.revision.Load(),
	})
}

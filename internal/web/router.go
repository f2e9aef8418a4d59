// Package web is the companion web API: a thin HTTP surface over the synced
// repositories for the signed-in user. It never queries entity tables
// directly; every read and write goes through the repository layer so the
// cache and change signal stay coherent.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"trackany/internal/auth"
	"trackany/internal/config"
	"trackany/internal/notify"
	"trackany/internal/prefs"
	"trackany/internal/repo"
	"trackany/internal/session"
	"trackany/internal/web/handler"
	mw "trackany/internal/web/middleware"
)

// Deps carries everything the router serves from.
type Deps struct {
	DB       *gorm.DB
	JWT      *auth.JWT
	Session  *session.Session
	Events   *repo.Events
	Logs     *repo.Logs
	Notes    *repo.Notes
	Colors   *prefs.Colors
	Charts   *prefs.Charts
	Notifier *notify.Notifier
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: d.DB, JWT: d.JWT, Session: d.Session}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)
	r.Post("/auth/logout", ah.Logout)

	me := &handler.MeHandler{}
	r.With(auth.RequireAuth(d.JWT)).Get("/me", me.Me)

	eventsH := &handler.EventsHandler{Events: d.Events, Colors: d.Colors, Charts: d.Charts}
	logsH := &handler.LogsHandler{Logs: d.Logs}
	notesH := &handler.NotesHandler{Notes: d.Notes}
	changesH := handler.NewChangesHandler(d.Notifier)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))
		r.Use(mw.RequireSession(d.Session))

		r.Get("/changes", changesH.Changes)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventsH.List)
			r.Post("/", eventsH.Create)
			r.Post("/positions/sync", eventsH.SyncPositions)
			r.Patch("/{id}", eventsH.Update)
			r.Delete("/{id}", eventsH.Delete)
			r.Post("/{id}/move", eventsH.Move)
			r.Put("/{id}/color", eventsH.SetColor)
			r.Put("/{id}/chart", eventsH.SetChart)
		})

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", logsH.List)
			r.Post("/", logsH.Create)
			r.Patch("/{id}", logsH.Update)
			r.Delete("/{id}", logsH.Delete)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", notesH.List)
			r.Post("/", notesH.Create)
			r.Patch("/{id}", notesH.Update)
			r.Delete("/{id}", notesH.Delete)
		})
	})

	return r
}

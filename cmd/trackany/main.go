package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trackany/internal/auth"
	"trackany/internal/cache"
	"trackany/internal/config"
	"trackany/internal/notify"
	"trackany/internal/prefs"
	"trackany/internal/remote"
	"trackany/internal/repo"
	"trackany/internal/session"
	"trackany/internal/web"
)

func main() {
	cfg, _ := config.Load()

	backend, err := remote.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := backend.AutoMigrateAndIndexes(); err != nil {
		log.Fatal(err)
	}

	store, err := cache.Open(cfg.CachePath, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	notifier := notify.New()
	positions := prefs.NewPositions(store)
	colors := prefs.NewColors(store)
	charts := prefs.NewCharts(store)
	tasks := repo.NewTaskRunner(nil)

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	sess := session.New(store, jwtSvc, nil)

	opts := repo.Options{
		Remote:    backend,
		Cache:     store,
		Notifier:  notifier,
		Users:     sess,
		Tasks:     tasks,
		Positions: positions,
		Colors:    colors,
		Cooldown:  cfg.RefreshCooldown,
	}
	events := repo.NewEvents(opts)
	logs := repo.NewLogs(opts)
	notes := repo.NewNotes(opts)
	sess.SetPreload(events.Refresh, logs.Refresh, notes.Refresh)

	r := web.NewRouter(cfg, web.Deps{
		DB:       backend.Gorm(),
		JWT:      jwtSvc,
		Session:  sess,
		Events:   events,
		Logs:     logs,
		Notes:    notes,
		Colors:   colors,
		Charts:   charts,
		Notifier: notifier,
	})

	// resume an existing session across restarts
	if token := os.Getenv("SESSION_TOKEN"); token != "" {
		if err := sess.SignIn(context.Background(), token); err != nil {
			log.Printf("session resume failed: %v", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	tasks.Wait()
}

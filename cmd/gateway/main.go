package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/mindengage-courses/internal/api/http"
	auth "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/config"
	"github.com/mind-engage/mindengage-courses/internal/course"
	"github.com/mind-engage/mindengage-courses/internal/db"
	"github.com/mind-engage/mindengage-courses/internal/grading"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/notify"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

func main() {
	cfg := config.FromEnv()

	host, _ := os.Hostname()
	lg := logger.NewRollbarLogger(log.Default(), logger.Options{
		Token: cfg.RollbarToken,
		Env:   cfg.Env,
		Host:  host,
	})
	defer lg.Flush()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	driver := db.Driver(cfg.DBDriver)
	dbh, err := db.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()
	store := course.NewSQLStore(db.NewSQLX(dbh, driver))

	// --- Notifications ---
	var mailer notify.Mailer
	if cfg.SendGridAPIKey != "" {
		mailer = notify.NewSendGridMailer(cfg.SendGridAPIKey, cfg.AppName, cfg.DefaultFromEmail)
	} else {
		mailer = notify.NewConsoleMailer(lg, cfg.AppName, cfg.DefaultFromEmail)
	}
	notes := notify.NewSQLStore(dbh, driver.SQLName(), cfg.SiteID)
	dispatcher := notify.NewDispatcher(notes, mailer, lg, cfg.NotifyQueueSize)
	dispatcher.Start(context.Background())

	// --- Engine ---
	checker := rbac.NewChecker(nil)
	engine := course.New(store, dispatcher, checker, lg, course.Options{
		StrictQuizGate: cfg.StrictQuizGate,
		AppName:        cfg.AppName,
		Grader:         grading.NewDefaultGrader(),
	})

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, auth.LoginConfig{
			EnableLocalAuth: cfg.EnableLocalAuth,
			AdminUser:       cfg.AdminUser,
			AdminPassHash:   cfg.AdminPassHash,
		}, store))
	}

	courses := &api.CourseAPI{Engine: engine, Log: lg}
	notifications := &api.NotificationsAPI{Store: notes, Log: lg}
	users := &api.UsersAPI{Store: store, Engine: engine, Log: lg}

	// Protected API (JWT → role from the users table → engine policy)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromStore(store, cfg.AdminUser, cfg.Mode == config.ModeOffline))

		courses.Mount(pr)
		notifications.Mount(pr)

		pr.With(checker.Require(rbac.PermUsersManage)).
			Post("/users/bulk", users.BulkUpsert())
		pr.With(checker.RequireAny(rbac.PermUsersList, rbac.PermUsersManage)).
			Get("/users", users.List())
		pr.With(checker.Require(rbac.PermUsersManage)).
			Patch("/users/{userID}/status", users.SetStatus())
		pr.Post("/users/change-password", users.ChangePassword())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := dbh.PingContext(ctx); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		lg.Info("listening", map[string]interface{}{"addr": cfg.HTTPAddr, "mode": string(cfg.Mode), "db": cfg.DBDriver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown", err)
	}
	dispatcher.Close()
}

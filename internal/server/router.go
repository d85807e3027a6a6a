package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"github.com/diewo77/smartstore/auth"
	"github.com/diewo77/smartstore/httpx"
	"github.com/diewo77/smartstore/internal/handlers"
	"github.com/diewo77/smartstore/internal/services"
	"github.com/diewo77/smartstore/internal/storage"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, store *storage.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Health endpoints ---
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	svc := services.NewSmartphoneService(db)
	uh := handlers.NewUserHandler(db)
	sh := handlers.NewSmartphoneHandler(db, svc, store)
	th := handlers.NewTagHandler(db, svc)
	ih := handlers.NewImageHandler(db, store)

	r.Route("/api", func(r chi.Router) {
		// open endpoints: account creation and token exchange
		r.Post("/users", uh.Create)
		r.Post("/users/token", uh.Token)

		// everything else requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireToken(db))

			r.Get("/users/me", uh.Me)
			r.Put("/users/me", uh.UpdateMe)
			r.Patch("/users/me", uh.UpdateMe)

			r.Route("/smartphones", func(r chi.Router) {
				r.Get("/", sh.List)
				r.Post("/", sh.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", sh.Detail)
					r.Put("/", sh.Update)
					r.Patch("/", sh.Update)
					r.Delete("/", sh.Delete)
					r.Post("/upload-image", sh.UploadImage)
					r.Post("/upload-video", sh.UploadVideo)
				})
			})

			r.Route("/tags", func(r chi.Router) {
				r.Get("/", th.List)
				r.Post("/", th.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", th.Detail)
					r.Put("/", th.Update)
					r.Patch("/", th.Update)
					r.Delete("/", th.Delete)
				})
			})

			r.Route("/smartphone-images", func(r chi.Router) {
				r.Get("/", ih.List)
				r.Post("/", ih.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", ih.Detail)
					r.Put("/", ih.Update)
					r.Patch("/", ih.Update)
					r.Delete("/", ih.Delete)
				})
			})
		})
	})

	return r
}

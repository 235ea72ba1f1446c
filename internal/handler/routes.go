package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/msomdec/lensart-api/internal/domain"
	"github.com/msomdec/lensart-api/internal/service"
	"github.com/rs/cors"
)

// RouterConfig carries everything the HTTP layer needs.
type RouterConfig struct {
	Auth        *service.AuthService
	Collections *service.CollectionService
	Photos      *service.PhotoService
	Blobs       domain.BlobStore

	CORSOrigins        []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	LoginLimitAttempts int
	LoginLimitWindow   time.Duration
}

// NewRouter sets up all HTTP routes under /api.
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Auth)
	collectionHandler := NewCollectionHandler(cfg.Collections)
	photoHandler := NewPhotoHandler(cfg.Photos)
	uploadsHandler := NewUploadsHandler(cfg.Blobs)
	requireAdmin := RequireAdmin(cfg.Auth)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(corsHandler.Handler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Login attempts are counted per client IP over a fixed window,
			// successful or not.
			r.With(httprate.Limit(
				cfg.LoginLimitAttempts,
				cfg.LoginLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, "Too many login attempts, please try again later")
				}),
			)).Post("/login", authHandler.HandleLogin)
			r.Post("/verify", authHandler.HandleVerify)
		})

		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(
				cfg.RateLimitRequests,
				cfg.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, "Too many requests from this IP, please try again later")
				}),
			))

			r.Get("/health", HandleHealth)
			r.Get("/uploads/{filename}", uploadsHandler.HandleServe)

			r.Route("/collections", func(r chi.Router) {
				r.Get("/", collectionHandler.HandleListPublished)
				r.With(requireAdmin).Get("/admin", collectionHandler.HandleListAll)
				r.With(requireAdmin).Post("/", collectionHandler.HandleCreate)
				r.With(requireAdmin).Put("/{id}", collectionHandler.HandleUpdate)
				r.With(requireAdmin).Delete("/{id}", collectionHandler.HandleDelete)
			})

			r.Route("/photos", func(r chi.Router) {
				r.Get("/collection/{collectionId}", photoHandler.HandleListByCollection)
				r.With(requireAdmin).Get("/admin", photoHandler.HandleListAll)
				r.With(requireAdmin).Post("/upload", photoHandler.HandleUpload)
				r.With(requireAdmin).Put("/{id}", photoHandler.HandleUpdate)
				r.With(requireAdmin).Delete("/{id}", photoHandler.HandleDelete)
			})
		})
	})

	return r
}

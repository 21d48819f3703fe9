package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/jason-s-yu/courtside/internal/middleware"
	"github.com/jason-s-yu/courtside/internal/presence"
	"github.com/sirupsen/logrus"
)

// RouterConfig carries the dependencies of the HTTP API.
type RouterConfig struct {
	Directory *directory.Service
	Hub       *presence.Hub
	Logger    *logrus.Logger

	// Production restricts CORS to AllowedOrigins.
	Production     bool
	AllowedOrigins []string
}

// NewRouter builds the chi router serving the court directory API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	dir := cfg.Directory

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(middleware.LogMiddleware(logger))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: func() []string {
			// allow only configured origins in production mode
			if cfg.Production {
				return cfg.AllowedOrigins
			}
			return []string{"https://*", "http://*"}
		}(),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/courts", func(r chi.Router) {
		r.Get("/", ListCourtsHandler(logger, dir))
		r.Get("/nearby", NearbyCourtsHandler(logger, dir))
		if cfg.Hub != nil {
			r.Get("/ws", PresenceWSHandler(logger, dir, cfg.Hub, cfg.Production, cfg.AllowedOrigins))
		}
		r.Get("/{id}", GetCourtHandler(logger, dir))
		r.Get("/{id}/players", CourtPlayersHandler(logger, dir))
	})
	r.Get("/players", ListPlayersHandler(logger, dir))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/otp", RequestOTPHandler(logger, dir))
		r.Post("/otp/verify", VerifyOTPHandler(logger, dir))
		r.Post("/login", LoginHandler(logger, dir))
		r.Post("/signup", SignupHandler(logger, dir))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(logger))
		r.Post("/checkins", CheckInHandler(logger, dir))
		r.Get("/profile", GetProfileHandler(logger, dir))
		r.Patch("/profile", UpdateProfileHandler(logger, dir))
	})

	return r
}

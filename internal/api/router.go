package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mirrorlabs/claude-gateway/internal/api/handler"
	custommw "github.com/mirrorlabs/claude-gateway/internal/api/middleware"
	"github.com/mirrorlabs/claude-gateway/internal/config"
	"github.com/mirrorlabs/claude-gateway/internal/repository/memory"
	"github.com/mirrorlabs/claude-gateway/internal/repository/redis"
	"github.com/mirrorlabs/claude-gateway/internal/service"
)

// NewRouter creates and configures the HTTP router. redisClient may be nil,
// in which case rate limiting is disabled.
func NewRouter(cfg *config.Config, store *memory.SessionStore, completions *service.CompletionService, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommw.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	chatHandler := handler.NewChatHandler(completions)
	sessionHandler := handler.NewSessionHandler(store)

	r.Get("/health", handler.HealthCheck)

	r.Route("/v1", func(r chi.Router) {
		r.Use(custommw.APIKeyAuth(cfg.Auth.APIKey))

		if redisClient != nil {
			rateLimiter := redis.NewRateLimiter(
				redisClient,
				cfg.Security.RateLimit.RequestsPerMinute,
				cfg.Security.RateLimit.Burst,
			)
			r.Use(custommw.NewRateLimitMiddleware(rateLimiter).Limit)
		}

		r.Post("/chat/completions", chatHandler.Completions)
		r.Get("/models", handler.ListModels)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessionHandler.List)
			r.Get("/stats", sessionHandler.Stats)
			r.Get("/{sessionID}", sessionHandler.Get)
			r.Delete("/{sessionID}", sessionHandler.Delete)
		})
	})

	return r
}

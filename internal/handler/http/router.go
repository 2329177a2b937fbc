package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Navau/teslo-shop-nest/internal/domain"
	"github.com/Navau/teslo-shop-nest/internal/service"
	"github.com/Navau/teslo-shop-nest/pkg/health"
	"github.com/Navau/teslo-shop-nest/pkg/middleware"
)

// RouterConfig bundles the dependencies needed to build the HTTP router.
type RouterConfig struct {
	AuthService    *service.AuthService
	ProductService *service.ProductService
	SeedService    *service.SeedService
	HealthHandler  *health.Handler
	// WebsocketHandler serves GET /ws. Optional; omitted in some tests.
	WebsocketHandler http.HandlerFunc
	Logger           *slog.Logger
	CORS             CORSConfig
	ServiceName      string
}

// NewTokenVerifier bridges the auth service into the middleware's verifier
// contract, mapping a verified user onto the request principal.
func NewTokenVerifier(authService *service.AuthService) middleware.TokenVerifier {
	return func(ctx context.Context, token string) (*middleware.Principal, error) {
		user, err := authService.VerifyToken(ctx, token)
		if err != nil {
			return nil, err
		}
		return principalFromUser(user), nil
	}
}

func principalFromUser(user *domain.User) *middleware.Principal {
	return &middleware.Principal{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Roles:    user.Roles,
	}
}

// NewRouter creates a chi router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))

	// Health check and metrics endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	verifyToken := NewTokenVerifier(cfg.AuthService)

	// Auth endpoints
	authHandler := NewAuthHandler(cfg.AuthService, cfg.Logger)
	r.Route("/api/auth", func(r chi.Router) {
		r.With(ContentTypeJSON).Post("/register", authHandler.Register)
		r.With(ContentTypeJSON).Post("/login", authHandler.Login)
		r.With(middleware.Auth(verifyToken)).Get("/check-status", authHandler.CheckStatus)
	})

	// Product endpoints: reads are public, writes need a token, and
	// updates and deletes additionally need an elevated role.
	productHandler := NewProductHandler(cfg.ProductService, cfg.Logger)
	r.Route("/api/products", func(r chi.Router) {
		r.With(middleware.CacheControl(60)).Get("/", productHandler.List)
		r.With(middleware.CacheControl(60)).Get("/{term}", productHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.Auth(verifyToken))

			r.Post("/", productHandler.Create)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(domain.RoleAdmin, domain.RoleSuperUser))

				r.Put("/{id}", productHandler.Update)
				r.Delete("/{id}", productHandler.Delete)
			})
		})
	})

	// Seed endpoint
	seedHandler := NewSeedHandler(cfg.SeedService, cfg.Logger)
	r.Get("/api/seed", seedHandler.Run)

	// Live websocket gateway
	if cfg.WebsocketHandler != nil {
		r.Get("/ws", cfg.WebsocketHandler)
	}

	return r
}

package router

import (
	"net/http"

	"github.com/brewpos/api/internal/config"
	"github.com/brewpos/api/internal/database"
	"github.com/brewpos/api/internal/handler"
	mw "github.com/brewpos/api/internal/middleware"
	"github.com/brewpos/api/internal/service"
	"github.com/brewpos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// New creates a Chi router with all application routes wired up.
// Everything except /health and /ws requires a bearer token; admin-only
// routes are gated inside each handler's RegisterRoutes.
func New(cfg *config.Config, queries *database.Queries, pool service.DB, hub *ws.Hub, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	loc := cfg.Location()
	cartService := service.NewCartService(pool, func(db database.DBTX) service.CartStore {
		return database.New(db)
	}, hub, logger.Named("cart"))
	analyticsService := service.NewAnalyticsService(queries, loc)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		meHandler := handler.NewMeHandler(queries, logger)
		r.Get("/me", meHandler.Get)

		menuHandler := handler.NewMenuItemHandler(queries, hub, logger)
		r.Route("/menu-items", menuHandler.RegisterRoutes)

		catalogHandler := handler.NewCatalogHandler(queries, logger)
		r.Route("/add-ons", catalogHandler.RegisterAddOnRoutes)
		r.Route("/item-modifiers", catalogHandler.RegisterModifierRoutes)

		cartHandler := handler.NewCartHandler(cartService, logger)
		r.Route("/cart", cartHandler.RegisterRoutes)

		txHandler := handler.NewTransactionHandler(cartService, loc, logger)
		r.Route("/transactions", txHandler.RegisterRoutes)

		analyticsHandler := handler.NewAnalyticsHandler(analyticsService, loc, logger)
		r.Route("/analytics", analyticsHandler.RegisterRoutes)
	})

	logger.Info("router initialized")
	return r
}

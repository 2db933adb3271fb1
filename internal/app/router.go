package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/linemk/season-swap/internal/app/handlers"
	"github.com/linemk/season-swap/internal/config"
	"github.com/linemk/season-swap/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/season-swap/internal/lib/logger/handlers/urllog"
	"github.com/linemk/season-swap/internal/lib/metrics"
	"github.com/linemk/season-swap/internal/lib/ratelimit"
	"github.com/linemk/season-swap/internal/service"
)

// Services - всё, что нужно HTTP-слою
type Services struct {
	Auth    service.AuthServiceInterface
	Profile service.ProfileService
	Info    service.InfoService
	Catalog service.CatalogService
	Ledger  handlers.BalanceService
	Trade   service.TradeService
}

// NewRouter регистрирует маршруты. Всё, кроме регистрации, входа и метрик, требует JWT.
func NewRouter(log *slog.Logger, cfg *config.Config, svc Services, limiter *ratelimit.Limiter) *chi.Mux {
	router := chi.NewRouter()

	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(metrics.InstrumentHandler)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Handle("/metrics", metrics.Handler())
	router.Post("/api/register", handlers.RegisterHandler(log, svc.Auth))
	router.Post("/api/login", handlers.LoginHandler(log, svc.Auth))

	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware(cfg.JWT.Secret))
		r.Use(limiter.Handler)

		r.Route("/api/trade", func(r chi.Router) {
			r.Post("/request", handlers.CreateTradeHandler(log, svc.Trade))
			r.Get("/pending", handlers.PendingTradesHandler(log, svc.Trade))
			r.Post("/accept/{tradeId}", handlers.AcceptTradeHandler(log, svc.Trade))
			r.Post("/decline/{tradeId}", handlers.DeclineTradeHandler(log, svc.Trade))
		})

		r.Post("/api/products", handlers.CreateProductHandler(log, svc.Catalog))
		r.Get("/api/products", handlers.ListProductsHandler(log, svc.Catalog))
		r.Get("/api/products/{season}", handlers.ListProductsHandler(log, svc.Catalog))

		r.Get("/api/user/coins", handlers.CoinsHandler(log, svc.Ledger))
		r.Get("/api/profile", handlers.GetProfileHandler(log, svc.Profile))
		r.Put("/api/profile", handlers.UpdateProfileHandler(log, svc.Profile))
		r.Get("/api/info", handlers.InfoHandler(log, svc.Info))
	})

	return router
}

package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/sipocalypse/api/internal/daily"
	"github.com/sipocalypse/api/internal/promo"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Sipocalypse API", "/openapi.json", "/docs"))
	if deps.Metrics != nil {
		r.Method("GET", "/metrics", deps.Metrics.Handler())
	}

	// Public generation endpoints.
	r.Post("/api/generate-game", handleGenerateGame(logger, deps))
	r.Post("/api/send-cocktail", handleSendCocktail(logger, deps))

	// Admin auth.
	r.Group(func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(deps.Limiter.Middleware)
		}
		r.Post("/api/admin/login", handleAdminLogin(logger, deps))
	})
	r.Get("/api/admin/session", handleAdminSession(deps.Sessions))
	r.Post("/api/admin/logout", handleAdminLogout(deps))
	r.Get("/api/admin/setup-check", handleSetupCheck(deps))

	// Admin routes backed by the store.
	var (
		orchestrator *daily.Orchestrator
		promotions   *promo.Service
	)
	if deps.Store != nil {
		orchestrator = daily.NewOrchestrator(deps.Store, logger)
		promotions = promo.NewService(deps.Store, deps.Images, deps.Poster, logger)
	}

	r.Group(func(r chi.Router) {
		r.Use(requireStore(deps))
		r.Use(requireAdmin(deps.Sessions))

		r.Get("/api/admin/games", handleListGames(deps))
		r.Post("/api/admin/games", handleCreateGame(logger, deps))
		r.Post("/api/admin/daily-run", handleDailyRun(logger, deps, orchestrator))
		r.Post("/api/admin/generate-winner-image", handleGenerateWinnerImage(logger, deps, promotions))
		r.Post("/api/admin/post-winner", handlePostWinner(logger, deps, promotions))
		r.Get("/api/admin/winner-today", handleWinnerToday(deps))
		r.Get("/api/admin/winners", handleWinners(deps))
	})

	if spaDir := deps.Config.SPADir; spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}

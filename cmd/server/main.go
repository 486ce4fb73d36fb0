package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/sipocalypse/api/internal/ai"
	"github.com/sipocalypse/api/internal/config"
	"github.com/sipocalypse/api/internal/handler/health"
	"github.com/sipocalypse/api/internal/leads"
	"github.com/sipocalypse/api/internal/logging"
	"github.com/sipocalypse/api/internal/mail"
	"github.com/sipocalypse/api/internal/server"
	"github.com/sipocalypse/api/internal/session"
	"github.com/sipocalypse/api/internal/sheets"
	"github.com/sipocalypse/api/internal/social"
	"github.com/sipocalypse/api/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, logCloser := logging.New(stdout, cfg.LogLevel, cfg.LogFile)
	defer logCloser.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	deps := server.Deps{
		Config:   cfg,
		Location: loc,
		Sessions: session.NewCodec(cfg.AdminSessionSecret),
		Gate:     session.NewGate(cfg.AdminEmails, cfg.AdminPassword, cfg.AdminPasswordBcrypt),
		Metrics:  server.NewMetrics(),
	}
	checks := map[string]health.Checker{}

	// --- Store ---
	repo, closeStore, err := store.Open(ctx, store.Options{
		Backend: cfg.StoreBackend,
		Sheets: sheets.Config{
			SpreadsheetID: cfg.SheetsSpreadsheetID,
			ClientEmail:   cfg.SheetsClientEmail,
			PrivateKey:    cfg.SheetsPrivateKey,
		},
		DBPath: cfg.DBPath,
	})
	switch {
	case errors.Is(err, store.ErrNotConfigured):
		logger.Warn("store not configured, admin routes disabled", "backend", cfg.StoreBackend)
	case err != nil:
		return fmt.Errorf("opening store: %w", err)
	default:
		deps.Store = repo
		checks["store"] = health.CheckerFunc(repo.Ping)
		logger.Info("store ready", "backend", cfg.StoreBackend)
	}
	defer closeStore()

	// --- AI ---
	if cfg.OpenAIAPIKey != "" {
		oa := ai.NewOpenAI(ai.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			ImageModel: cfg.OpenAIImageModel,
			BaseURL:    cfg.OpenAIBaseURL,
		})
		deps.Text = oa
		deps.Images = oa
	}
	if cfg.AIProvider == "gemini" {
		if cfg.GeminiAPIKey == "" {
			return errors.New("AI_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		gm, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		defer gm.Close()
		deps.Text = gm
	}
	if deps.Text == nil {
		logger.Warn("no text provider configured, generation routes disabled")
	}

	// --- Mail ---
	mailer, err := mail.NewResend(cfg.ResendAPIKey, cfg.ResendFromEmail, "", nil)
	switch {
	case errors.Is(err, mail.ErrNotConfigured):
		logger.Warn("resend not configured, cocktail emails disabled")
	case err != nil:
		return err
	default:
		deps.Mailer = mailer
	}

	// --- Leads ---
	if cfg.LeadWebhookURL != "" {
		deps.Leads = append(deps.Leads, leads.NewWebhook(cfg.LeadWebhookURL, cfg.LeadWebhookSecret, &http.Client{Timeout: 10 * time.Second}))
	}
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		sb, err := leads.NewSupabase(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseTable)
		if err != nil {
			return err
		}
		deps.Leads = append(deps.Leads, sb)
	}

	// --- Telegram ---
	tg, err := social.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, "", nil)
	switch {
	case errors.Is(err, social.ErrNotConfigured):
		logger.Info("telegram not configured, winner posting disabled")
	case err != nil:
		return err
	default:
		deps.Poster = tg
	}

	// --- Redis ---
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		deps.Limiter = server.NewRateLimiter(server.NewRedisCounter(rdb), "sipocalypse:login", 10, time.Minute)
		checks["redis"] = health.CheckerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, deps, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat_backend/internal/auth"
	"chat_backend/internal/chats"
	"chat_backend/internal/config"
	"chat_backend/internal/http_server/handlers/chat"
	"chat_backend/internal/http_server/handlers/login"
	"chat_backend/internal/http_server/handlers/logout"
	"chat_backend/internal/http_server/handlers/me"
	"chat_backend/internal/http_server/handlers/refresh"
	"chat_backend/internal/http_server/handlers/resend_verification"
	"chat_backend/internal/http_server/handlers/reset_confirm"
	"chat_backend/internal/http_server/handlers/reset_request"
	"chat_backend/internal/http_server/handlers/signup"
	"chat_backend/internal/http_server/handlers/verify"
	"chat_backend/internal/http_server/middleware/authz"
	"chat_backend/internal/lib/actiontoken"
	tokens "chat_backend/internal/lib/jwt"
	"chat_backend/internal/models"
	"chat_backend/internal/rabbitmq"
	"chat_backend/internal/storage/postgres"
	redisstore "chat_backend/internal/storage/redis"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting chat backend", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	revocations, err := redisstore.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer revocations.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer msgBroker.Close()

	authService := auth.New(
		log,
		storage,
		storage,
		revocations,
		tokens.NewManager(cfg.Tokens.JWTSecret, cfg.Tokens.AccessTokenTTL, cfg.Tokens.RefreshTokenTTL),
		actiontoken.NewCodec(cfg.Tokens.JWTSecret),
		msgBroker,
		auth.Options{
			VerificationMaxAge: cfg.Tokens.VerificationMaxAge,
			ResetMaxAge:        cfg.Tokens.ResetMaxAge,
			RotateRefresh:      cfg.Auth.RotateRefresh,
			FrontendDomain:     cfg.FrontendDomain,
		},
	)

	agent := chats.NewHTTPAgent(cfg.Agent.URL, cfg.Agent.Timeout)
	chatService := chats.New(log, storage, agent)

	router := setupRouter(log, authService, chatService, authz.Policy(cfg.Auth.RolePolicy))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	authService *auth.Auth,
	chatService *chats.Service,
	rolePolicy authz.Policy,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	validate := validator.New()

	r.Post("/signup", signup.New(log, validate, authService))
	r.Post("/login", login.New(log, validate, authService))
	r.Get("/refresh", refresh.New(log, authService))
	r.Get("/logout", logout.New(log, authService))
	r.Get("/verify/{token}", verify.New(log, authService))
	r.Post("/resend-verification", resend_verification.New(log, validate, authService))
	r.Post("/password-reset-request", reset_request.New(log, validate, authService))
	r.Post("/password-reset-confirm/{token}", reset_confirm.New(log, validate, authService))

	r.Group(func(r chi.Router) {
		r.Use(authz.New(log, authService, rolePolicy, models.RoleUser, models.RoleAdmin))

		r.Get("/me", me.New(log, authService))
		r.Post("/chats", chat.NewSend(log, validate, chatService))
		r.Get("/chats/{chatID}", chat.NewHistory(log, chatService))
	})

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

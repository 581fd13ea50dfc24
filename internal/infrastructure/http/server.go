package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/paywatch/subscription-service/internal/adapter/archive"
	handlers "github.com/paywatch/subscription-service/internal/adapter/handler/http"
	"github.com/paywatch/subscription-service/internal/adapter/mail"
	"github.com/paywatch/subscription-service/internal/config"
	"github.com/paywatch/subscription-service/internal/infrastructure/database"
	"github.com/paywatch/subscription-service/internal/infrastructure/gateway/xendit"
	"github.com/paywatch/subscription-service/internal/middleware/auth"
	"github.com/paywatch/subscription-service/internal/usecase"
	"github.com/paywatch/subscription-service/internal/webhook"
	"github.com/paywatch/subscription-service/pkg/logger"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	repos  *database.Repositories
}

func NewServer(cfg *config.Config, log *zap.Logger, repos *database.Repositories) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	return &Server{
		config: cfg,
		logger: log,
		echo:   e,
		repos:  repos,
	}
}

func (s *Server) Start() error {
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Shared infrastructure
	mailer := mail.NewSMTPMailer(s.config.Email, s.logger)
	gatewayClient := xendit.NewClient(
		s.config.Service.Xendit.APIKey,
		s.config.Service.Xendit.BaseURL,
		s.logger)
	archiver := archive.NewFileArchiver(s.config.Service.WebhookArchiveDir, s.logger)
	authenticator := webhook.NewAuthenticator(
		s.config.Service.Xendit.CallbackToken,
		s.config.Service.Xendit.WebhookSecret,
		s.logger)

	// Usecases
	reconciler := usecase.NewReconciler(s.repos.Subscription, s.repos.User, mailer, s.logger)
	recheck := usecase.NewRecheckService(s.repos.Subscription, gatewayClient, mailer, s.logger)
	subscriptionService := usecase.NewSubscriptionService(
		s.repos.Subscription, s.repos.User, gatewayClient, mailer,
		s.logger, s.config.Service.ClientURL)

	// Handlers
	webhookHandler := handlers.NewWebhookHandler(authenticator, reconciler, archiver, s.logger)
	plansHandler := handlers.NewPlansHandler(s.logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, recheck, s.logger)

	// Gateway callback endpoint. Authentication is the callback token,
	// not JWT.
	s.echo.POST("/webhook", webhookHandler.HandleWebhook)

	// JWT middleware configuration
	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			"/webhook",
			"/api/v1/plans",
		},
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Public routes
	v1.GET("/plans", plansHandler.GetPlans)

	// Protected routes
	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))

	subscriptions := protected.Group("/subscriptions")
	subscriptions.POST("", subscriptionHandler.Purchase)
	subscriptions.GET("/:id/payment", subscriptionHandler.GetPaymentStatus)
}

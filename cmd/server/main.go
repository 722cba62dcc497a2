package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HoVietThang190704/social-app-sub001/internal/auth"
	"github.com/HoVietThang190704/social-app-sub001/internal/cache"
	"github.com/HoVietThang190704/social-app-sub001/internal/config"
	"github.com/HoVietThang190704/social-app-sub001/internal/database"
	"github.com/HoVietThang190704/social-app-sub001/internal/handlers"
	"github.com/HoVietThang190704/social-app-sub001/internal/logger"
	"github.com/HoVietThang190704/social-app-sub001/internal/metrics"
	"github.com/HoVietThang190704/social-app-sub001/internal/middleware"
	"github.com/HoVietThang190704/social-app-sub001/internal/notifications"
	"github.com/HoVietThang190704/social-app-sub001/internal/telemetry"
	"github.com/HoVietThang190704/social-app-sub001/internal/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const serviceName = "social-app-notifications"

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("server starting",
		zap.String("service", serviceName),
		zap.String("environment", cfg.Environment))

	db, err := database.Initialize(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		logger.FatalWithFields("failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("failed to run migrations", err)
	}

	// Redis is optional; without it the unread counters always hit the database
	var redisClient *cache.RedisClient
	if cfg.RedisHost != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	tracerProvider, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.SamplingRate,
	})
	if err != nil {
		logger.Log.Warn("tracing disabled", zap.Error(err))
	}
	if tracerProvider != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracerProvider.Shutdown(ctx)
		}()
	}

	m := metrics.New()

	wsHub := websocket.NewHub(m)
	wsHandler := websocket.NewHandler(wsHub, cfg.JWTSecret)
	wsHandler.RegisterDefaultHandlers()
	go wsHub.Run()

	authService := auth.NewService(db, cfg.JWTSecret)
	notificationService := notifications.NewService(db, wsHub, redisClient, m)

	h := handlers.NewHandlers(authService, notificationService)
	h.SetWebSocketHandler(wsHandler)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.GinLogger())
	if tracerProvider != nil {
		r.Use(otelgin.Middleware(serviceName))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"service":   serviceName,
			"timestamp": time.Now().UTC(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", authService.Middleware(), h.Me)
		}

		notificationGroup := api.Group("/notifications")
		{
			notificationGroup.Use(authService.Middleware())
			notificationGroup.GET("", h.GetNotifications)
			notificationGroup.GET("/summary", h.GetNotificationSummary)
			notificationGroup.PATCH("/:id/read", h.MarkNotificationRead)
			notificationGroup.PATCH("/read-all", h.MarkAllNotificationsRead)

			admin := notificationGroup.Group("")
			admin.Use(middleware.RequireAdmin())
			admin.POST("", h.SendNotification)
			admin.POST("/broadcast", h.BroadcastNotification)
		}

		ws := api.Group("/ws")
		{
			// Auth via ?token=..., Authorization header, or a later auth message
			ws.GET("", wsHandler.HandleWebSocket)
			ws.GET("/connect", wsHandler.HandleWebSocket)
			ws.GET("/stats", authService.Middleware(), wsHandler.HandleStats)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wsHandler.Shutdown(ctx); err != nil {
		logger.Log.Warn("websocket shutdown", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("server forced to shutdown", err)
	}

	logger.Log.Info("server exited")
}

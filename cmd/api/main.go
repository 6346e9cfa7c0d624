package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/culture-king-api/internal/config"
	"github.com/yourusername/culture-king-api/internal/handler"
	"github.com/yourusername/culture-king-api/internal/middleware"
	pgRepo "github.com/yourusername/culture-king-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/culture-king-api/internal/repository/redis"
	"github.com/yourusername/culture-king-api/internal/service"
	"github.com/yourusername/culture-king-api/internal/service/questions"
	"github.com/yourusername/culture-king-api/internal/service/scoring"
	ws "github.com/yourusername/culture-king-api/internal/websocket"
	"github.com/yourusername/culture-king-api/pkg/auth"
	"github.com/yourusername/culture-king-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	attemptRepo := pgRepo.NewAttemptRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Верификатор токенов identity-провайдера
	verifier, err := auth.NewIdentityVerifier(cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.JWKSURL)
	if err != nil {
		log.Printf("Failed to initialize IdentityVerifier: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	questionSource := questions.NewSource(cfg.Trivia, cfg.Challenge.QuestionCount, cacheRepo)
	scoringCfg := scoring.DefaultConfig()
	storeTimeout := cfg.Challenge.StoreTimeoutDuration()

	challengeService := service.NewChallengeService(
		attemptRepo,
		questionSource,
		scoringCfg,
		cfg.Challenge.QuestionCount,
		storeTimeout,
	)
	leaderboardService := service.NewLeaderboardService(attemptRepo, cfg.Challenge.LeaderboardSize, storeTimeout)

	// Живая лента лидерборда
	hub := ws.NewHub()
	hubDone := make(chan struct{})
	go hub.Run(hubDone)
	challengeService.SetBroadcaster(hub)

	// Инициализируем обработчики
	challengeHandler := handler.NewChallengeHandler(challengeService)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)
	healthHandler := handler.NewHealthHandler(db, redisClient)
	wsHandler := handler.NewWSHandler(hub)

	authMiddleware := middleware.NewAuthMiddleware(verifier)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	// В production (GIN_MODE=release): не доверяем прокси (защита от IP spoofing)
	// В development: доверяем localhost
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	allowedOrigins := cfg.Server.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	api.Use(rateLimiter.Limit(middleware.DefaultAPIRateLimitConfig()))
	{
		// Дневной челлендж (требует аутентификации)
		daily := api.Group("/daily-challenge")
		daily.Use(authMiddleware.RequireAuth())
		{
			daily.GET("", challengeHandler.GetDailyChallenge)
			daily.POST("", rateLimiter.Limit(middleware.SubmitRateLimitConfig()), challengeHandler.SubmitResult)
			daily.DELETE("/reset", challengeHandler.ResetAttempt)
		}

		// Лидерборды и статистика (публичные маршруты)
		api.GET("/daily-leaderboard", leaderboardHandler.GetDailyLeaderboard)
		api.GET("/leaderboards", leaderboardHandler.GetLeaderboard)
		api.GET("/leaderboards/export", leaderboardHandler.ExportLeaderboard)
		api.GET("/stats", leaderboardHandler.GetStats)

		api.GET("/health", healthHandler.GetHealth)
	}

	// WebSocket маршрут живой ленты
	router.GET("/ws/leaderboard", wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// После получения сигнала SIGINT или SIGTERM начинаем graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем живую ленту
	close(hubDone)

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}

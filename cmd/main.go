package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"lumi/internal/caching"
	"lumi/internal/handlers"
	"lumi/internal/jobs/background"
	custommw "lumi/internal/middleware"
	"lumi/internal/models"
	"lumi/internal/repositories"
	"lumi/internal/services"
	"lumi/pkg/database"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
)

const apiVersion = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := database.NewPool(dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.NewBootstrap().Ensure(ctx, pool); err != nil {
		log.Fatalf("Failed to prepare database schema: %v", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32)
		log.Println("WARN: JWT_SECRET not set, using a random secret; sessions will not survive restarts")
	}
	tokenTTL := 86400
	if raw := os.Getenv("SESSION_TTL_SECONDS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			tokenTTL = parsed
		}
	}

	var cacheSvc caching.CacheService
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisDB := 0
		if raw := os.Getenv("REDIS_DB"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				redisDB = parsed
			}
		}
		cacheSvc = caching.NewRedisCacheService(redisAddr, os.Getenv("REDIS_PASSWORD"), redisDB)
	} else {
		log.Println("REDIS_ADDR not set, role caching and rate limiting disabled")
	}

	userRepo := repositories.NewUserRepo(pool)
	inviteRepo := repositories.NewInviteRepo(pool)
	profileRepo := repositories.NewProfileRepo(pool)
	resetRepo := repositories.NewResetTokenRepo(pool)

	appBaseURL := os.Getenv("APP_BASE_URL")
	if appBaseURL == "" {
		appBaseURL = "http://localhost:3000"
	}
	emailSvc := services.NewEmailService(os.Getenv("RESEND_API_KEY"), os.Getenv("RESEND_FROM"), appBaseURL)

	authSvc := services.NewAuthService(userRepo, profileRepo, inviteRepo, jwtSecret, tokenTTL)
	inviteSvc := services.NewInviteService(inviteRepo, userRepo, profileRepo, emailSvc)
	accountSvc := services.NewAccountService(userRepo, inviteRepo)
	resetSvc := services.NewPasswordResetService(userRepo, resetRepo, emailSvc)

	var oauthSvc services.OAuthService
	if jwksURL := os.Getenv("OAUTH_JWKS_URL"); jwksURL != "" {
		oauthSvc, err = services.NewOAuthService(userRepo, authSvc, services.OAuthConfig{
			Provider: envOrDefault("OAUTH_PROVIDER", "google"),
			JWKSURL:  jwksURL,
			Issuer:   os.Getenv("OAUTH_ISSUER"),
			Audience: os.Getenv("OAUTH_AUDIENCE"),
		})
		if err != nil {
			log.Fatalf("Failed to initialize OAuth: %v", err)
		}
	} else {
		log.Println("OAUTH_JWKS_URL not set, OAuth sign-in disabled")
	}

	scheduler, err := background.NewJobScheduler(inviteRepo, resetRepo)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	authHandler := handlers.NewAuthHandler(authSvc, oauthSvc, userRepo, cacheSvc)
	clientHandler := handlers.NewClientHandler(inviteSvc)
	registrationHandler := handlers.NewRegistrationHandler(accountSvc)
	resetHandler := handlers.NewPasswordResetHandler(resetSvc, cacheSvc)
	settingsHandler := handlers.NewSettingsHandler(inviteSvc)
	healthHandler := handlers.NewHealthHandler(pool, cacheSvc, apiVersion)

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(custommw.APIVersion(apiVersion))

	e.GET("/health", healthHandler.Check)

	v1 := e.Group("/v1")
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/oauth", authHandler.OAuth)
	v1.GET("/register/:token", registrationHandler.GetInvite)
	v1.POST("/register", registrationHandler.Register)
	v1.POST("/password-reset/request", resetHandler.RequestReset)
	v1.GET("/password-reset/:token", resetHandler.ValidateToken)
	v1.POST("/password-reset", resetHandler.Reset)

	session := custommw.Session(authSvc, profileRepo, cacheSvc)
	authed := v1.Group("", session)
	authed.GET("/me", authHandler.Me)

	trainer := v1.Group("/clients", session, custommw.RequireRole(models.RoleTrainer))
	trainer.GET("", clientHandler.ListClients)
	trainer.POST("/invites", clientHandler.CreateInvite)
	trainer.DELETE("/:id", clientHandler.RemoveClient)

	client := v1.Group("/settings", session, custommw.RequireRole(models.RoleClient))
	client.PUT("", settingsHandler.UpdateSettings)

	port := envOrDefault("PORT", "8080")
	log.Fatal(e.Start(":" + port))
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"authbridge"
	"authbridge/database"
	"authbridge/handlers"
	"authbridge/mail"
	"authbridge/middleware"
	"authbridge/ratelimit"
	"authbridge/repository"
	"authbridge/service"
	"authbridge/token"
)

func main() {
	cfg := authbridge.LoadConfig()

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	log.SetFormatter(&logrus.JSONFormatter{})

	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	userRepo := repository.NewUserRepository(db)
	deviceRepo := repository.NewDeviceTokenRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	tokenRepo := repository.NewRedisTokenRepository(redisClient)
	sessionRepo := repository.NewRedisSessionRepository(redisClient)

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn, cfg.JWT.RefreshExpiresIn, cfg.JWT.SessionExpiresIn)

	linker := service.NewLinkerService(userRepo, accountRepo, log, cfg.Identity.LoudSyncFailures)
	tokenService := service.NewTokenService(tokens, userRepo, deviceRepo, tokenRepo, cfg.JWT.GracePeriod, log)

	var mailer service.Mailer
	if cfg.Mail.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.Mail)
	}
	authService := service.NewAuthService(userRepo, tokenService, linker, mailer, cfg.Auth, log)
	identityService := service.NewIdentityService(accountRepo, userRepo, sessionRepo, linker, tokens, cfg.Identity, log)

	limiter := ratelimit.New(cfg.RateLimit)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter.StartSweep(ctx, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)

	authMiddleware := middleware.NewAuthMiddleware(tokens, tokenRepo, userRepo, identityService)
	authHandler := handlers.NewAuthHandler(authService, identityService, userRepo, tokens, tokenRepo, cfg.LegacyEndpoints)
	identityHandler := handlers.NewIdentityHandler(identityService, linker)

	// Capability providers (two-factor, passkey) are external
	// collaborators registered here; each runs behind the session guard.
	capabilities := map[string]gin.HandlerFunc{}

	r := gin.New()
	r.Use(gin.Recovery())
	handlers.Register(r, cfg.Server.BasePath, authHandler, identityHandler, authMiddleware, limiter, capabilities)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.WithField("addr", addr).Info("listening")
	if err := r.Run(addr); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

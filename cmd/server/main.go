package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/larslemos/ninho-do-amor-sub000/internal/api"
	"github.com/larslemos/ninho-do-amor-sub000/internal/config"
	"github.com/larslemos/ninho-do-amor-sub000/internal/database"
	"github.com/larslemos/ninho-do-amor-sub000/internal/handler"
	"github.com/larslemos/ninho-do-amor-sub000/internal/middleware"
	"github.com/larslemos/ninho-do-amor-sub000/internal/notify"
	"github.com/larslemos/ninho-do-amor-sub000/internal/queue"
	"github.com/larslemos/ninho-do-amor-sub000/internal/repository"
	"github.com/larslemos/ninho-do-amor-sub000/internal/router"
	"github.com/larslemos/ninho-do-amor-sub000/internal/service"
)

// tokenPurgeInterval is how often expired or revoked refresh tokens are removed.
const tokenPurgeInterval = 6 * time.Hour

func main() {
	cfg := config.Load() // Load environment config

	log.SetFormatter(&log.JSONFormatter{})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	if created, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		log.WithError(err).Fatal("bootstrap admin failed")
	} else if created {
		log.WithField("email", cfg.AdminEmail).Info("admin account created")
	}

	event, err := config.LoadEventSettings(cfg.EventFile)
	if err != nil {
		log.WithError(err).Fatal("event settings")
	}
	renderer, err := notify.NewRenderer(event.Templates)
	if err != nil {
		log.WithError(err).Fatal("invitation templates")
	}

	var events service.Publisher = service.NopPublisher{}
	if cfg.BrokerEnabled {
		pub := service.NewAMQPPublisher(cfg.RabbitURL)
		defer pub.Close()
		events = pub
		go func() {
			if err := queue.StartActivityConsumer(ctx, cfg.RabbitURL, cfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("activity consumer stopped")
			}
		}()
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	if rdb != nil {
		defer rdb.Close()
	}

	seatingSvc := service.NewSeatingService(db, repository.NewGuestRepo(db), repository.NewTableRepo(db), events)
	guestSvc := service.NewGuestService(seatingSvc, cfg.BaseURL)
	tableSvc := service.NewTableService(seatingSvc)
	inviteSvc := service.NewInvitationService(seatingSvc, notify.NewMailService(cfg.SMTP), renderer, event, cfg.BaseURL)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	doc, err := api.Spec()
	if err != nil {
		log.WithError(err).Fatal("openapi document")
	}
	validator, err := middleware.NewOpenAPIValidator(doc)
	if err != nil {
		log.WithError(err).Fatal("openapi validator")
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestLogger())

	// Rate limiting and validation run per route group; on admin routes
	// they follow JWTAuth.
	guards := router.Guards{
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Validate:  validator,
	}

	health := &handler.HealthHandler{DB: db}
	if rdb != nil {
		health.RedisPing = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	router.RegisterRoutes(e, health)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret, guards)
	router.RegisterAdmin(e,
		handler.NewGuestHandler(guestSvc),
		handler.NewTableHandler(tableSvc),
		handler.NewInvitationHandler(inviteSvc),
		cfg.JWTSecret,
		guards,
	)
	router.RegisterPublic(e, handler.NewPublicHandler(guestSvc, cache), cache.Middleware(), guards)

	go purgeTokens(ctx, tokens)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.WithFields(log.Fields{"addr": addr, "env": cfg.Env, "redis": rdb != nil}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// purgeTokens deletes expired and revoked refresh tokens until ctx is done.
func purgeTokens(ctx context.Context, tokens *repository.TokenRepo) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokens.PurgeExpired(ctx, time.Now())
			if err != nil {
				log.WithError(err).Warn("refresh token purge failed")
				continue
			}
			if n > 0 {
				log.WithField("removed", n).Info("refresh tokens purged")
			}
		}
	}
}

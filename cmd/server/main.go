package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/oguzhanyavuz/tradeport/internal/blob"
	"github.com/oguzhanyavuz/tradeport/internal/chat"
	"github.com/oguzhanyavuz/tradeport/internal/config"
	"github.com/oguzhanyavuz/tradeport/internal/currency"
	"github.com/oguzhanyavuz/tradeport/internal/database"
	"github.com/oguzhanyavuz/tradeport/internal/enrich"
	"github.com/oguzhanyavuz/tradeport/internal/handler"
	"github.com/oguzhanyavuz/tradeport/internal/middleware"
	"github.com/oguzhanyavuz/tradeport/internal/model"
	"github.com/oguzhanyavuz/tradeport/internal/observ"
	"github.com/oguzhanyavuz/tradeport/internal/queue"
	"github.com/oguzhanyavuz/tradeport/internal/repository"
	"github.com/oguzhanyavuz/tradeport/internal/router"
	"github.com/oguzhanyavuz/tradeport/internal/scheduler"
	"github.com/oguzhanyavuz/tradeport/internal/throttle"
	"github.com/oguzhanyavuz/tradeport/internal/tracker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("database open failed", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when unavailable; features degrade

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	companies := repository.NewCompanyRepo(db)
	products := repository.NewProductRepo(db)
	categories := repository.NewCategoryRepo(db)
	offers := repository.NewOfferRepo(db)
	deals := repository.NewPortDealRepo(db)
	trackingRepo := repository.NewTrackingRepo(db)
	contacts := repository.NewContactRepo(db)
	queries := repository.NewQueryRepo(db)
	messages := repository.NewMessageRepo(db)
	posts := repository.NewPostRepo(db)
	rates := repository.NewCurrencyRepo(db)

	// Services.
	enricher := enrich.New(cfg.GeoIPPath)
	defer enricher.Close()

	publish := os.Getenv("RABBITMQ_URL") != "" || os.Getenv("AMQP_URL") != ""

	trackSvc := tracker.New(trackingRepo, enricher, map[string]repository.TargetChecker{
		model.TrackCategory: categories,
		model.TrackCompany:  companies,
		model.TrackProduct:  products,
	}, logger, publish)

	throttleSvc := throttle.New(contacts, logger, publish)

	rateSvc := currency.New(rates,
		currency.NewHTTPProvider(cfg.RateProviderURL, cfg.RateProviderKey),
		cfg.DefaultCurrency, logger)

	media, err := blob.NewFSStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("media store", zap.Error(err))
	}

	hub := chat.NewHub(cfg.ChatSendBuffer)
	chatSvc := chat.NewService(queries, messages, companies, hub, logger, publish)

	sched := scheduler.New(deals, rateSvc, logger)
	sched.Start(context.Background())
	defer sched.Stop()

	if publish {
		go func() {
			if err := queue.StartNoticeConsumer(); err != nil {
				logger.Warn("notice consumer stopped", zap.Error(err))
			}
		}()
	}

	// HTTP surface.
	identity := middleware.NewIdentityCache(rdb, companies, cfg.IdentityTTLSec)
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.Debug
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(requestLoggerConfig(logger)))
	if len(cfg.AllowedHosts) > 0 {
		e.Use(hostAllowList(cfg.AllowedHosts))
	}
	e.Static("/media", cfg.UploadDir)

	router.Register(e, router.Deps{
		JWTSecret: cfg.JWTSecret,
		Identity:  identity,
		RateLimit: rateLimit,
		Perms:     users,
		Auth:      handler.NewAuthHandler(cfg, users, tokens, identity, logger),
		Catalog: handler.NewPublicCatalogHandler(products, companies, categories,
			offers, deals, posts, rateSvc, logger),
		Company:  handler.NewSellerCompanyHandler(companies, logger),
		Product:  handler.NewSellerProductHandler(products, companies, categories, logger),
		Offer:    handler.NewSellerOfferHandler(offers, logger),
		PortDeal: handler.NewSellerPortDealHandler(deals, logger),
		Contact:  handler.NewContactHandler(throttleSvc, contacts, logger),
		Tracking: handler.NewTrackingHandler(trackSvc, logger),
		Query:    handler.NewQueryHandler(chatSvc, queries, products, companies, logger),
		Staff:    handler.NewStaffHandler(users, tokens, companies, deals, posts, logger),
		Upload:   handler.NewUploadHandler(media, logger),
		ChatWS:   chat.NewHandler(chatSvc, cfg.JWTSecret, logger),
	})

	// Serve until SIGINT/SIGTERM, then drain.
	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

// hostAllowList rejects requests whose Host is not in the configured list.
func hostAllowList(hosts []string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		allowed[h] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if allowed["*"] || allowed[c.Request().Host] {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusBadRequest, "unknown host")
		}
	}
}

func requestLoggerConfig(logger *zap.Logger) echomw.RequestLoggerConfig {
	return echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/royaljewels/shop/pkg/logging"

	"github.com/royaljewels/shop/internal/config"
	"github.com/royaljewels/shop/internal/db"
	"github.com/royaljewels/shop/internal/events"
	"github.com/royaljewels/shop/internal/httpserver"
	"github.com/royaljewels/shop/internal/mail"
	"github.com/royaljewels/shop/internal/models"
	"github.com/royaljewels/shop/internal/payments"
	"github.com/royaljewels/shop/internal/repo"
	"github.com/royaljewels/shop/internal/search"
	"github.com/royaljewels/shop/internal/service"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.GatewayURL, "PAYMENT_GATEWAY_URL")
	config.MustNonEmpty(cfg.GatewaySecretKey, "PAYMENT_GATEWAY_SECRET")
	config.MustNonEmpty(cfg.GatewayWebhookSecret, "PAYMENT_WEBHOOK_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(logging.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	store := &repo.GormRepo{DB: gdb}

	if err := seedRates(context.Background(), store); err != nil {
		log.Fatalf("seed rates error: %v", err)
	}

	gateway := payments.NewClient(cfg.GatewayURL, cfg.GatewaySecretKey)

	var producer events.Producer = events.NoopProducer{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaProducer(cfg.KafkaBrokers)
		defer kp.Close()
		producer = kp
	} else {
		logger.Warn("KAFKA_BROKERS not set, domain events disabled")
	}

	var index search.Index = search.NoopIndex{}
	if cfg.ESURL != "" {
		es, err := search.NewESIndex(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		index = es
	} else {
		logger.Warn("ES_URL not set, product search disabled")
	}

	var mailer mail.Mailer = mail.Noop{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	} else {
		logger.Warn("SMTP_HOST not set, customer mail disabled")
	}

	httpserver.Register(e, &httpserver.Deps{
		Auth:    &service.AuthService{Repo: store, JWTSecret: cfg.JWTSecret},
		Catalog: &service.CatalogService{Repo: store, Index: index},
		Cart:    &service.CartService{Repo: store},
		Order: &service.OrderService{
			Repo:        store,
			Gateway:     gateway,
			Producer:    producer,
			FrontendURL: cfg.FrontendURL,
		},
		Payment: &service.PaymentService{
			Repo:          store,
			Gateway:       gateway,
			Mailer:        mailer,
			Producer:      producer,
			FrontendURL:   cfg.FrontendURL,
			WebhookSecret: []byte(cfg.GatewayWebhookSecret),
		},
		Investment: &service.InvestmentService{
			Repo:        store,
			Gateway:     gateway,
			Mailer:      mailer,
			Producer:    producer,
			FrontendURL: cfg.FrontendURL,
		},
		GiftCard: &service.GiftCardService{
			Repo:        store,
			Gateway:     gateway,
			Mailer:      mailer,
			Producer:    producer,
			FrontendURL: cfg.FrontendURL,
		},
		Admin:     &service.AdminService{Repo: store},
		JWTSecret: cfg.JWTSecret,
	})

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := e.Start(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}

	sqlDB, err := gdb.DB()
	if err == nil {
		sqlDB.Close()
	}

	logger.Info("server stopped")
}

// seedRates inserts the opening per-gram rates on an empty database so the
// investment endpoints work before an admin ever touches them.
func seedRates(ctx context.Context, store *repo.GormRepo) error {
	defaults := map[string]decimal.Decimal{
		models.MetalGold:   decimal.NewFromInt(5300),
		models.MetalSilver: decimal.NewFromInt(100),
	}

	for metal, perGram := range defaults {
		_, err := store.LatestRate(ctx, metal)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := store.InsertRate(ctx, &models.MetalRate{Metal: metal, PerGram: perGram}); err != nil {
			return err
		}
	}
	return nil
}

package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log" // Logging library
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/event-ticketing/internal/cache"
	"github.com/iliyamo/event-ticketing/internal/config" // Internal config loader
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/mail"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/router" // Internal router setup
	"github.com/iliyamo/event-ticketing/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()

	dialect, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		log.Fatal(err)
	}
	db, err := openDB(cfg, dialect)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db, dialect); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig()) // nil when Redis is down
	if rdb != nil {
		defer rdb.Close()
	}

	cart := service.NewCartService(db, dialect)

	cacheCfg := config.LoadAvailabilityCacheConfig()
	cacheClient := rdb
	if !cacheCfg.Enabled {
		cacheClient = nil
	}
	avail := cache.NewAvailability(cacheClient, cart.Tiers, cacheCfg.TTL, cacheCfg.Prefix)

	notifier, events := brokerClients(cfg)
	checkout := service.NewCheckoutService(cart, cfg.LowStockThreshold, notifier, events, avail)

	if cfg.AMQPURL != "" {
		var mailer mail.Mailer = mail.LogMailer{}
		if cfg.Mail.SMTPHost != "" {
			mailer = mail.NewSMTPMailer(mail.SMTPConfig{
				Host:     cfg.Mail.SMTPHost,
				Port:     cfg.Mail.SMTPPort,
				Username: cfg.Mail.SMTPUsername,
				Password: cfg.Mail.SMTPPassword,
				From:     cfg.Mail.From,
				FromName: cfg.Mail.FromName,
			})
		}
		lowStock := &queue.LowStockHandler{Mailer: mailer, Redis: rdb, DedupTTL: cfg.NotifyDedupTTL}
		orderLog := &queue.OrderLogHandler{Dir: cfg.OrderLogDir}
		queue.StartConsumers(ctx, cfg.AMQPURL, map[string]queue.Handler{
			queue.LowStockQueue:    lowStock.Handle,
			queue.OrderClosedQueue: orderLog.Handle,
		})
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	router.RegisterRoutes(e, db, &handler.AvailabilityHandler{Cache: avail})
	router.RegisterCart(e, handler.NewCartHandler(cart, checkout),
		router.Owners{Tickets: cart.Tickets, Orders: cart.Orders},
		cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, db=%s)", addr, cfg.Env, dialect)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openDB(cfg config.Config, d database.Dialect) (*sql.DB, error) {
	if d == database.SQLite {
		return database.OpenSQLite(cfg.DBPath)
	}
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// brokerClients returns the RabbitMQ publisher whenever a broker is
// configured and the log-only publisher otherwise.  The publisher dials per
// batch, so a broker that is down at startup is picked up once it is back.
func brokerClients(cfg config.Config) (service.Notifier, service.OrderEvents) {
	if cfg.AMQPURL == "" {
		log.Println("rabbitmq: no broker configured, notifications are logged only")
		return queue.LogPublisher{}, queue.LogPublisher{}
	}
	pub := queue.NewPublisher(cfg.AMQPURL)
	if err := pub.Ping(); err != nil {
		log.Printf("rabbitmq: broker unreachable at startup, publishing will retry per checkout: %v", err)
	}
	return pub, pub
}

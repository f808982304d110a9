package app

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/navlight/booking-service/config"
	"github.com/navlight/booking-service/internal/events"
	"github.com/navlight/booking-service/internal/handler"
	"github.com/navlight/booking-service/internal/mail"
	"github.com/navlight/booking-service/internal/pdf"
	"github.com/navlight/booking-service/internal/repository"
	"github.com/navlight/booking-service/internal/server"
	"github.com/navlight/booking-service/internal/service"
	"github.com/navlight/booking-service/internal/sessions"
	"github.com/navlight/booking-service/migrations"
	"github.com/navlight/booking-service/pkg/logger"
	"github.com/navlight/booking-service/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "navlight")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	billing := service.Billing{
		UnitCharge:             decimal.NewFromFloat(cfg.Billing.UnitCharge),
		MissingPunchUnitCharge: decimal.NewFromFloat(cfg.Billing.MissingPunchCharge),
		BankAccountName:        cfg.Billing.BankAccountName,
		BankAccountNumber:      cfg.Billing.BankAccountNumber,
	}

	var notifier service.Notifier = mail.NoopNotifier{}
	if cfg.SMTP.Enabled() {
		notifier = mail.New(cfg.SMTP, billing.UnitCharge, billing.MissingPunchUnitCharge, log)
	} else {
		log.Warn("smtp is not configured, email notifications disabled")
	}

	var store sessions.Store = sessions.NewMemoryStore(cfg.Admin.SessionTTL)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatal("redis ping", zap.Error(err))
		}
		store = sessions.NewRedisStore(client, cfg.Admin.SessionTTL)
	}

	var publisher service.Publisher
	var pub *events.Publisher
	if len(cfg.Kafka.Addrs) > 0 {
		pub, err = events.NewPublisher(cfg.Kafka)
		if err != nil {
			log.Fatal("events.NewPublisher", zap.Error(err))
		}
		publisher = pub
	}

	svc := service.NewService(repo, notifier, pdf.New(), publisher, billing, log)

	h := handler.New(svc, store, cfg.Admin.Password, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	metricsSrv := &http.Server{
		Addr:    net.JoinHostPort("", cfg.Metrics.Port),
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error { return srv.Stop(closeCtx) })
	g.Go(func() error { return metricsSrv.Shutdown(closeCtx) })
	if err = g.Wait(); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	if pub != nil {
		if err = pub.Close(); err != nil {
			log.Error("publisher close", zap.Error(err))
		}
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}

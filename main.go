package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	appmenu "github.com/Zhima-Mochi/homeflavors/internal/application/menu"
	appnotification "github.com/Zhima-Mochi/homeflavors/internal/application/notification"
	apporder "github.com/Zhima-Mochi/homeflavors/internal/application/order"
	apppayment "github.com/Zhima-Mochi/homeflavors/internal/application/payment"
	"github.com/Zhima-Mochi/homeflavors/internal/config"
	domorder "github.com/Zhima-Mochi/homeflavors/internal/domain/order"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/amqp"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/id"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/mongo"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/square"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/telemetry"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/telemetry/oteltrace"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/telemetry/prometrics"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/telemetry/zaplogger"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/twilio"
	"github.com/Zhima-Mochi/homeflavors/internal/observability"
	"github.com/Zhima-Mochi/homeflavors/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/homeflavors/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/homeflavors/internal/presentation/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		File:    cfg.LogFile,
		Debug:   cfg.Debug,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)
	systemLogger.Info("config_loaded", zap.Stringer("config", cfg))

	if err := run(cfg, baseLogger); err != nil {
		systemLogger.Error("startup_failed", zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, baseLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger := zaplogger.New(baseLogger)
	counters, histograms := prometrics.Standard(prometrics.New("", "", prometheus.DefaultRegisterer))
	tel := telemetry.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	// Menu catalogue
	mongoClient, err := mongo.Connect(ctx, cfg.MongoURI, cfg.UpstreamTimeout)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	menuRepo := mongo.NewMenuRepository(mongoClient.Database(cfg.MongoDB), cfg.MenuCollection)

	// Order records
	var orderRepo domorder.Repository = memory.NewOrderRepository()
	if cfg.OrderStoreDSN != "" {
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.OrderStoreDSN, logger); err != nil {
				return err
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.OrderStoreDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		orderRepo = postgres.NewOrderRepository(pool)
	}

	// In-memory event bus; handlers run with an event-scoped logger
	bus := outbox.NewBus(logger, outbox.Options{})
	bus.Start(ctx)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		bus.Stop(sctx)
	}()
	subscriber := workerpresentation.NewSubscriber(bus, logger, tel)

	if cfg.AMQPURL != "" {
		relay, err := amqp.Dial(cfg.AMQPURL, cfg.OrdersExchange, logger)
		if err != nil {
			return err
		}
		defer func() { _ = relay.Close() }()
		subscriber.Subscribe(domorder.PlacedEvent{}.EventName(), relay.Relay())
		subscriber.Subscribe(domorder.StatusChangedEvent{}.EventName(), relay.Relay())
	}

	// Outbound collaborators
	gateway, err := square.New(square.Config{
		AccessToken: cfg.SquareAccessToken,
		LocationID:  cfg.SquareLocationID,
		Environment: cfg.SquareEnvironment,
		Version:     cfg.SquareVersion,
		Timeout:     cfg.UpstreamTimeout,
	})
	if err != nil {
		return err
	}
	sender, err := twilio.New(twilio.Config{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioWhatsAppFrom,
	})
	if err != nil {
		return err
	}
	notifier, err := appnotification.NewService(sender, cfg.OwnerWhatsApp, tel)
	if err != nil {
		return err
	}

	apporder.NewRecordOrderWorker(orderRepo, tel).Start(subscriber)

	handler := httppresentation.NewHandler(httppresentation.UseCases{
		ListMenu: appmenu.NewListMenuUseCase(menuRepo, tel),
		SubmitOrder: apporder.NewSubmitOrderUseCase(
			id.NewOrderNumbers(),
			apppayment.NewChargeUseCase(gateway, tel),
			notifier,
			bus,
			tel,
		),
		GetOrder:     apporder.NewGetOrderUseCase(orderRepo, tel),
		UpdateStatus: apporder.NewUpdateOrderStatusUseCase(orderRepo, notifier, bus, tel),
		SendTest:     appnotification.NewSendTestUseCase(notifier, tel),
	}, httppresentation.Options{
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		Metrics:          promhttp.Handler(),
	}, logger, tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", observability.F("error", err.Error()))
	} else {
		logger.Info("http_server_stopped")
	}
	return nil
}

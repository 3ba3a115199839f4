package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fulfillment/cmd"
	fhttp "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/in/http/api"
	"fulfillment/internal/adapters/out/payments"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/changefeed"
	"fulfillment/internal/adapters/out/redisstore"
	"fulfillment/internal/adapters/out/routing"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"
	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/pkg/metrics"
	"fulfillment/internal/pkg/retry"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	configs, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	appLog := logger.New(logger.Options{
		ServiceName: "fulfillment",
		Level:       logger.ParseLevel(configs.LogLevel),
		Format:      configs.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configs, appLog); err != nil {
		appLog.Error(ctx, "fulfillment service stopped", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configs cmd.Config, appLog *logger.Logger) error {
	gormDB, err := gorm.Open(postgresdriver.Open(configs.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return err
	}
	if err := postgres.Migrate(gormDB); err != nil {
		return err
	}

	store, err := redisstore.New(ctx, configs.RedisURL)
	if err != nil {
		return err
	}
	defer store.Close()

	stripeGateway, err := payments.NewStripeGateway(ctx, payments.StripeConfig{
		APIKey:      configs.StripeAPIKey,
		Environment: configs.StripeEnvironment,
		Currency:    configs.StripeCurrency,
	}, appLog)
	if err != nil {
		return err
	}
	gateway := payments.NewGuardedGateway(stripeGateway, store, configs.SideEffectLockTTL, appLog)

	var routeOpts []routing.Option
	if configs.GoogleRoutesBaseURL != "" {
		routeOpts = append(routeOpts, routing.WithBaseURL(configs.GoogleRoutesBaseURL))
	}
	router, err := routing.NewGoogleRoutesProvider(configs.GoogleRoutesAPIKey, routeOpts...)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	policy := retry.Default()
	policy.MaxAttempts = configs.RetryMaxAttempts
	policy.InitialInterval = configs.RetryInitialInterval
	policy.MaxInterval = configs.RetryMaxInterval

	app, err := cmd.NewCompositionRoot(configs, gormDB, gateway, router, commands.Env{
		Clock:   ports.ClockFunc(time.Now),
		Retry:   policy,
		Log:     appLog,
		Metrics: appMetrics,
	})
	if err != nil {
		return err
	}

	doc, err := api.Load(ctx)
	if err != nil {
		return err
	}
	if err := api.RegisterSwagger(doc); err != nil {
		return err
	}

	hub := fhttp.NewHub(appLog, appMetrics)
	e, err := fhttp.NewRouter(fhttp.RouterConfig{
		Server:       fhttp.NewServer(app.CreateHTTPHandlers(), app.BaseFee()),
		Hub:          hub,
		Doc:          doc,
		Log:          appLog,
		Gatherer:     registry,
		EchoLogLevel: configs.EchoLogLevel,
	})
	if err != nil {
		return err
	}

	jobManager := jobs.NewJobManager(app.CreateReconcilePaymentsJob())
	if err := jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	var feed ports.OrderEventSource = changefeed.NewListener(configs.DSN(), appLog)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		return feed.Run(gctx, hub.Publish)
	})
	g.Go(func() error {
		return startWebServer(gctx, e, configs.HTTPAddr(), appLog)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), configs.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func startWebServer(ctx context.Context, e *echo.Echo, addr string, appLog *logger.Logger) error {
	appLog.Info(appLog.WithField(ctx, "addr", addr), "http server listening")
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

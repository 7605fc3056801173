package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"locagest/internal/clients"
	"locagest/internal/config"
	"locagest/internal/integrations/insee"
	"locagest/internal/repository"
	"locagest/internal/scheduler"
	"locagest/internal/service"
	"locagest/internal/transport/auth"
	"locagest/internal/transport/rest"
	"locagest/internal/transport/websocket"
	"locagest/pkg/database/postgres"
	"locagest/pkg/logger"
	"locagest/pkg/rabbitmq"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Info("no .env file found, using system env or defaults")
	}
	loc := cfg.Location()

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := mustInitPostgres(ctx, cfg.Postgres, log)
	defer postgres.Close(db)

	redisClient := mustInitRedis(ctx, cfg.Redis, log)
	defer redisClient.Close()

	storageClient, err := clients.NewLocalStorage(cfg.Storage.ExportDir, cfg.Storage.PublicPrefix, cfg.Storage.ExternalURL)
	if err != nil {
		log.WithError(err).Fatal("storage init error")
	}

	var archive service.ObjectStore
	if cfg.S3.Enabled {
		s3Client, err := clients.NewS3Client(ctx, clients.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			UseSSL:          cfg.S3.UseSSL,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			log.WithError(err).Fatal("s3 init error")
		}
		archive = s3Client
	}

	var mailer service.ReminderSender
	if cfg.SMTP.Enabled() {
		mailer = clients.NewMailer(clients.MailerConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, log)
	}

	events := clients.NewEventPublisher(nil, log)
	if cfg.RabbitMQ.URL != "" {
		pub, err := rabbitmq.NewPublisher(rabbitmq.PublisherConfig{
			URL:          cfg.RabbitMQ.URL,
			ExchangeName: cfg.RabbitMQ.Exchange,
			Durable:      true,
		}, log)
		if err != nil {
			log.WithError(err).Fatal("rabbitmq init error")
		}
		defer pub.Close()
		events = clients.NewEventPublisher(pub, log)
	}

	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)
	wsClient := clients.NewWebSocketClient(wsHub)

	indexClient := insee.NewClient(insee.Config{FeedURL: cfg.Index.FeedURL, Timeout: cfg.Index.Timeout}, log)

	tx := repository.NewTransactor(db)
	leaseRepo := repository.NewLeaseRepository(db)
	rentRepo := repository.NewRentRepository(db)
	paymentRepo := repository.NewRentPaymentRepository(db)
	revisionRepo := repository.NewRentRevisionRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	tokenRepo := repository.NewPersonalAccessTokenRepository(db)

	rentSvc := service.NewRentService(tx, leaseRepo, rentRepo, paymentRepo, wsClient, events, mailer, log)
	indexationSvc := service.NewIndexationService(tx, leaseRepo, revisionRepo, indexClient, cfg.Index.Reference, wsClient, events, log)
	leaseSvc := service.NewLeaseService(tx, leaseRepo, events, log)
	expenseSvc := service.NewExpenseService(expenseRepo)
	propertySvc := service.NewPropertyService(tx, propertyRepo, log)
	tenantSvc := service.NewTenantService(tx, tenantRepo, log)
	dashboardSvc := service.NewDashboardService(dashboardRepo, redisClient, cfg.DashboardCacheTTL, log)
	exportSvc := service.NewExportService(rentRepo, redisClient, storageClient, archive, wsClient, cfg.ExportPrefix, loc, log)

	handler := rest.NewHandler(rest.Deps{
		Rents:        rentSvc,
		Indexation:   indexationSvc,
		Leases:       leaseSvc,
		Expenses:     expenseSvc,
		Properties:   propertySvc,
		Tenants:      tenantSvc,
		Dashboard:    dashboardSvc,
		Exports:      exportSvc,
		Files:        storageClient,
		Hub:          wsHub,
		ExportPrefix: cfg.ExportPrefix,
		Location:     loc,
		Log:          log,
	})
	router := handler.InitRouterWithAuth(auth.SanctumMiddleware(tokenRepo, log))

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(scheduler.Config{
			LateSweepSpec: cfg.Scheduler.LateSweepSpec,
			GenerateSpec:  cfg.Scheduler.GenerateSpec,
			CleanupSpec:   cfg.Scheduler.CleanupSpec,
			FileMaxAge:    cfg.Storage.MaxAge,
			Location:      loc,
		}, rentSvc, exportSvc, storageClient, log)
		if err != nil {
			log.WithError(err).Fatal("scheduler init error")
		}
		sched.Start(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withCORS(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			log.WithError(err).Fatal("HTTP server error")
		}
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP server shutdown error")
		}
		if sched != nil {
			sched.Stop(shutdownCtx)
		}
		exportSvc.Wait()

		// stops the websocket hub
		cancel()
		log.Info("shutdown complete")
	}
}

func mustInitPostgres(ctx context.Context, cfg config.PostgresConfig, log *logrus.Logger) *sql.DB {
	db, err := postgres.NewPostgresConnection(ctx, postgres.ConnectionInfo{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Password: cfg.Password,
	})
	if err != nil {
		log.WithError(err).Fatal("postgres init error")
	}
	return db
}

func mustInitRedis(ctx context.Context, cfg config.RedisConfig, log *logrus.Logger) *clients.RedisClient {
	client, err := clients.NewRedisClient(ctx, clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		log.WithError(err).Fatal("redis init error")
	}
	return client
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

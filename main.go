package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crosspost/domain/repository"
	"crosspost/infrastructure/blobstorage"
	"crosspost/infrastructure/cache"
	"crosspost/infrastructure/clients/instagram"
	"crosspost/infrastructure/clients/tiktok"
	"crosspost/infrastructure/clients/youtube"
	"crosspost/infrastructure/configuration"
	"crosspost/infrastructure/logger"
	"crosspost/infrastructure/persistence"
	"crosspost/infrastructure/pubsub"
	"crosspost/infrastructure/scheduler"
	"crosspost/infrastructure/servicebus"
	httpHandler "crosspost/interfaces/http"
	"crosspost/server"
	"crosspost/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App
	sched := configuration.C.Scheduler

	postsDB, useMSSQL, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
		return
	}
	if err := ensureSchemas(postsDB, useMSSQL); err != nil {
		logger.GetLogger().WithField("error", err).Error("Schema initialization failed")
		return
	}

	primaryDB, err := persistence.NewPrimaryDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to the primary database")
		return
	}
	logger.GetLogger().WithField("PostsDB", postsDB.Ping()).Info("Database connected.")

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without job run history")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without job run history")
		mongoDb = nil
	}
	jobRunStore := persistence.NewJobRunRepository(mongoDb, configuration.C.Database.Mongo.Name)

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - continuing without cross-process job locks")
		redisClient = nil
	}
	hostname, _ := os.Hostname()
	jobLock := cache.NewJobLock(redisClient, hostname)

	storage, err := blobstorage.NewS3Storage(ctx, configuration.C.Storage)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Blob storage initialization failed")
		return
	}

	postEvents := initPostEvents(ctx)

	clients := repository.ClientRegistry{}
	if cfg := configuration.GetTikTokConfig(); cfg.Configured() {
		clients["tiktok"] = tiktok.NewClient(tiktok.Config{
			ClientKey:    cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		})
	}
	if cfg := configuration.GetYouTubeConfig(); cfg.Configured() {
		clients["youtube"] = youtube.NewClient(youtube.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
		})
	}
	if cfg := configuration.GetInstagramConfig(); cfg.Configured() {
		clients["instagram"] = instagram.NewClient(instagram.Config{})
	}
	if len(clients) == 0 {
		logger.GetLogger().Warn("No platform credentials configured - publishing will mark due posts unsupported")
	}

	var accountStore repository.IAccountStore
	var postStore repository.IPostStore
	if useMSSQL {
		accountStore = persistence.NewAccountRepositoryMSSQL(postsDB)
		postStore = persistence.NewPostRepositoryMSSQL(postsDB)
	} else {
		accountStore = persistence.NewAccountRepository(postsDB)
		postStore = persistence.NewPostRepository(postsDB)
	}
	videoStore := persistence.NewVideoRepository(primaryDB)

	tokenRefreshUsecase := usecase.NewTokenRefreshUsecase(accountStore, clients, sched.TokenRefreshLookahead)
	publishUsecase := usecase.NewPublishUsecase(
		postStore,
		accountStore,
		videoStore,
		storage,
		clients,
		postEvents,
		tokenRefreshUsecase,
		usecase.PublishConfig{
			PollInitialInterval: sched.PollInitialInterval,
			PollMaxInterval:     sched.PollMaxInterval,
			PollTimeout:         sched.PollTimeout,
			MaxInFlight:         sched.MaxInFlight,
			SignedURLTTL:        configuration.C.Storage.URLTTL,
		},
	)

	runtime := scheduler.NewRuntime(jobLock, jobRunStore)
	runtime.Register("token_refresh", sched.TokenRefreshInterval, func(ctx context.Context) error {
		_, err := tokenRefreshUsecase.RefreshExpiring(ctx)
		return err
	})
	runtime.Register("publish_due", sched.PublishInterval, func(ctx context.Context) error {
		_, err := publishUsecase.PublishDue(ctx)
		return err
	})
	runtime.Start()

	schedulerHandler := httpHandler.NewSchedulerHandler(runtime, jobRunStore)
	router := server.InitiateRouter(schedulerHandler)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			} else {
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	runtime.Stop(sched.StopGrace)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	cancel()

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase opens the accounts/posts database. Production and
// DB_VENDOR=mssql use SQL Server; everything else uses PostgreSQL.
func InitiateDatabase() (*sql.DB, bool, error) {
	env := os.Getenv("ENV")
	if os.Getenv("DB_VENDOR") == "mssql" || env == "production" || env == "prod" {
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, false, err
		}
		return db, true, nil
	}
	db, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, false, err
	}
	return db, false, nil
}

func ensureSchemas(db *sql.DB, useMSSQL bool) error {
	if useMSSQL {
		if err := persistence.EnsureAccountSchemaMSSQL(db); err != nil {
			return err
		}
		return persistence.EnsurePostSchemaMSSQL(db)
	}
	if err := persistence.EnsureAccountSchema(db); err != nil {
		return err
	}
	return persistence.EnsurePostSchema(db)
}

// initPostEvents picks the configured message bus for post lifecycle events.
// Google Pub/Sub wins when both are configured; without either, events are a
// logged no-op.
func initPostEvents(ctx context.Context) repository.IPostEvents {
	if projectID := configuration.C.Pubsub.ProjectID; projectID != "" {
		client, err := pubsub.NewPubSub(ctx, projectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Pub/Sub not available - trying Service Bus")
		} else {
			return pubsub.NewPostEventPublisher(client, configuration.C.Pubsub.Topic)
		}
	}
	if namespace := configuration.C.ServiceBus.Namespace; namespace != "" {
		client, err := servicebus.NewServiceBus(ctx, namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without post events")
		} else {
			return servicebus.NewPostEventPublisher(client, configuration.C.ServiceBus.Queue)
		}
	}
	logger.GetLogger().Warn("No message bus configured - post events disabled")
	return pubsub.NewPostEventPublisher(nil, "")
}

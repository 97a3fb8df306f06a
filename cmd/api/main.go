// @title                       CRM API
// @version                     1.0
// @description                 Customers, tasks and users with role-based access.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/etiya/crm-api/internal/api"
	"github.com/etiya/crm-api/internal/core/ports"
	"github.com/etiya/crm-api/internal/core/service"
	"github.com/etiya/crm-api/internal/infrastructure/db/gormdb"
	mongostore "github.com/etiya/crm-api/internal/infrastructure/db/mongo"
	redisstore "github.com/etiya/crm-api/internal/infrastructure/db/redis"
	"github.com/etiya/crm-api/internal/infrastructure/http/handlers"
	"github.com/etiya/crm-api/internal/infrastructure/mq"
	"github.com/etiya/crm-api/internal/infrastructure/queue"
	"github.com/etiya/crm-api/internal/infrastructure/security"
	"github.com/etiya/crm-api/internal/pkg/config"
	"github.com/etiya/crm-api/pkg/logger"
	"github.com/etiya/crm-api/pkg/obs"
)

const (
	serviceName     = "crm-api"
	version         = "1.0.0"
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg := config.MustLoad()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
		Env:     cfg.Env,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.Options{
		ServiceName: serviceName,
		Version:     version,
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	// --- Relational store ---
	db, err := gormdb.Open(ctx, gormdb.Config{
		Driver:       cfg.DB.Driver,
		DSN:          cfg.DB.DSN,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		SlowQuery:    cfg.DB.SlowQuery,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = gormdb.Close(db) }()

	if err := gormdb.Migrate(ctx, db); err != nil {
		return err
	}

	hasher := security.NewBcrypt()
	if cfg.SeedData {
		if err := gormdb.Seed(ctx, db, hasher, logger.Component("seed")); err != nil {
			return err
		}
	}

	checks := map[string]handlers.Check{
		"sql": func(ctx context.Context) error { return gormdb.Ping(ctx, db) },
	}

	// --- Idempotency cache (optional) ---
	var idem ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		idem = redisstore.NewIdempotencyStore(rdb)
		checks["redis"] = redisCheck(rdb)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, idempotency keys are ignored")
	}

	// --- Activity trail (optional) ---
	var (
		events     ports.TaskEventService
		recorder   ports.TaskEventRecorder
		dispatcher *queue.Dispatcher
	)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	if cfg.Mongo.URI != "" {
		client, mdb, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: serviceName})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := mongostore.EnsureIndexes(ctx, mdb); err != nil {
			return err
		}
		checks["mongodb"] = mongoCheck(mdb)

		var publisher ports.EventPublisher
		if cfg.Rabbit.URL != "" {
			pub, err := mq.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
			if err != nil {
				return err
			}
			defer func() { _ = pub.Close() }()
			publisher = pub
		}

		events = service.NewTaskEventService(mongostore.NewTaskEventRepository(mdb), publisher, logger.Component("task_events"))
		dispatcher = queue.NewDispatcher(cfg.EventWorkers, events, logger.Component("dispatcher"))
		dispatcher.Start(workerCtx)
		recorder = dispatcher
	} else {
		log.Warn().Msg("MONGO_URI not set, task activity trail disabled")
	}

	// --- Core services ---
	tx := gormdb.NewTransactor(db)
	users := gormdb.NewUserRepository(db)
	customers := gormdb.NewCustomerRepository(db)
	tasks := gormdb.NewTaskRepository(db)
	tokens := security.NewJWT(cfg.JWTSecret, cfg.TokenTTL)

	router := api.NewRouter(api.Deps{
		Users:     service.NewUserService(users, tx, hasher, tokens, logger.Component("users")),
		Tasks:     service.NewTaskService(tasks, customers, users, tx, idem, recorder, logger.Component("tasks")),
		Customers: service.NewCustomerService(customers, tasks, tx, idem, recorder, logger.Component("customers")),
		Events:    events,
		Verifier:  tokens,
		Checks:    checks,
		Logger:    logger.Component("http"),
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := router.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	// Requests are done; flush the events they produced before closing stores.
	stopWorkers()
	if dispatcher != nil {
		dispatcher.Wait()
	}
	log.Info().Msg("shutdown complete")
	return nil
}

func redisCheck(rdb *goredis.Client) handlers.Check {
	return func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
}

func mongoCheck(db *mongo.Database) handlers.Check {
	return func(ctx context.Context) error { return mongostore.Ping(ctx, db) }
}

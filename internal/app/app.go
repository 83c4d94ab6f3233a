package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cache"
	config "github.com/DRSN-tech/storefront-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/storefront-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/storefront-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/storefront-backend/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/storefront-backend/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/storefront-backend/internal/repository/minio"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb"
	"github.com/DRSN-tech/storefront-backend/internal/repository/redis"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/closer"
	"github.com/DRSN-tech/storefront-backend/pkg/clients"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/DRSN-tech/storefront-backend/pkg/postgres"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	migrationsSource    = "file://db/migrations"
	initTimeout         = 10 * time.Second
	shutdownTimeout     = 15 * time.Second
	healthWatchInterval = 10 * time.Second
)

// App собирает зависимости сервиса и управляет его жизненным циклом.
// Use case'ы доступны граничному слою, который встраивает сервис.
type App struct {
	Products usecase.ProductUC
	Orders   usecase.OrderUC
	Reviews  usecase.ReviewUC

	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	ctx     context.Context
	cancel  context.CancelFunc
	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
	worker  *kafka.OutboxWorker
	checks  map[string]v1Http.Checker
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(0),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := a.init(); err != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer closeCancel()
		if cerr := a.closer.Close(closeCtx); cerr != nil {
			log.Warnf("Cleanup after failed init: %v", cerr)
		}
		cancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	initCtx, cancel := context.WithTimeout(a.ctx, initTimeout)
	defer cancel()

	// PostgreSQL
	db, err := postgres.Connect(initCtx, a.cfg.Db)
	if err != nil {
		a.logger.Errorf(err, "failed to connect to database")
		return err
	}
	a.closer.Add("postgres", db.Close)

	if err := db.RunMigrations(migrationsSource, a.logger); err != nil {
		a.logger.Errorf(err, "failed to run migrations")
		return err
	}

	// Redis
	redisClient := clients.NewRedisClient(a.cfg.Redis)
	a.closer.Add("redis", redisClient.Close)
	if err := redisClient.Ping(initCtx); err != nil {
		a.logger.Errorf(err, "failed to connect to redis")
		return err
	}

	cacheRepo := redis.NewCacheRepo(redisClient, a.logger)
	readThrough := cache.NewReadThrough(cacheRepo, a.logger, a.cfg.Redis.DefaultTTL)
	coordinator := cache.NewCoordinator(cacheRepo, a.logger)

	// MinIO
	minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize minio client")
		return err
	}
	if err := clients.EnsureBucket(initCtx, minioClient, a.cfg.Minio.BucketName); err != nil {
		a.logger.Errorf(err, "failed to initialize MinIO bucket")
		return err
	}
	photos := minioInfra.NewPhotoStorage(s3Repo.NewImageRepo(minioClient, a.cfg.Minio.BucketName), a.cfg.Minio, a.logger, a.ctx)
	a.closer.Add("photo cleanup", photos.WaitForCleanup)

	// Kafka
	producer := kafka.NewProducer(a.logger, a.cfg.Kafka)
	a.closer.Add("kafka producer", producer.Close)
	if err := producer.EnsureTopic(initTimeout); err != nil {
		// топик может создаваться брокером автоматически, события дождутся в outbox
		a.logger.Warnf("Failed to ensure kafka topic: %v", err)
	}

	// Хранилище записей
	productRepo := pgdb.NewProductRepo(db.Pool)
	orderRepo := pgdb.NewOrderRepo(db.Pool)
	reviewRepo := pgdb.NewReviewRepo(db.Pool)
	userRepo := pgdb.NewUserRepo(db.Pool)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool)
	txManager := tr.NewManager(db.Pool)

	a.worker = kafka.NewOutboxWorker(outboxRepo, a.logger, producer, db.Dsn, pgdb.OutboxChannel)

	// Use case'ы
	a.Products = usecase.NewProductUC(productRepo, photos, txManager, readThrough, coordinator, a.logger, a.cfg.Catalog.ProductPerPage)
	a.Orders = usecase.NewOrderUC(orderRepo, userRepo, outboxRepo, usecase.NewStockEngine(productRepo),
		txManager, readThrough, coordinator, a.logger)
	a.Reviews = usecase.NewReviewUC(reviewRepo, productRepo, userRepo, usecase.NewRatingAggregator(reviewRepo),
		txManager, readThrough, coordinator, a.logger)

	// Служебные серверы
	a.checks = map[string]v1Http.Checker{
		"postgres": db,
		"redis":    redisClient,
	}

	r := chi.NewRouter()
	v1Http.NewRouter(r, a.logger).Init(a.checks)
	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)
	a.grpcSrv = v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)

	return nil
}

// Run запускает серверы и воркер outbox и блокируется до сигнала остановки или фатальной ошибки.
func (a *App) Run() error {
	defer a.cancel()

	a.worker.Start(a.ctx)
	a.closer.Add("outbox worker", a.worker.Stop)

	grpcChecks := make(map[string]v1Grpc.Checker, len(a.checks))
	for name, check := range a.checks {
		grpcChecks[name] = check
	}
	go a.grpcSrv.Watch(a.ctx, healthWatchInterval, grpcChecks)

	errCh := make(chan error, 2)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("gRPC server", err)
		}
	}()
	a.closer.Add("grpc server", a.grpcSrv.Stop)

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			errCh <- e.Wrap("HTTP server", err)
		}
	}()
	a.closer.Add("http server", a.httpSrv.Stop)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			a.logger.Warnf("Shutdown timeout: %v", err)
		} else {
			a.logger.Errorf(err, "shutdown finished with errors")
		}
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/image-search/internal/cfg"
	v1Http "github.com/DRSN-tech/image-search/internal/delivery/v1/http"
	"github.com/DRSN-tech/image-search/internal/infrastructure/imagefetch"
	"github.com/DRSN-tech/image-search/internal/infrastructure/kafka"
	ml_service "github.com/DRSN-tech/image-search/internal/infrastructure/ml-service"
	"github.com/DRSN-tech/image-search/internal/proto"
	s3Repo "github.com/DRSN-tech/image-search/internal/repository/minio"
	"github.com/DRSN-tech/image-search/internal/repository/mongodb"
	mongoConv "github.com/DRSN-tech/image-search/internal/repository/mongodb/converter"
	redisRepo "github.com/DRSN-tech/image-search/internal/repository/redis"
	"github.com/DRSN-tech/image-search/internal/usecase"
	"github.com/DRSN-tech/image-search/pkg/clients"
	"github.com/DRSN-tech/image-search/pkg/closer"
	"github.com/DRSN-tech/image-search/pkg/logger"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func Run() {
	logger := logger.NewSlogLogger()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	cl := closer.NewCloser(2 * time.Second)

	mongoCtx, mongoCancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := clients.NewMongoClient(mongoCtx, cfg.Mongo)
	mongoCancel()
	if err != nil {
		logger.Errorf(err, "failed to connect to mongodb")
		os.Exit(1)
	}
	cl.Add("mongodb", func(ctx context.Context) error {
		return mongoClient.Disconnect(ctx)
	})

	catalogRepo := mongodb.NewCatalogRepo(mongoClient, cfg.Mongo, mongoConv.NewItemConverter(), logger)

	// Опциональный источник s3:// для изображений каталога
	var imageRepo usecase.ImageRepository
	if cfg.Minio != nil {
		minioClient, err := clients.NewMinIOClient(cfg.Minio)
		if err != nil {
			logger.Errorf(err, "failed to initialize minio client")
			os.Exit(1)
		}
		imageRepo = s3Repo.NewImageRepo(minioClient)
	}

	// Опциональный кэш скачанных изображений
	var imageCache usecase.ImageCacheRepository
	if cfg.Redis != nil {
		redisClient := clients.NewRedisClient(cfg.Redis)
		redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(redisCtx)
		redisCancel()
		if err != nil {
			logger.Errorf(err, "failed to connect to redis")
			os.Exit(1)
		}
		cl.Add("redis", func(_ context.Context) error {
			return redisClient.Close()
		})
		imageCache = redisRepo.NewImageCacheRepo(redisClient, cfg.Redis, logger)
	}

	conn, err := grpc.NewClient(
		cfg.Ml.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()), // явное указание gRPC-клиенту использовать НЕзащищённое соединение (без TLS).
	)
	if err != nil {
		logger.Errorf(err, "failed to initialize grpc client")
		os.Exit(1)
	}
	cl.Add("grpc-ml", func(_ context.Context) error {
		return conn.Close()
	})

	mlClient := proto.NewMachineLearningServiceClient(conn)
	ml := ml_service.NewMLService(mlClient, cfg.Ml, logger)

	if !cfg.Ml.LazyLoad {
		loadCtx, loadCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := ml.EnsureLoaded(loadCtx)
		loadCancel()
		if err != nil {
			logger.Errorf(err, "failed to load model on startup")
			os.Exit(1)
		}
	}

	fetcher := imagefetch.NewFetcher(cfg.Fetch, imageRepo, imageCache, logger)

	// Опциональные события обновления индекса
	var events usecase.EventsInfra
	if cfg.Kafka != nil {
		producer, err := kafka.NewProducer(logger, cfg.Kafka)
		if err != nil {
			logger.Errorf(err, "failed to initialize kafka producer")
			os.Exit(1)
		}
		if err := producer.EnsureTopic(10 * time.Second); err != nil {
			logger.Errorf(err, "failed to ensure kafka topic")
			os.Exit(1)
		}
		cl.Add("kafka-producer", func(_ context.Context) error {
			return producer.Close()
		})
		events = producer
	}

	searchUC := usecase.NewSearchUC(
		catalogRepo,
		ml,
		fetcher,
		events,
		cfg.Search,
		cfg.Ml.MaxConcurrent,
		logger,
	)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger)
	router.Init(searchUC)

	httpSrv := v1Http.NewServer(r, cfg.Http)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server started on %s:%s", cfg.Http.Host, cfg.Http.Port)
		if err := httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(err, "HTTP server failed: %v", err)
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Stop(shutdownCtx); err != nil {
		logger.Errorf(err, "HTTP server shutdown error")
	} else {
		logger.Infof("HTTP server stopped")
	}

	if err := cl.Close(shutdownCtx); err != nil {
		logger.Warnf("%v", err)
	}

	logger.Infof("Application shutdown complete")
	if appErr != nil {
		os.Exit(1)
	}
}

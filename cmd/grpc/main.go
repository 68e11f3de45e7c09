package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/medequip-catalog-service/config"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/broker"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/cache"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/i18n"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/postgres"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/search"
	"github.com/fekuna/medequip-catalog-service/internal/server/grpcserver"
	"github.com/fekuna/medequip-catalog-service/internal/server/httpserver"
	"github.com/fekuna/medequip-catalog-service/migrations"

	asgH "github.com/fekuna/medequip-catalog-service/internal/assignment/handler"
	asgRepoPkg "github.com/fekuna/medequip-catalog-service/internal/assignment/repository"
	asgUCPkg "github.com/fekuna/medequip-catalog-service/internal/assignment/usecase"

	facetH "github.com/fekuna/medequip-catalog-service/internal/facet/handler"
	facetRepoPkg "github.com/fekuna/medequip-catalog-service/internal/facet/repository"
	facetUCPkg "github.com/fekuna/medequip-catalog-service/internal/facet/usecase"

	prodH "github.com/fekuna/medequip-catalog-service/internal/product/handler"
	prodListenerPkg "github.com/fekuna/medequip-catalog-service/internal/product/listener"
	prodRepoPkg "github.com/fekuna/medequip-catalog-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/medequip-catalog-service/internal/product/usecase"

	taxH "github.com/fekuna/medequip-catalog-service/internal/taxonomy/handler"
	taxRepoPkg "github.com/fekuna/medequip-catalog-service/internal/taxonomy/repository"
	taxUCPkg "github.com/fekuna/medequip-catalog-service/internal/taxonomy/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 1.5 Initialize i18n; LOCALES_DIR may override the embedded messages
	i18n.Init()
	if dir := os.Getenv("LOCALES_DIR"); dir != "" {
		for _, name := range []string{"active.en.json", "active.ru.json"} {
			if err := i18n.Load(dir + "/" + name); err != nil {
				log.Printf("Failed to load %s locales: %v", name, err)
			}
		}
	}

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database and apply migrations
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:             cfg.Postgres.Host,
		Port:             cfg.Postgres.Port,
		User:             cfg.Postgres.User,
		Password:         cfg.Postgres.Password,
		DBName:           cfg.Postgres.DBName,
		SSLMode:          cfg.Postgres.SSLMode,
		MaxOpenConns:     cfg.Postgres.MaxOpenConns,
		MaxIdleConns:     cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime:  time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime:  time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		StatementTimeout: time.Duration(cfg.Postgres.StatementTimeout) * time.Millisecond,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	migrator, err := postgres.NewMigrator(db.DB, migrations.FS, appLogger)
	if err != nil {
		appLogger.Fatal("Could not prepare migrations", zap.Error(err))
	}
	if err := migrator.Up(); err != nil {
		appLogger.Fatal("Could not apply migrations", zap.Error(err))
	}

	// 4. Initialize Redis; the service runs uncached without it
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Redis, caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Initialize Kafka
	auditProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.AuditTopic,
	})
	defer auditProducer.Close()

	stockConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.StockTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer stockConsumer.Close()
	appLogger.Info("Kafka configured",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("audit_topic", cfg.Kafka.AuditTopic),
		zap.String("stock_topic", cfg.Kafka.StockTopic),
	)

	// 6. Initialize Elasticsearch; search falls back to SQL without it
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch, product search uses SQL", zap.Error(err))
		esClient = nil
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := esClient.CreateIndex(ctx, cfg.Elastic.Index, prodUCPkg.SearchIndexMapping); err != nil {
			appLogger.Warn("Could not create product index", zap.String("index", cfg.Elastic.Index), zap.Error(err))
		}
		cancel()
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 7. Initialize Repositories
	taxRepo := taxRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	asgRepo := asgRepoPkg.NewPGRepository(db)
	facetRepo := facetRepoPkg.NewPGRepository(db)

	// 8. Initialize UseCases
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, redisClient, esClient, appLogger, prodUCPkg.Options{
		SearchIndex:  cfg.Elastic.Index,
		ListCacheTTL: cfg.Catalog.ListCacheTTL,
	})
	taxUC := taxUCPkg.NewTaxonomyUseCase(taxRepo, taxRepo, redisClient, auditProducer, prodUC, appLogger, taxUCPkg.Options{
		MaxDepth:     cfg.Catalog.MaxTaxonomyDepth,
		GuardDepth:   cfg.Catalog.TreeGuardDepth,
		SampleSize:   cfg.Catalog.ImpactSampleSize,
		TreeCacheTTL: cfg.Catalog.TreeCacheTTL,
	})
	asgUC := asgUCPkg.NewAssignmentUseCase(asgRepo, asgRepo, redisClient, prodUC, appLogger)
	facetUC := facetUCPkg.NewFacetUseCase(facetRepo, redisClient, appLogger, facetUCPkg.Options{
		GuardDepth: cfg.Catalog.TreeGuardDepth,
		CacheTTL:   cfg.Catalog.FacetCacheTTL,
	})

	// 9. Start Listeners
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stockListener := prodListenerPkg.NewStockListener(stockConsumer, prodUC, appLogger)
	go stockListener.Start(ctx)

	// 10. gRPC Server
	grpcPort := listenAddr(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", grpcPort)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", grpcPort), zap.Error(err))
	}

	grpcServer := grpcserver.NewServer(appLogger)
	taxH.RegisterTaxonomyServiceServer(grpcServer, taxH.NewTaxonomyHandler(taxUC, appLogger))
	prodH.Register(grpcServer, prodH.NewProductHandler(prodUC, appLogger))
	asgH.Register(grpcServer, asgH.NewAssignmentHandler(asgUC, appLogger))
	facetH.Register(grpcServer, facetH.NewFacetHandler(facetUC))
	grpcServer.MarkServing()

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", grpcPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve gRPC", zap.Error(err))
		}
	}()

	// 11. HTTP Server
	router := httpserver.NewRouter(appLogger,
		[]httpserver.ReadinessCheck{
			{Name: "postgres", Check: db.PingContext},
			{Name: "redis", Check: func(ctx context.Context) error {
				if redisClient == nil {
					return nil
				}
				return redisClient.Client.Ping(ctx).Err()
			}},
		},
		taxH.NewHTTPHandler(taxUC),
		prodH.NewHTTPHandler(prodUC),
		asgH.NewHTTPHandler(asgUC),
		facetH.NewHTTPHandler(facetUC),
	)
	httpServer := &http.Server{
		Addr:              listenAddr(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve HTTP", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.Shutdown()
	appLogger.Info("Server stopped")
}

func listenAddr(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

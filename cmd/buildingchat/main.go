package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/buildingassets/buildingchat/internal/ai"
	"github.com/buildingassets/buildingchat/internal/chunker"
	"github.com/buildingassets/buildingchat/internal/config"
	"github.com/buildingassets/buildingchat/internal/filestore"
	"github.com/buildingassets/buildingchat/internal/handler"
	"github.com/buildingassets/buildingchat/internal/invoke"
	"github.com/buildingassets/buildingchat/internal/job"
	"github.com/buildingassets/buildingchat/internal/middleware"
	"github.com/buildingassets/buildingchat/internal/repo"
	"github.com/buildingassets/buildingchat/internal/schedule"
	"github.com/buildingassets/buildingchat/internal/service"
	"github.com/buildingassets/buildingchat/internal/usage"
	"github.com/buildingassets/buildingchat/internal/vectorstore/qdrant"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "buildingchat",
		Short: "buildingchat backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run buildingchat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			db, err := repo.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db", cfg.Database.DBName),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("vector_collection", cfg.Vector.Collection),
	)

	buildingRepo := repo.NewBuildingRepo(db)
	orgRepo := repo.NewOrganizationRepo(db)
	fileRepo := repo.NewFileRepo(db)
	chunkVectorRepo := repo.NewChunkVectorRepo(db)

	store := qdrant.New(qdrant.Config{
		URL:        cfg.Vector.Endpoint,
		APIKey:     cfg.Vector.APIKey,
		Collection: cfg.Vector.Collection,
	})
	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Init(initCtx, cfg.Vector.Dimension); err != nil {
		return fmt.Errorf("init vector collection: %w", err)
	}

	blobs, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	chatProvider, err := ai.NewChatProvider(cfg.AI.ChatProvider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init chat provider: %w", err)
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.AI.EmbedProvider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}

	monitor := usage.NewMonitor(cfg.Usage.SessionAlertUSD, cfg.Usage.DailyAlertUSD)
	embedder := service.NewEmbedder(embedProvider, cfg.AI.EmbeddingModel, cfg.Ingest.BatchSize)
	classifier := service.NewClassifier(chatProvider, cfg.AI.ClassifyModel)
	generator := service.NewGenerator(chatProvider, cfg.AI.ChatModel)
	resolver := service.NewResolver(buildingRepo, orgRepo, store, embedder)

	chunks := chunker.New(cfg.Ingest.WindowSize, cfg.Ingest.Overlap)
	ingestService := service.NewIngestService(fileRepo, chunkVectorRepo, store, blobs, embedder, chunks, monitor)

	invoker := invoke.NewInvoker()
	service.RegisterIngestHandler(invoker, ingestService)

	chatService := service.NewChatService(classifier, resolver, generator, buildingRepo, fileRepo, invoker, monitor)

	deps := handler.RouterDeps{
		Chat:      handler.NewChatHandler(chatService),
		Files:     handler.NewFileHandler(fileRepo, blobs, invoker),
		Usage:     handler.NewUsageHandler(monitor),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
			middleware.RateLimit(time.Duration(cfg.RateLimitMS)*time.Millisecond),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewUsageReportJob(monitor), cfg.Usage.ReportCron); err != nil {
		return fmt.Errorf("schedule usage report: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

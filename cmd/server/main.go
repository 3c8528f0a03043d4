package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/iamSachinDev/transcription-workflow-api/internal/config"
	"github.com/iamSachinDev/transcription-workflow-api/internal/fetch"
	httpserver "github.com/iamSachinDev/transcription-workflow-api/internal/interfaces/http"
	"github.com/iamSachinDev/transcription-workflow-api/internal/notify"
	"github.com/iamSachinDev/transcription-workflow-api/internal/port"
	"github.com/iamSachinDev/transcription-workflow-api/internal/report"
	"github.com/iamSachinDev/transcription-workflow-api/internal/repository"
	"github.com/iamSachinDev/transcription-workflow-api/internal/service"
	"github.com/iamSachinDev/transcription-workflow-api/internal/transcriber"
	"github.com/iamSachinDev/transcription-workflow-api/pkg/database"
	"github.com/iamSachinDev/transcription-workflow-api/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// .env is optional; config and env vars are the source of truth
	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting transcription workflow API",
		zap.Int("port", cfg.Server.Port))

	flags, err := config.ParseFlags(cfg.FeatureFlags)
	if err != nil {
		logger.Warn("Invalid FEATURE_FLAGS, all features enabled", zap.Error(err))
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.NewMigrator(db, logger).Run(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	workflowRepo := repository.NewWorkflowRepository(db.DB, logger)
	transcriptionRepo := repository.NewTranscriptionRepository(db.DB, logger)

	downloader := fetch.NewDownloader(fetch.Config{
		MaxAttempts: cfg.Download.MaxAttempts,
		Backoff:     cfg.Download.Backoff,
		Timeout:     cfg.Download.Timeout,
	}, logger)

	local := transcriber.NewMock("local")

	var speech port.Transcriber
	if cfg.OpenAI.APIKey != "" {
		speech = transcriber.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
		logger.Info("Speech backend: openai", zap.String("model", cfg.OpenAI.Model))
	} else {
		speech = transcriber.NewMock("mock")
		logger.Info("Speech backend: mock (no OpenAI key configured)")
	}

	var notifier port.Notifier
	larkCfg := notify.LarkConfig{AppID: cfg.Lark.AppID, AppSecret: cfg.Lark.AppSecret}
	if larkCfg.Enabled() {
		notifier = notify.NewLarkNotifier(larkCfg, logger)
		logger.Info("Assignment notifications: lark")
	} else {
		notifier = notify.NewNoop()
	}

	kv := utils.NewKVLogger(logger)
	workflowSvc := service.NewWorkflowService(workflowRepo, notifier, kv)
	transcriptionSvc := service.NewTranscriptionService(transcriptionRepo, downloader, local, speech, kv)

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:               cfg.Server.Host,
			Port:               cfg.Server.Port,
			ReadTimeout:        cfg.Server.ReadTimeout,
			WriteTimeout:       cfg.Server.WriteTimeout,
			RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
			CORSOrigins:        cfg.HTTP.CORSOrigins,
		},
		flags,
		workflowSvc,
		transcriptionSvc,
		report.NewExporter(logger),
		kv,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/notebookbobu/backend/internal/config"
	"github.com/notebookbobu/backend/internal/core"
	db "github.com/notebookbobu/backend/internal/core/database"
	"github.com/notebookbobu/backend/internal/core/extract"
	"github.com/notebookbobu/backend/internal/core/llm"
	objectclient "github.com/notebookbobu/backend/internal/core/object-client"
	"github.com/notebookbobu/backend/internal/core/processing"
	"github.com/notebookbobu/backend/internal/models"
	"github.com/notebookbobu/backend/internal/services"
	"github.com/notebookbobu/backend/internal/tracking"
)

// App is the composition root: it builds every component once, wires
// them together explicitly and owns their lifecycles. Nothing in the
// tree reaches for globals or re-reads the environment.
type App struct {
	Config  *config.Config
	Server  *Server
	Sweeper *processing.Sweeper

	db       *db.DatabaseClient
	analyzer core.ContentAnalyzer
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logrus.WithField("component", "app")

	var (
		docs     core.DocumentRepository
		chunks   core.ChunkRepository
		users    core.UserRepository
		dbClient *db.DatabaseClient
	)
	if cfg.DatabaseURL != "" {
		var err error
		dbClient, err = db.NewDatabaseClient(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		docs, chunks, users = dbClient, dbClient, dbClient
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		mem := db.NewMemoryStore()
		docs, chunks, users = mem, mem, mem
	}

	var storage core.ObjectClient
	if cfg.AwsAccessKey != "" && cfg.AwsSecretKey != "" {
		s3, err := objectclient.NewS3Client(ctx, cfg.AwsAccessKey, cfg.AwsSecretKey, cfg.AwsRegion)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		storage = s3
	} else {
		log.Info("object storage not configured, uploads kept out of S3")
	}

	analyzer, err := buildAnalyzer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	orchestrator := processing.NewOrchestrator(docs, chunks, analyzer, llm.NewFallbackAnalyzer(), cfg.HonorChunkOverlap)
	sweeper := processing.NewSweeper(orchestrator, docs, cfg.SweepInterval, cfg.SweepAfter)

	strategy := models.ProcessingStrategy{
		ChunkSize:     cfg.ChunkSize,
		ChunkOverlap:  cfg.ChunkOverlap,
		ExtractTables: true,
	}

	docService := services.NewDocumentService(
		docs,
		chunks,
		orchestrator,
		storage,
		extract.NewDocconvExtractor(false),
		cfg.BucketName,
		cfg.MaxFileSize,
		strategy,
	)

	tracker := tracking.NewTracker(cfg.TrackingEndpoint, cfg.TrackingAPIKey)

	server := NewServer(cfg, docService, users, tracker)

	return &App{
		Config:   cfg,
		Server:   server,
		Sweeper:  sweeper,
		db:       dbClient,
		analyzer: analyzer,
	}, nil
}

// buildAnalyzer picks the configured analysis collaborator. With no API
// key at all the orchestrator's fallback carries every document, which
// keeps the pipeline fully functional offline.
func buildAnalyzer(ctx context.Context, cfg *config.Config) (core.ContentAnalyzer, error) {
	switch {
	case cfg.OpenAIAPIKey != "":
		return llm.NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case cfg.GeminiAPIKey != "":
		analyzer, err := llm.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("init gemini analyzer: %w", err)
		}
		return analyzer, nil
	default:
		logrus.Warn("no analysis API key configured, documents get fallback summaries")
		return nil, nil
	}
}

// Close releases external connections. Safe to call once at shutdown.
func (a *App) Close() {
	if closer, ok := a.analyzer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logrus.WithField("error", err.Error()).Warn("analyzer close failed")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logrus.WithField("error", err.Error()).Warn("database close failed")
		}
	}
}

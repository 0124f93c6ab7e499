package app

import (
	"context"
	"edu_ai_backend/internal/ai"
	"edu_ai_backend/internal/config"
	"edu_ai_backend/internal/controller"
	"edu_ai_backend/internal/pipeline"
	"edu_ai_backend/internal/repository"
	"edu_ai_backend/internal/service"
	"edu_ai_backend/internal/util"
	"edu_ai_backend/internal/worker"
	"edu_ai_backend/pkg/database"
	"edu_ai_backend/pkg/logger"
	"edu_ai_backend/pkg/monitoring"
	"edu_ai_backend/pkg/security"
	"edu_ai_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client
	Pool      *worker.Pool
	Generator *pipeline.Generator
}

type services struct {
	storage   *service.StorageService
	extractor *service.ExtractorService
	reporter  *service.ReportService
	lesson    *service.LessonService
	video     *service.VideoService
}

type controllers struct {
	lesson *controller.LessonController
	health *controller.HealthController
}

func (a *App) initServices(repo *repository.LessonRepository, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.extractor = service.NewExtractorService()
	s.reporter = service.NewReportService(cfg.Reporter, logger.Log)

	oracle := ai.NewClient(cfg.AI, logger.Log)
	embedder := ai.NewEmbedder(cfg.AI, cfg.Embedding, rdb, logger.Log)
	filter := pipeline.NewFilter(embedder,
		cfg.Pipeline.RelevanceThreshold,
		cfg.Pipeline.DuplicateThreshold,
		logger.Log)
	a.Generator = pipeline.NewGenerator(oracle, filter, pipelineOptions(cfg), logger.Log)

	s.lesson = service.NewLessonService(repo, a.Generator, s.extractor, s.storage, s.reporter, logger.Log)
	s.video = service.NewVideoService(repo, s.storage, logger.Log)
	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		lesson: controller.NewLessonController(s.lesson, s.video, s.storage, a.Pool, logger.Log),
		health: controller.NewHealthController(a.DB, a.Redis),
	}
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		TotalQuestions:     cfg.Pipeline.TotalQuestions,
		ChunkSize:          cfg.Pipeline.ChunkSize,
		ChunkThreshold:     cfg.Pipeline.ChunkThreshold,
		MaxPerChunk:        cfg.Pipeline.MaxPerChunk,
		RelevanceThreshold: cfg.Pipeline.RelevanceThreshold,
		DuplicateThreshold: cfg.Pipeline.DuplicateThreshold,
		Concurrency:        cfg.Pipeline.Concurrency,
		FocusPasses:        cfg.Pipeline.FocusPasses,
	}
}

// ReloadPipeline applies hot-reloaded tunables to the running
// generator without a restart. Connection-level settings still need
// one.
func (a *App) ReloadPipeline(cfg *config.Config) {
	if a.Generator == nil {
		return
	}
	a.Generator.SetOptions(pipelineOptions(cfg))
	logger.Log.Info("pipeline options reloaded",
		zap.Int("totalQuestions", cfg.Pipeline.TotalQuestions),
		zap.Float64("relevanceThreshold", cfg.Pipeline.RelevanceThreshold),
		zap.Float64("duplicateThreshold", cfg.Pipeline.DuplicateThreshold))
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("logger initialized")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Redis only backs the embedding cache; run without it.
		logger.Log.Warn("redis unavailable, embedding cache is in-process only", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	app.Pool = worker.NewPool(cfg.Pipeline.Workers, cfg.Pipeline.QueueSize, logger.Log)

	repo := repository.NewLessonRepository(db)
	services := app.initServices(repo, cfg, rdb)
	controllers := app.initControllers(services)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("lesson-ai-service", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Close the listener first so no request can enqueue a run once
	// the pool starts draining.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	a.Pool.Stop()

	log.Println("Server exiting")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dechiad1/chesster/internal/adapters"
	llmAdapter "github.com/dechiad1/chesster/internal/adapters/llm"
	"github.com/dechiad1/chesster/internal/bootstrap"
	analysisDelivery "github.com/dechiad1/chesster/internal/delivery/analysis"
	coachDelivery "github.com/dechiad1/chesster/internal/delivery/coach"
	ownMiddleware "github.com/dechiad1/chesster/internal/middleware"
	"github.com/dechiad1/chesster/internal/repository"
	analysisUC "github.com/dechiad1/chesster/internal/usecase/analysis"
	coachUC "github.com/dechiad1/chesster/internal/usecase/coach"
)

type mainDeliveryHandler struct {
	analysis *analysisDelivery.AnalysisHandler
	coach    *coachDelivery.CoachHandler
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx := context.Background()

	databaseAdapters := initDatabaseAdapters(ctx, logger, cfg)
	if databaseAdapters.mongoAdapter != nil {
		defer databaseAdapters.mongoAdapter.Close(ctx)
	}
	if databaseAdapters.redisAdapter != nil {
		defer databaseAdapters.redisAdapter.Close(ctx)
	}

	provider, err := llmAdapter.NewProvider(cfg)
	if err != nil {
		logger.Fatal("Failed to create LLM provider", zap.Error(err))
	}
	logger.Infof("Using LLM provider %s", provider.Name())

	engine := repository.NewEngineRepository(cfg, logger)
	defer engine.Close()
	if engine.IsAvailable() {
		logger.Infof("Chess engine ready at depth %d", cfg.EngineDepth)
	} else {
		logger.Warn("Chess engine not found, analysis will run without evaluations")
	}

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(*cfg, logger, provider, engine, databaseAdapters)
	handlers.Router(r, cfg.IsLocalCors)

	port := ":" + cfg.ServerPort
	logger.Infof("Server is running on port %s", port)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{Addr: port, Handler: r}
	if err := serve(srv, stop, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
	// Returning from main runs the deferred engine and adapter closes, so
	// no engine subprocess outlives the server.
}

// serve runs the HTTP server until it fails or a shutdown signal arrives,
// then drains in-flight requests before returning.
func serve(srv *http.Server, stop <-chan os.Signal, log *zap.SugaredLogger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		log.Info("Received shutdown signal")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)

	r.Post("/analyze", h.analysis.HandleAnalyzeGame)
	r.Get("/analysis/{id}", h.analysis.HandleGetAnalysis)
	r.Get("/engineStatus", h.analysis.HandleEngineStatus)
	r.Get("/ws/analyze", h.analysis.HandleAnalyzeGameWS)
	r.Post("/coach/chat", h.coach.HandleChat)
	r.Post("/coach/advice", h.coach.HandleAdvice)
	r.Post("/lines", h.coach.HandleLines)
}

// initDatabaseAdapters brings up Redis and Mongo when they are configured.
// Both are optional; the analysis pipeline works without caching or an
// archive.
func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	dbs := &dataBaseAdapters{}

	if cfg.MongoUri != "" {
		mongoAdapter := adapters.NewAdapterMongo(cfg)
		if err := mongoAdapter.Init(ctx); err != nil {
			log.Warnw("MongoDB unavailable, analysis archive disabled", "error", err)
		} else {
			dbs.mongoAdapter = mongoAdapter
		}
	}

	if cfg.RedisUrl != "" {
		redisAdapter := adapters.NewAdapterRedis(cfg)
		if err := redisAdapter.Init(ctx); err != nil {
			log.Warnw("Redis unavailable, analysis cache disabled", "error", err)
		} else {
			dbs.redisAdapter = redisAdapter
		}
	}

	return dbs
}

func initializeDeliveryHandlers(
	cfg bootstrap.Config,
	log *zap.SugaredLogger,
	provider llmAdapter.Provider,
	engine *repository.EngineRepository,
	databaseAdapters *dataBaseAdapters,
) *mainDeliveryHandler {
	var cache *repository.AnalysisCache
	if databaseAdapters.redisAdapter != nil {
		cache = repository.NewAnalysisCache(databaseAdapters.redisAdapter, &cfg, log)
	}

	var archive *repository.AnalysisArchive
	if databaseAdapters.mongoAdapter != nil {
		archive = repository.NewAnalysisArchive(databaseAdapters.mongoAdapter, log)
	}

	analysisUseCase := analysisUC.NewAnalysisUseCase(provider, engine, &cfg, log)
	coachUseCase := coachUC.NewCoachUseCase(provider, engine, &cfg, log)

	return &mainDeliveryHandler{
		analysis: analysisDelivery.NewAnalysisHandler(cfg, log, analysisUseCase, engine, cache, archive),
		coach:    coachDelivery.NewCoachHandler(log, coachUseCase),
	}
}


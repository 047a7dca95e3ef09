package analysis

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dechiad1/chesster/internal/bootstrap"
	analysisdomain "github.com/dechiad1/chesster/internal/domain/analysis"
	"github.com/dechiad1/chesster/internal/httpresponse"
	"github.com/dechiad1/chesster/internal/repository"
	analysisUC "github.com/dechiad1/chesster/internal/usecase/analysis"
	"github.com/dechiad1/chesster/internal/utils"
)

type EngineStatus interface {
	IsAvailable() bool
}

// AnalysisHandler exposes the game analysis pipeline over HTTP. Cache and
// archive are optional collaborators; a nil value simply disables the
// feature.
type AnalysisHandler struct {
	cfg      bootstrap.Config
	log      *zap.SugaredLogger
	analysis *analysisUC.AnalysisUseCase
	engine   EngineStatus
	cache    *repository.AnalysisCache
	archive  *repository.AnalysisArchive
}

func NewAnalysisHandler(
	cfg bootstrap.Config,
	log *zap.SugaredLogger,
	analysis *analysisUC.AnalysisUseCase,
	engine EngineStatus,
	cache *repository.AnalysisCache,
	archive *repository.AnalysisArchive,
) *AnalysisHandler {
	return &AnalysisHandler{
		cfg:      cfg,
		log:      log,
		analysis: analysis,
		engine:   engine,
		cache:    cache,
		archive:  archive,
	}
}

type AnalyzeGameRequest struct {
	PGN string `json:"pgn"`
}

type AnalyzeGameResponse struct {
	ID     string                `json:"id,omitempty"`
	Cached bool                  `json:"cached,omitempty"`
	Result analysisdomain.Result `json:"result"`
}

func (h *AnalysisHandler) HandleAnalyzeGame(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteJSONError(h.log, w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.PGN) == "" {
		httpresponse.WriteJSONError(h.log, w, http.StatusBadRequest, "pgn is required")
		return
	}

	ctx := r.Context()

	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, req.PGN); ok {
			httpresponse.WriteJSON(h.log, w, http.StatusOK, AnalyzeGameResponse{Cached: true, Result: *cached})
			return
		}
	}

	result, err := h.analysis.AnalyzeGame(ctx, req.PGN)
	if err != nil {
		h.log.Errorf("game analysis failed: %v", err)
		status, msg := httpresponse.StatusFromError(err)
		httpresponse.WriteJSONError(h.log, w, status, msg)
		return
	}

	resp := AnalyzeGameResponse{Result: result}
	if h.archive != nil {
		id, err := h.archive.Save(ctx, req.PGN, result)
		if err != nil {
			h.log.Warnw("failed to archive analysis", "error", err)
		} else {
			resp.ID = id
		}
	}
	if h.cache != nil {
		h.cache.Put(ctx, req.PGN, result)
	}

	httpresponse.WriteJSON(h.log, w, http.StatusOK, resp)
}

func (h *AnalysisHandler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httpresponse.WriteJSONError(h.log, w, http.StatusServiceUnavailable, "Analysis archive is not configured")
		return
	}

	id := chi.URLParam(r, "id")
	record, err := h.archive.GetByID(r.Context(), id)
	if err != nil {
		status, msg := httpresponse.StatusFromError(err)
		httpresponse.WriteJSONError(h.log, w, status, msg)
		return
	}

	httpresponse.WriteJSON(h.log, w, http.StatusOK, record)
}

type EngineStatusResponse struct {
	Available bool `json:"available"`
}

func (h *AnalysisHandler) HandleEngineStatus(w http.ResponseWriter, r *http.Request) {
	available := h.engine != nil && h.engine.IsAvailable()
	httpresponse.WriteJSON(h.log, w, http.StatusOK, EngineStatusResponse{Available: available})
}

package coach

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dechiad1/chesster/internal/httpresponse"
	coachUC "github.com/dechiad1/chesster/internal/usecase/coach"
	"github.com/dechiad1/chesster/internal/utils"
)

type CoachHandler struct {
	log   *zap.SugaredLogger
	coach *coachUC.CoachUseCase
}

func NewCoachHandler(log *zap.SugaredLogger, coach *coachUC.CoachUseCase) *CoachHandler {
	return &CoachHandler{
		log:   log,
		coach: coach,
	}
}

func (h *CoachHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req coachUC.ChatRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteJSONError(h.log, w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.FEN) == "" {
		httpresponse.WriteJSONError(h.log, w, http.StatusBadRequest, "message and fen are required")
		return
	}

	resp, err := h.coach.Chat(r.Context(), req)
	if err != nil {
		h.log.Errorf("coach chat failed: %v", err)
		status, msg := httpresponse.StatusFromError(err)
		httpresponse.WriteJSONError(h.log, w, status, msg)
		return
	}

	httpresponse.WriteJSON(h.log, w, http.StatusOK, resp)
}

type AdviceRequest struct {
	FEN         string   `json:"fen"`
	MoveHistory []string `json:"move_history"`
}

type AdviceResponse struct {
	Advice string `json:"advice"`
}

func (h *CoachHandler) HandleAdvice(w http.ResponseWriter, r *http.Request) {
	var req AdviceRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteJSONError(h.log, w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.FEN) == "" {
		httpresponse.WriteJSONError(h.log, w, http.StatusBadRequest, "fen is required")
		return
	}

	advice, err := h.coach.PositionAdvice(r.Context(), req.FEN, req.MoveHistory)
	if err != nil {
		h.log.Errorf("position advice failed: %v", err)
		status, msg := httpresponse.StatusFromError(err)
		httpresponse.WriteJSONError(h.log, w, status, msg)
		return
	}

	httpresponse.WriteJSON(h.log, w, http.StatusOK, AdviceResponse{Advice: advice})
}

type LinesRequest struct {
	FEN      string `json:"fen"`
	NumLines int    `json:"num_lines"`
	Depth    int    `json:"depth"`
}

type LinesResponse struct {
	Lines []coachUC.SuggestedLine `json:"lines"`
}

func (h *CoachHandler) HandleLines(w http.ResponseWriter, r *http.Request) {
	var req LinesRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteJSONError(h.log, w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.FEN) == "" {
		httpresponse.WriteJSONError(h.log, w, http.StatusBadRequest, "fen is required")
		return
	}

	lines, err := h.coach.Lines(r.Context(), req.FEN, req.NumLines, req.Depth)
	if err != nil {
		h.log.Errorf("line generation failed: %v", err)
		status, msg := httpresponse.StatusFromError(err)
		httpresponse.WriteJSONError(h.log, w, status, msg)
		return
	}

	httpresponse.WriteJSON(h.log, w, http.StatusOK, LinesResponse{Lines: lines})
}

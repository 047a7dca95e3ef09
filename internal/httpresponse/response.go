package httpresponse

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dechiad1/chesster/internal/errors"
)

func WriteJSON(log *zap.SugaredLogger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Errorf("WriteJSON encode error: %v", err)
	}
}

func WriteJSONError(log *zap.SugaredLogger, w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
	log.Debugf("WriteJSONError: %s", msg)
}

// StatusFromError converts the shared error taxonomy into an HTTP status and
// a user-facing message, keeping "add your API key" distinguishable from
// "try again later".
func StatusFromError(err error) (int, string) {
	switch {
	case stderrors.Is(err, errors.ErrInvalidGameNotation):
		return http.StatusBadRequest, "The game notation could not be parsed"
	case stderrors.Is(err, errors.ErrInvalidPosition):
		return http.StatusBadRequest, "The position is invalid"
	case stderrors.Is(err, errors.ErrNotConfigured):
		return http.StatusServiceUnavailable, "No LLM provider is configured. Add your API key in the settings."
	case stderrors.Is(err, errors.ErrAuthentication):
		return http.StatusUnauthorized, "The LLM provider rejected the API key"
	case stderrors.Is(err, errors.ErrRateLimited):
		return http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."
	case stderrors.Is(err, errors.ErrProvider), stderrors.Is(err, errors.ErrEmptyResponse):
		return http.StatusBadGateway, "The LLM provider request failed"
	case stderrors.Is(err, errors.ErrEngineUnavailable):
		return http.StatusServiceUnavailable, "No chess engine is available"
	case stderrors.Is(err, errors.ErrEngineTimeout):
		return http.StatusGatewayTimeout, "The chess engine did not respond in time"
	case stderrors.Is(err, errors.ErrAnalysisNotFound):
		return http.StatusNotFound, "Analysis not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

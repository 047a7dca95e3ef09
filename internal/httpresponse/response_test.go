package httpresponse

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dechiad1/chesster/internal/errors"
)

func TestStatusFromError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errors.ErrInvalidGameNotation, http.StatusBadRequest},
		{errors.ErrInvalidPosition, http.StatusBadRequest},
		{errors.ErrNotConfigured, http.StatusServiceUnavailable},
		{errors.ErrAuthentication, http.StatusUnauthorized},
		{errors.ErrRateLimited, http.StatusTooManyRequests},
		{errors.ErrProvider, http.StatusBadGateway},
		{errors.ErrEmptyResponse, http.StatusBadGateway},
		{errors.ErrEngineUnavailable, http.StatusServiceUnavailable},
		{errors.ErrEngineTimeout, http.StatusGatewayTimeout},
		{errors.ErrAnalysisNotFound, http.StatusNotFound},
		{errors.ErrInternal, http.StatusInternalServerError},
		{fmt.Errorf("anything else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		// Errors reach the handler wrapped by the layers in between.
		wrapped := fmt.Errorf("game analysis failed: %w", tc.err)
		if status, _ := StatusFromError(wrapped); status != tc.status {
			t.Errorf("StatusFromError(%v) = %d, want %d", tc.err, status, tc.status)
		}
	}
}

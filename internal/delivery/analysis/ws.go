package analysis

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	analysisdomain "github.com/dechiad1/chesster/internal/domain/analysis"
	"github.com/dechiad1/chesster/internal/httpresponse"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsEvent struct {
	Type   string                 `json:"type"` // "progress", "result", "error"
	Done   int                    `json:"done,omitempty"`
	Total  int                    `json:"total,omitempty"`
	Result *analysisdomain.Result `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// HandleAnalyzeGameWS runs a full analysis over a websocket, streaming
// per-move engine evaluation progress before the final result. The client
// sends a single {"pgn": ...} message and then only reads.
func (h *AnalysisHandler) HandleAnalyzeGameWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var req AnalyzeGameRequest
	if err := conn.ReadJSON(&req); err != nil || req.PGN == "" {
		_ = conn.WriteJSON(wsEvent{Type: "error", Error: "expected a JSON message with a pgn field"})
		return
	}

	// Progress callbacks arrive from evaluation workers; gorilla conns
	// allow one concurrent writer only.
	var writeMu sync.Mutex
	send := func(ev wsEvent) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(ev); err != nil {
			h.log.Debugf("websocket write failed: %v", err)
		}
	}

	result, err := h.analysis.AnalyzeGameWithProgress(r.Context(), req.PGN, func(done, total int) {
		send(wsEvent{Type: "progress", Done: done, Total: total})
	})
	if err != nil {
		h.log.Errorf("websocket analysis failed: %v", err)
		_, msg := httpresponse.StatusFromError(err)
		send(wsEvent{Type: "error", Error: msg})
		return
	}

	send(wsEvent{Type: "result", Result: &result})
}

package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/dechiad1/chesster/internal/bootstrap"
	analysisdomain "github.com/dechiad1/chesster/internal/domain/analysis"
	llmdomain "github.com/dechiad1/chesster/internal/domain/llm"
	"github.com/dechiad1/chesster/internal/errors"
)

const coachSystemPrompt = `You are an expert chess coach helping a student improve their game. Your role is to:

1. Answer questions about chess strategy, tactics, and concepts
2. Analyze the current position when asked
3. Explain ideas behind moves and plans
4. Help the student learn from their mistakes
5. Provide encouragement while being honest about areas for improvement

When discussing positions:
- Use proper chess notation (e4, Nf3, etc.)
- Explain concepts in terms the student can understand
- Point out tactical and strategic themes
- Suggest what to look for in similar positions

Be supportive but educational. Your goal is to help the student grow as a chess player.

Current game context will be provided with each message.`

// historyWindow caps how many previous conversation turns are replayed to
// the model.
const historyWindow = 10

const suggestedLineCount = 3

// maxLineMoves keeps suggested lines short enough to read on a board.
const maxLineMoves = 6

var linesKeywords = []string{
	"continuation", "variations", "lines", "what should i play",
	"show me moves", "typical moves", "best continuations",
	"what are my options", "possible moves", "suggest moves",
	"show continuations", "what to play",
}

type LlmStore interface {
	Chat(ctx context.Context, messages []llmdomain.Message, systemPrompt string, maxTokens int) (llmdomain.ChatResponse, error)
	Name() string
	IsConfigured() bool
}

type EngineStore interface {
	IsAvailable() bool
	AnalyzePosition(ctx context.Context, fen string, depth int) (analysisdomain.PositionAnalysis, error)
	MultiPV(ctx context.Context, fen string, numLines, depth int) ([]analysisdomain.PositionAnalysis, error)
}

type ChatRequest struct {
	Message     string              `json:"message"`
	FEN         string              `json:"fen"`
	MoveHistory []string            `json:"move_history"`
	History     []llmdomain.Message `json:"conversation_history"`
}

type SuggestedLine struct {
	Moves       []string `json:"moves"` // SAN
	Evaluation  float64  `json:"evaluation"`
	IsMate      bool     `json:"is_mate"`
	Description string   `json:"description"`
}

type ChatResponse struct {
	ResponseType string          `json:"response_type"` // "text" or "lines"
	Content      string          `json:"content"`
	Lines        []SuggestedLine `json:"lines,omitempty"`
}

type CoachUseCase struct {
	llm    LlmStore
	engine EngineStore
	log    *zap.SugaredLogger
	depth  int
}

func NewCoachUseCase(llm LlmStore, engine EngineStore, cfg *bootstrap.Config, log *zap.SugaredLogger) *CoachUseCase {
	return &CoachUseCase{
		llm:    llm,
		engine: engine,
		log:    log,
		depth:  cfg.EngineDepth,
	}
}

// Chat answers one student message about the current position. Requests for
// concrete variations are answered from the engine when one is available;
// everything else goes to the model with position context attached.
func (c *CoachUseCase) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if isRequestingLines(req.Message) {
		return c.linesResponse(ctx, req.FEN)
	}

	context := buildContext(req.FEN, req.MoveHistory)

	if c.engine != nil && c.engine.IsAvailable() {
		if pa, err := c.engine.AnalyzePosition(ctx, req.FEN, c.depth); err != nil {
			c.log.Warnw("coach engine analysis failed", "error", err)
		} else {
			context += fmt.Sprintf("\n\nEngine evaluation: %.2f (positive = white advantage)", pa.Evaluation/100)
			context += fmt.Sprintf("\nBest move according to engine: %s", pa.BestMove)
		}
	}

	history := req.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]llmdomain.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llmdomain.Message{
		Role:    llmdomain.RoleUser,
		Content: fmt.Sprintf("[Current Position Context]\n%s\n\n[User Question]\n%s", context, req.Message),
	})

	resp, err := c.llm.Chat(ctx, messages, coachSystemPrompt, 1024)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("coach chat failed: %w", err)
	}

	return ChatResponse{ResponseType: "text", Content: resp.Content}, nil
}

// PositionAdvice asks the model for a brief unprompted assessment of the
// current position.
func (c *CoachUseCase) PositionAdvice(ctx context.Context, fen string, moveHistory []string) (string, error) {
	context := buildContext(fen, moveHistory)

	message := llmdomain.Message{
		Role: llmdomain.RoleUser,
		Content: fmt.Sprintf(`[Position for Analysis]
%s

Please provide a brief assessment of this position. Consider:
1. What are the key features of this position?
2. What should the side to move be thinking about?
3. Are there any tactical or strategic ideas to consider?

Keep your response concise but educational.`, context),
	}

	resp, err := c.llm.Chat(ctx, []llmdomain.Message{message}, coachSystemPrompt, 512)
	if err != nil {
		return "", fmt.Errorf("position advice failed: %w", err)
	}
	return resp.Content, nil
}

// Lines returns up to numLines engine continuations for a position with the
// moves rendered in SAN.
func (c *CoachUseCase) Lines(ctx context.Context, fen string, numLines, depth int) ([]SuggestedLine, error) {
	if c.engine == nil || !c.engine.IsAvailable() {
		return nil, errors.ErrEngineUnavailable
	}
	if numLines <= 0 {
		numLines = suggestedLineCount
	}
	if depth <= 0 {
		depth = c.depth
	}

	analyses, err := c.engine.MultiPV(ctx, fen, numLines, depth)
	if err != nil {
		return nil, err
	}

	lines := make([]SuggestedLine, 0, len(analyses))
	for _, pa := range analyses {
		san, err := pvToSAN(fen, pa.PV)
		if err != nil {
			c.log.Warnw("failed to render line", "fen", fen, "error", err)
			continue
		}
		lines = append(lines, SuggestedLine{
			Moves:       san,
			Evaluation:  pa.Evaluation,
			IsMate:      pa.IsMate,
			Description: describeLine(pa),
		})
	}
	return lines, nil
}

func (c *CoachUseCase) linesResponse(ctx context.Context, fen string) (ChatResponse, error) {
	if c.engine == nil || !c.engine.IsAvailable() {
		return ChatResponse{
			ResponseType: "text",
			Content:      "I'd love to suggest specific lines, but I don't have access to a chess engine at the moment. I can still discuss general ideas and plans if you'd like!",
		}, nil
	}

	lines, err := c.Lines(ctx, fen, suggestedLineCount, c.depth)
	if err != nil || len(lines) == 0 {
		if err != nil {
			c.log.Warnw("failed to generate lines", "error", err)
		}
		return ChatResponse{
			ResponseType: "text",
			Content:      "I couldn't generate specific variations for this position. Could you ask about a specific aspect of the position instead?",
		}, nil
	}

	return ChatResponse{
		ResponseType: "lines",
		Content:      "Here are some typical continuations to consider:",
		Lines:        lines,
	}, nil
}

func isRequestingLines(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range linesKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func buildContext(fen string, moveHistory []string) string {
	parts := []string{fmt.Sprintf("Current position (FEN): %s", fen)}

	if len(moveHistory) > 0 {
		var formatted []string
		for i, move := range moveHistory {
			if i%2 == 0 {
				formatted = append(formatted, fmt.Sprintf("%d. %s", i/2+1, move))
			} else {
				formatted[len(formatted)-1] += " " + move
			}
		}
		parts = append(parts, "Moves played: "+strings.Join(formatted, " "))
		parts = append(parts, fmt.Sprintf("Total moves: %d", len(moveHistory)))

		turn := "White"
		if len(moveHistory)%2 == 1 {
			turn = "Black"
		}
		parts = append(parts, "To move: "+turn)
	}

	return strings.Join(parts, "\n")
}

// pvToSAN replays a UCI principal variation from the given position and
// renders each move in algebraic notation, capped at maxLineMoves.
func pvToSAN(fen string, pv []string) ([]string, error) {
	fenFn, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPosition, err)
	}
	game := chess.NewGame(fenFn)

	san := make([]string, 0, maxLineMoves)
	for _, uci := range pv {
		if len(san) == maxLineMoves {
			break
		}
		move, err := chess.UCINotation{}.Decode(game.Position(), uci)
		if err != nil {
			return nil, err
		}
		san = append(san, chess.AlgebraicNotation{}.Encode(game.Position(), move))
		if err := game.Move(move); err != nil {
			return nil, err
		}
	}
	return san, nil
}

func describeLine(pa analysisdomain.PositionAnalysis) string {
	if pa.IsMate {
		n := pa.MateIn
		if n < 0 {
			n = -n
		}
		return fmt.Sprintf("Forced mate in %d", n)
	}
	return fmt.Sprintf("Evaluation: %+.2f", pa.Evaluation/100)
}

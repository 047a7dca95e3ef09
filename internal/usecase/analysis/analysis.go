package analysis

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dechiad1/chesster/internal/bootstrap"
	analysisdomain "github.com/dechiad1/chesster/internal/domain/analysis"
	llmdomain "github.com/dechiad1/chesster/internal/domain/llm"
)

// EngineStore is the capability the pipeline needs from a chess engine. The
// evaluator may be absent entirely; when present, IsAvailable gates its use
// once per request.
type EngineStore interface {
	IsAvailable() bool
	EvaluateMove(ctx context.Context, fen, uciMove string, depth int) (analysisdomain.MoveEvaluation, error)
}

type LlmStore interface {
	Chat(ctx context.Context, messages []llmdomain.Message, systemPrompt string, maxTokens int) (llmdomain.ChatResponse, error)
	Name() string
	IsConfigured() bool
}

// ProgressFunc is called after each per-move engine evaluation completes,
// successful or not.
type ProgressFunc func(done, total int)

type AnalysisUseCase struct {
	llm         LlmStore
	engine      EngineStore
	log         *zap.SugaredLogger
	depth       int
	maxTokens   int
	parallelism int
}

func NewAnalysisUseCase(llm LlmStore, engine EngineStore, cfg *bootstrap.Config, log *zap.SugaredLogger) *AnalysisUseCase {
	return &AnalysisUseCase{
		llm:         llm,
		engine:      engine,
		log:         log,
		depth:       cfg.EngineDepth,
		maxTokens:   cfg.LlmMaxTokens,
		parallelism: cfg.EnginePoolSize,
	}
}

// AnalyzeGame runs the full pipeline for one game: parse, optional per-move
// engine evaluation, prompt assembly, one LLM call, reconciliation.
func (a *AnalysisUseCase) AnalyzeGame(ctx context.Context, pgn string) (analysisdomain.Result, error) {
	return a.analyze(ctx, pgn, nil)
}

// AnalyzeGameWithProgress is AnalyzeGame with a callback reporting per-move
// engine evaluation progress. The callback may be invoked from multiple
// goroutines but never concurrently.
func (a *AnalysisUseCase) AnalyzeGameWithProgress(ctx context.Context, pgn string, progress ProgressFunc) (analysisdomain.Result, error) {
	return a.analyze(ctx, pgn, progress)
}

func (a *AnalysisUseCase) analyze(ctx context.Context, pgn string, progress ProgressFunc) (analysisdomain.Result, error) {
	parsed, err := ParseGame(pgn)
	if err != nil {
		return analysisdomain.Result{}, err
	}

	// Engine evaluation degrades gracefully: absent or unavailable engine
	// means the LLM works from the move list alone.
	var evals []analysisdomain.MoveEvaluation
	if a.engine != nil && a.engine.IsAvailable() {
		evals = a.evaluateMoves(ctx, parsed, progress)
	} else {
		a.log.Infow("engine unavailable, skipping move evaluation", "moves", len(parsed.Moves))
	}

	prompt := BuildPrompt(parsed, evals)

	resp, err := a.llm.Chat(ctx, []llmdomain.Message{{Role: llmdomain.RoleUser, Content: prompt}}, analysisSystemPrompt, a.maxTokens)
	if err != nil {
		// The error kind is preserved so the caller can tell a missing key
		// from a rate limit.
		return analysisdomain.Result{}, fmt.Errorf("game analysis failed: %w", err)
	}

	return Reconcile(resp.Content), nil
}

// evaluateMoves runs the engine over every move of the game. Evaluations are
// independent, so they fan out across the engine pool; a failed move is
// logged and dropped without disturbing the rest.
func (a *AnalysisUseCase) evaluateMoves(ctx context.Context, parsed *analysisdomain.ParsedGame, progress ProgressFunc) []analysisdomain.MoveEvaluation {
	total := len(parsed.Moves)
	results := make([]*analysisdomain.MoveEvaluation, total)

	sem := make(chan struct{}, a.parallelism)
	var wg sync.WaitGroup
	var progressMu sync.Mutex
	done := 0

	for i := range parsed.Moves {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			rec := parsed.Moves[i]
			ev, err := a.engine.EvaluateMove(ctx, rec.FENBefore, rec.UCI, a.depth)
			if err != nil {
				a.log.Warnw("move evaluation failed",
					"number", rec.Number, "move", rec.SAN, "error", err)
			} else {
				ev.MoveNumber = rec.Number
				ev.Color = rec.Color
				ev.Move = rec.SAN
				results[i] = &ev
			}

			progressMu.Lock()
			done++
			if progress != nil {
				progress(done, total)
			}
			progressMu.Unlock()
		}(i)
	}
	wg.Wait()

	evals := make([]analysisdomain.MoveEvaluation, 0, total)
	for _, ev := range results {
		if ev != nil {
			evals = append(evals, *ev)
		}
	}
	return evals
}

package analysis

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/dechiad1/chesster/internal/bootstrap"
	analysisdomain "github.com/dechiad1/chesster/internal/domain/analysis"
	llmdomain "github.com/dechiad1/chesster/internal/domain/llm"
	"github.com/dechiad1/chesster/internal/errors"
)

type fakeLlm struct {
	mu         sync.Mutex
	lastPrompt string
	reply      string
	err        error
}

func (f *fakeLlm) Chat(ctx context.Context, messages []llmdomain.Message, systemPrompt string, maxTokens int) (llmdomain.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(messages) > 0 {
		f.lastPrompt = messages[len(messages)-1].Content
	}
	if f.err != nil {
		return llmdomain.ChatResponse{}, f.err
	}
	return llmdomain.ChatResponse{Content: f.reply, Model: "fake"}, nil
}

func (f *fakeLlm) Name() string       { return "fake" }
func (f *fakeLlm) IsConfigured() bool { return true }

type fakeEngine struct {
	available bool
	failUCI   string
	loss      float64
}

func (f *fakeEngine) IsAvailable() bool { return f.available }

func (f *fakeEngine) EvaluateMove(ctx context.Context, fen, uciMove string, depth int) (analysisdomain.MoveEvaluation, error) {
	if uciMove == f.failUCI {
		return analysisdomain.MoveEvaluation{}, errors.ErrEngineTimeout
	}
	return analysisdomain.MoveEvaluation{
		UCI:            uciMove,
		CentipawnLoss:  f.loss,
		Classification: analysisdomain.Classify(f.loss),
		BestMove:       "e2e4",
	}, nil
}

func testConfig() *bootstrap.Config {
	return &bootstrap.Config{
		EngineDepth:    10,
		EnginePoolSize: 2,
		LlmMaxTokens:   1024,
	}
}

func TestAnalyzeGameWithoutEngine(t *testing.T) {
	llm := &fakeLlm{reply: `{"summary": "ok"}`}
	uc := NewAnalysisUseCase(llm, &fakeEngine{available: false}, testConfig(), zap.NewNop().Sugar())

	res, err := uc.AnalyzeGame(context.Background(), "1. e4 e5 2. Nf3 Nc6")
	if err != nil {
		t.Fatalf("AnalyzeGame failed: %v", err)
	}
	if res.Summary != "ok" {
		t.Errorf("summary = %q", res.Summary)
	}
	if strings.Contains(llm.lastPrompt, "Engine-identified issues") {
		t.Errorf("prompt should not contain engine section without an engine:\n%s", llm.lastPrompt)
	}
}

func TestAnalyzeGameWithEngine(t *testing.T) {
	llm := &fakeLlm{reply: `{"summary": "ok"}`}
	engine := &fakeEngine{available: true, loss: 350}
	uc := NewAnalysisUseCase(llm, engine, testConfig(), zap.NewNop().Sugar())

	if _, err := uc.AnalyzeGame(context.Background(), "1. e4 e5 2. Nf3 Nc6"); err != nil {
		t.Fatalf("AnalyzeGame failed: %v", err)
	}
	if !strings.Contains(llm.lastPrompt, "Engine-identified issues:") {
		t.Errorf("prompt should contain engine section:\n%s", llm.lastPrompt)
	}
	if !strings.Contains(llm.lastPrompt, "BLUNDER") {
		t.Errorf("prompt should flag the blunders:\n%s", llm.lastPrompt)
	}
}

func TestAnalyzeGamePartialEngineFailure(t *testing.T) {
	llm := &fakeLlm{reply: `{"summary": "ok"}`}
	// One move fails to evaluate; the rest still make the prompt.
	engine := &fakeEngine{available: true, loss: 350, failUCI: "g1f3"}
	uc := NewAnalysisUseCase(llm, engine, testConfig(), zap.NewNop().Sugar())

	var lastDone, lastTotal int
	_, err := uc.AnalyzeGameWithProgress(context.Background(), "1. e4 e5 2. Nf3 Nc6", func(done, total int) {
		lastDone, lastTotal = done, total
	})
	if err != nil {
		t.Fatalf("AnalyzeGameWithProgress failed: %v", err)
	}

	if lastDone != 4 || lastTotal != 4 {
		t.Errorf("progress ended at %d/%d, want 4/4", lastDone, lastTotal)
	}
	if strings.Contains(llm.lastPrompt, "Nf3 is a BLUNDER") {
		t.Errorf("failed evaluation should be dropped from the prompt:\n%s", llm.lastPrompt)
	}
	if !strings.Contains(llm.lastPrompt, "e4 is a BLUNDER") {
		t.Errorf("surviving evaluations should make the prompt:\n%s", llm.lastPrompt)
	}
}

func TestAnalyzeGameInvalidNotation(t *testing.T) {
	llm := &fakeLlm{reply: `{"summary": "ok"}`}
	uc := NewAnalysisUseCase(llm, nil, testConfig(), zap.NewNop().Sugar())

	_, err := uc.AnalyzeGame(context.Background(), "not a game")
	if !stderrors.Is(err, errors.ErrInvalidGameNotation) {
		t.Errorf("error %v should wrap ErrInvalidGameNotation", err)
	}
}

func TestAnalyzeGamePreservesLlmErrorKind(t *testing.T) {
	llm := &fakeLlm{err: errors.ErrRateLimited}
	uc := NewAnalysisUseCase(llm, &fakeEngine{available: false}, testConfig(), zap.NewNop().Sugar())

	_, err := uc.AnalyzeGame(context.Background(), "1. e4 e5")
	if !stderrors.Is(err, errors.ErrRateLimited) {
		t.Errorf("error %v should wrap ErrRateLimited", err)
	}
}

package repository

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/dechiad1/chesster/internal/bootstrap"
	analysisdomain "github.com/dechiad1/chesster/internal/domain/analysis"
	"github.com/dechiad1/chesster/internal/errors"
)

// mateScore is the centipawn sentinel for a forced mate, signed from
// White's point of view.
const mateScore = 10000

const handshakeTimeout = 5 * time.Second

// engineBinaryNames are probed on PATH when ENGINE_PATH is not set.
var engineBinaryNames = []string{"stockfish", "stockfish.exe"}

// EngineRepository owns a pool of UCI engine processes. Processes are
// started lazily on first use and each search has exclusive use of one
// process, since a UCI engine's loaded position is mutable session state.
type EngineRepository struct {
	cfg *bootstrap.Config
	log *zap.SugaredLogger

	mu       sync.Mutex
	started  bool
	startErr error
	path     string
	pool     chan *uciProcess
	procs    []*uciProcess

	searchTimeout time.Duration
}

func NewEngineRepository(cfg *bootstrap.Config, log *zap.SugaredLogger) *EngineRepository {
	return &EngineRepository{
		cfg:           cfg,
		log:           log,
		searchTimeout: time.Duration(cfg.EngineMoveTimeoutSeconds) * time.Second,
	}
}

// IsAvailable reports whether an engine binary was found and at least one
// process completed the UCI handshake. It never returns an error.
func (e *EngineRepository) IsAvailable() bool {
	return e.ensureStarted() == nil
}

func (e *EngineRepository) ensureStarted() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return e.startErr
	}
	e.started = true

	path, err := findEngineBinary(e.cfg.EnginePath)
	if err != nil {
		e.startErr = err
		e.log.Warnw("engine binary not found", "error", err)
		return e.startErr
	}
	e.path = path

	size := e.cfg.EnginePoolSize
	e.pool = make(chan *uciProcess, size)
	for i := 0; i < size; i++ {
		proc, err := startUCIProcess(path, e.log)
		if err != nil {
			e.log.Warnw("failed to start engine process", "path", path, "error", err)
			continue
		}
		e.procs = append(e.procs, proc)
		e.pool <- proc
	}

	if len(e.procs) == 0 {
		e.startErr = fmt.Errorf("%w: could not start %s", errors.ErrEngineUnavailable, path)
		return e.startErr
	}

	e.log.Infow("engine pool started", "path", path, "size", len(e.procs))
	return nil
}

func findEngineBinary(override string) (string, error) {
	candidates := engineBinaryNames
	if override != "" {
		candidates = append([]string{override}, candidates...)
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no engine binary on PATH", errors.ErrEngineUnavailable)
}

func (e *EngineRepository) acquire(ctx context.Context) (*uciProcess, error) {
	if err := e.ensureStarted(); err != nil {
		return nil, err
	}
	select {
	case proc := <-e.pool:
		if proc.broken {
			fresh, err := e.respawn(proc)
			if err != nil {
				// The slot goes back so a later acquire retries the
				// respawn instead of draining the pool dry.
				e.pool <- proc
				return nil, err
			}
			return fresh, nil
		}
		return proc, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *EngineRepository) release(proc *uciProcess) {
	if proc.broken {
		if fresh, err := e.respawn(proc); err == nil {
			e.pool <- fresh
			return
		}
		// Respawn failed; the dead process holds the slot as a
		// broken placeholder until the next acquire retries.
		e.pool <- proc
		return
	}
	e.pool <- proc
}

// respawn replaces a dead process in the bookkeeping list with a fresh one.
func (e *EngineRepository) respawn(dead *uciProcess) (*uciProcess, error) {
	dead.kill()
	fresh, err := startUCIProcess(e.path, e.log)
	if err != nil {
		return nil, fmt.Errorf("%w: restart failed", errors.ErrEngineUnavailable)
	}
	e.mu.Lock()
	for i, p := range e.procs {
		if p == dead {
			e.procs[i] = fresh
		}
	}
	e.mu.Unlock()
	return fresh, nil
}

// Close terminates every engine process. Safe to call more than once.
func (e *EngineRepository) Close() error {
	e.mu.Lock()
	procs := e.procs
	e.procs = nil
	e.mu.Unlock()

	for _, proc := range procs {
		proc.quit()
	}
	return nil
}

// AnalyzePosition evaluates a single position at the given depth. The score
// is normalized to White's point of view.
func (e *EngineRepository) AnalyzePosition(ctx context.Context, fen string, depth int) (analysisdomain.PositionAnalysis, error) {
	lines, err := e.MultiPV(ctx, fen, 1, depth)
	if err != nil {
		return analysisdomain.PositionAnalysis{}, err
	}
	return lines[0], nil
}

// BestMove returns the engine's preferred move for a position in UCI form.
func (e *EngineRepository) BestMove(ctx context.Context, fen string, depth int) (string, error) {
	pa, err := e.AnalyzePosition(ctx, fen, depth)
	if err != nil {
		return "", err
	}
	return pa.BestMove, nil
}

// MultiPV returns up to numLines principal variations for a position, best
// line first, all scores from White's point of view.
func (e *EngineRepository) MultiPV(ctx context.Context, fen string, numLines, depth int) ([]analysisdomain.PositionAnalysis, error) {
	if numLines < 1 {
		numLines = 1
	}
	whiteToMove, err := sideToMove(fen)
	if err != nil {
		return nil, err
	}

	proc, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer e.release(proc)

	res, err := proc.search(fen, depth, numLines, e.searchTimeout)
	if err != nil {
		return nil, err
	}

	out := make([]analysisdomain.PositionAnalysis, 0, len(res.lines))
	for _, line := range res.lines {
		eval, isMate, mateIn := scoreWhitePOV(line, whiteToMove)
		best := ""
		if len(line.pv) > 0 {
			best = line.pv[0]
		}
		out = append(out, analysisdomain.PositionAnalysis{
			FEN:        fen,
			Evaluation: eval,
			BestMove:   best,
			Depth:      line.depth,
			PV:         line.pv,
			IsMate:     isMate,
			MateIn:     mateIn,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: engine returned no lines", errors.ErrEngineTimeout)
	}
	return out, nil
}

// EvaluateMove evaluates the position before and after a played move and
// derives the mover's centipawn loss. Both evaluations in the returned
// struct are from White's point of view; the loss is computed in the
// mover's own perspective and floored at zero.
func (e *EngineRepository) EvaluateMove(ctx context.Context, fen, uciMove string, depth int) (analysisdomain.MoveEvaluation, error) {
	fenFn, err := chess.FEN(fen)
	if err != nil {
		return analysisdomain.MoveEvaluation{}, fmt.Errorf("%w: %v", errors.ErrInvalidPosition, err)
	}
	game := chess.NewGame(fenFn)
	whiteToMove := game.Position().Turn() == chess.White

	move, err := chess.UCINotation{}.Decode(game.Position(), uciMove)
	if err != nil {
		return analysisdomain.MoveEvaluation{}, fmt.Errorf("%w: move %s: %v", errors.ErrInvalidPosition, uciMove, err)
	}
	if err := game.Move(move); err != nil {
		return analysisdomain.MoveEvaluation{}, fmt.Errorf("%w: illegal move %s: %v", errors.ErrInvalidPosition, uciMove, err)
	}
	afterFEN := game.Position().String()

	before, err := e.AnalyzePosition(ctx, fen, depth)
	if err != nil {
		return analysisdomain.MoveEvaluation{}, err
	}
	after, err := e.AnalyzePosition(ctx, afterFEN, depth)
	if err != nil {
		return analysisdomain.MoveEvaluation{}, err
	}

	loss := moverLoss(before.Evaluation, after.Evaluation, whiteToMove)

	return analysisdomain.MoveEvaluation{
		UCI:                uciMove,
		EvaluationBefore:   before.Evaluation,
		EvaluationAfter:    after.Evaluation,
		CentipawnLoss:      loss,
		Classification:     analysisdomain.Classify(loss),
		BestMove:           before.BestMove,
		BestMoveEvaluation: before.Evaluation,
	}, nil
}

// moverLoss is the drop in the moving side's advantage between the position
// it moved from and the position it produced, with both inputs already in
// White's point of view.
func moverLoss(evalBefore, evalAfter float64, whiteMoved bool) float64 {
	var loss float64
	if whiteMoved {
		loss = evalBefore - evalAfter
	} else {
		loss = evalAfter - evalBefore
	}
	if loss < 0 {
		return 0
	}
	return loss
}

func sideToMove(fen string) (bool, error) {
	fenFn, err := chess.FEN(fen)
	if err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrInvalidPosition, err)
	}
	game := chess.NewGame(fenFn)
	return game.Position().Turn() == chess.White, nil
}

// scoreWhitePOV converts an engine score, which is relative to the side to
// move, into White's point of view. Mates collapse to the ±10000 sentinel
// with MateIn keeping the signed distance.
func scoreWhitePOV(line infoLine, whiteToMove bool) (eval float64, isMate bool, mateIn int) {
	if line.isMate {
		m := line.mate
		if !whiteToMove {
			m = -m
		}
		if m > 0 {
			return mateScore, true, m
		}
		return -mateScore, true, m
	}
	cp := float64(line.cp)
	if !whiteToMove {
		cp = -cp
	}
	return cp, false, 0
}

// uciProcess wraps one engine subprocess: commands go to stdin, a reader
// goroutine feeds stdout lines into a channel. A process must never be used
// by two searches at once; the pool enforces that.
type uciProcess struct {
	cmd     *exec.Cmd
	stdin   *bufio.Writer
	lines   chan string
	log     *zap.SugaredLogger
	multipv int
	broken  bool
}

func startUCIProcess(path string, log *zap.SugaredLogger) (*uciProcess, error) {
	cmd := exec.Command(path)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	proc := &uciProcess{
		cmd:     cmd,
		stdin:   bufio.NewWriter(stdinPipe),
		lines:   make(chan string, 256),
		log:     log,
		multipv: 1,
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	go func() {
		scanner := bufio.NewScanner(stdoutPipe)
		for scanner.Scan() {
			proc.lines <- scanner.Text()
		}
		close(proc.lines)
	}()

	if err := proc.handshake(); err != nil {
		proc.kill()
		return nil, err
	}
	return proc, nil
}

func (p *uciProcess) handshake() error {
	if err := p.send("uci"); err != nil {
		return err
	}
	if err := p.waitFor("uciok", handshakeTimeout); err != nil {
		return err
	}
	_ = p.send("setoption name Ponder value false")
	if err := p.send("isready"); err != nil {
		return err
	}
	return p.waitFor("readyok", handshakeTimeout)
}

func (p *uciProcess) send(cmd string) error {
	if _, err := fmt.Fprintln(p.stdin, cmd); err != nil {
		return err
	}
	return p.stdin.Flush()
}

func (p *uciProcess) waitFor(token string, timeout time.Duration) error {
	deadline := time.After(timeout)
	for {
		select {
		case line, ok := <-p.lines:
			if !ok {
				return fmt.Errorf("%w: engine exited", errors.ErrEngineUnavailable)
			}
			if strings.HasPrefix(line, token) {
				return nil
			}
		case <-deadline:
			return fmt.Errorf("%w: waiting for %q", errors.ErrEngineTimeout, token)
		}
	}
}

type infoLine struct {
	depth   int
	multipv int
	cp      int
	mate    int
	isMate  bool
	pv      []string
}

type searchResult struct {
	bestMove string
	lines    []infoLine
}

// search loads a position and runs a fixed-depth search, collecting the
// deepest info line per PV index until the engine announces its best move.
func (p *uciProcess) search(fen string, depth, numLines int, timeout time.Duration) (searchResult, error) {
	if numLines != p.multipv {
		if err := p.send(fmt.Sprintf("setoption name MultiPV value %d", numLines)); err != nil {
			p.broken = true
			return searchResult{}, fmt.Errorf("%w: %v", errors.ErrEngineUnavailable, err)
		}
		p.multipv = numLines
	}
	if err := p.send("position fen " + fen); err != nil {
		p.broken = true
		return searchResult{}, fmt.Errorf("%w: %v", errors.ErrEngineUnavailable, err)
	}
	if err := p.send(fmt.Sprintf("go depth %d", depth)); err != nil {
		p.broken = true
		return searchResult{}, fmt.Errorf("%w: %v", errors.ErrEngineUnavailable, err)
	}

	best := make([]infoLine, numLines)
	deadline := time.After(timeout)
	for {
		select {
		case line, ok := <-p.lines:
			if !ok {
				p.broken = true
				return searchResult{}, fmt.Errorf("%w: engine exited mid-search", errors.ErrEngineUnavailable)
			}
			if info, ok := parseInfoLine(line); ok {
				idx := info.multipv - 1
				if idx >= 0 && idx < numLines && info.depth >= best[idx].depth {
					best[idx] = info
				}
				continue
			}
			if strings.HasPrefix(line, "bestmove") {
				fields := strings.Fields(line)
				res := searchResult{lines: collectLines(best)}
				if len(fields) >= 2 && fields[1] != "(none)" {
					res.bestMove = fields[1]
				}
				return res, nil
			}
		case <-deadline:
			// Ask the engine to stop; if it stays silent the process is no
			// longer trustworthy and gets replaced by the pool.
			_ = p.send("stop")
			if err := p.waitFor("bestmove", 2*time.Second); err != nil {
				p.broken = true
			}
			return searchResult{}, fmt.Errorf("%w: depth %d search exceeded %s", errors.ErrEngineTimeout, depth, timeout)
		}
	}
}

func collectLines(best []infoLine) []infoLine {
	out := make([]infoLine, 0, len(best))
	for _, line := range best {
		if line.depth > 0 {
			out = append(out, line)
		}
	}
	return out
}

// parseInfoLine extracts depth, multipv, score and pv from a UCI "info"
// line. Lines without a score (e.g. currmove reports) are skipped.
func parseInfoLine(line string) (infoLine, bool) {
	if !strings.HasPrefix(line, "info ") {
		return infoLine{}, false
	}
	fields := strings.Fields(line)
	info := infoLine{multipv: 1}
	hasScore := false
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				info.depth, _ = strconv.Atoi(fields[i+1])
				i++
			}
		case "multipv":
			if i+1 < len(fields) {
				info.multipv, _ = strconv.Atoi(fields[i+1])
				i++
			}
		case "score":
			if i+2 < len(fields) {
				switch fields[i+1] {
				case "cp":
					info.cp, _ = strconv.Atoi(fields[i+2])
					hasScore = true
				case "mate":
					info.mate, _ = strconv.Atoi(fields[i+2])
					info.isMate = true
					hasScore = true
				}
				i += 2
			}
		case "pv":
			info.pv = append([]string{}, fields[i+1:]...)
			i = len(fields)
		}
	}
	if !hasScore {
		return infoLine{}, false
	}
	return info, true
}

func (p *uciProcess) quit() {
	_ = p.send("quit")
	done := make(chan struct{})
	go func() {
		_ = p.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		p.kill()
	}
}

func (p *uciProcess) kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

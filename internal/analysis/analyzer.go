package analysis

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	apperrors "github.com/vytor/chesscoach/internal/errors"
	"github.com/vytor/chesscoach/internal/eval"
	"github.com/vytor/chesscoach/internal/logger"
	"github.com/vytor/chesscoach/internal/models"
	"github.com/vytor/chesscoach/internal/pgn"
)

// FormatVersion is stored on every GameAnalysis.
const FormatVersion = 1

const (
	QuickDepth   = 15
	DeepDepth    = 20
	DefaultLines = 3
)

// Progress is reported after each analyzed move.
type Progress struct {
	Current int
	Total   int
	Phase   models.Phase
}

type Options struct {
	// Depth overrides the quick/deep default when positive.
	Depth int
	Deep  bool
	// Lines is the number of ranked alternatives requested (MultiPV).
	Lines int
	// CallTimeout bounds every evaluator call; zero means no extra bound.
	CallTimeout time.Duration
	OnProgress  func(Progress)
}

func (o Options) depth() int {
	switch {
	case o.Depth > 0:
		return o.Depth
	case o.Deep:
		return DeepDepth
	default:
		return QuickDepth
	}
}

func (o Options) lines() int {
	if o.Lines > 0 {
		return o.Lines
	}
	return DefaultLines
}

// Analyzer runs the per-move pipeline against one evaluator session.
// It is not safe for concurrent use because the evaluator is stateful.
type Analyzer struct {
	ev         eval.Evaluator
	thresholds Thresholds
	now        func() time.Time
}

type AnalyzerOption func(*Analyzer)

func WithThresholds(t Thresholds) AnalyzerOption {
	return func(a *Analyzer) { a.thresholds = t }
}

// WithClock sets the source of AnalyzedAt timestamps.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) { a.now = now }
}

func NewAnalyzer(ev eval.Evaluator, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		ev:         ev,
		thresholds: DefaultThresholds(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeGame evaluates every move of record and derives the full
// GameAnalysis. Any evaluator failure or cancellation aborts the whole run.
func (a *Analyzer) AnalyzeGame(ctx context.Context, record models.GameRecord, opts Options) (*models.GameAnalysis, error) {
	log := logger.FromContext(ctx).WithPrefix("analysis").WithFields(map[string]any{
		"game_id": record.ID,
		"moves":   len(record.Moves),
	})

	if err := ValidateRecord(record); err != nil {
		log.Warn("rejecting game record: %v", err)
		return nil, err
	}

	limits := eval.SearchLimits{Depth: opts.depth(), Lines: opts.lines()}
	log.Debug("analyzing at depth %d with %d lines", limits.Depth, limits.Lines)
	start := time.Now()

	moves, err := a.fold(ctx, record, limits, opts)
	if err != nil {
		log.Error("analysis failed: %v", err)
		return nil, err
	}

	side := record.PlayerSide
	phases := SegmentPhases(moves, side, a.thresholds)
	result := &models.GameAnalysis{
		GameID:                record.ID,
		Version:               FormatVersion,
		AnalyzedAt:            a.now().UTC(),
		Engine:                a.ev.Identity(),
		Depth:                 limits.Depth,
		PlayerSide:            side,
		Summary:               Summarize(moves, side, phases),
		Moves:                 moves,
		CriticalMoments:       DetectCriticalMoments(moves, side, a.thresholds),
		TacticalOpportunities: DetectTacticalOpportunities(moves, side, a.thresholds),
		Phases:                phases,
	}

	log.Info("analysis completed in %v: accuracy=%.1f acpl=%.1f blunders=%d mistakes=%d inaccuracies=%d",
		time.Since(start), result.Summary.Accuracy, result.Summary.AvgCentipawnLoss,
		result.Summary.Blunders, result.Summary.Mistakes, result.Summary.Inaccuracies)
	return result, nil
}

// threadState is the accumulator carried from one move to the next.
type threadState struct {
	fen   string
	score eval.Absolute // evaluation of fen, White's frame
	known bool          // false until the first search has run
}

// fold walks the moves in order, threading each move's evaluation-after
// into the next move's evaluation-before.
func (a *Analyzer) fold(ctx context.Context, record models.GameRecord, limits eval.SearchLimits, opts Options) ([]models.AnalyzedMove, error) {
	state := threadState{fen: initialFEN(record)}
	out := make([]models.AnalyzedMove, 0, len(record.Moves))
	total := len(record.Moves)

	for i, mv := range record.Moves {
		analyzed, next, err := a.step(ctx, state, mv, limits, opts.CallTimeout)
		if err != nil {
			return nil, fmt.Errorf("move %d %s (%s): %w", mv.Number, mv.Side, mv.SAN, err)
		}
		out = append(out, analyzed)
		state = next

		if opts.OnProgress != nil {
			opts.OnProgress(Progress{Current: i + 1, Total: total, Phase: a.phaseOf(mv.Number)})
		}
	}
	return out, nil
}

// step analyzes a single move given the state before it.
func (a *Analyzer) step(ctx context.Context, state threadState, mv models.RecordedMove, limits eval.SearchLimits, timeout time.Duration) (models.AnalyzedMove, threadState, error) {
	log := logger.FromContext(ctx).WithPrefix("analysis")

	ranked, err := a.search(ctx, state.fen, nil, limits, timeout)
	if err != nil {
		return models.AnalyzedMove{}, state, err
	}
	best := ranked[0]
	if best.Move == "" {
		return models.AnalyzedMove{}, state, apperrors.NewEvaluatorUnavailableError(
			fmt.Errorf("no legal move reported for %s", state.fen))
	}

	before := state.score
	if !state.known {
		before = best.Score.Absolute(mv.Side)
	}

	// Scores below are Relative to the mover.
	var played eval.Relative
	loss := 0
	switch idx := eval.IndexOf(ranked, mv.UCI); {
	case idx == 0:
		played = best.Score
	case idx > 0:
		played = ranked[idx].Score
		loss = absInt(int(best.Score - played))
	default:
		reply, err := a.search(ctx, state.fen, []string{mv.UCI}, eval.SearchLimits{Depth: limits.Depth, MoveTime: limits.MoveTime, Lines: 1}, timeout)
		if err != nil {
			return models.AnalyzedMove{}, state, err
		}
		played = -reply[0].Score
		loss = max(int(best.Score-played), 0)
	}
	after := played.Absolute(mv.Side)

	quality, accuracy := a.thresholds.Classify(loss)
	analyzed := models.AnalyzedMove{
		Number:        mv.Number,
		Side:          mv.Side,
		SAN:           mv.SAN,
		UCI:           mv.UCI,
		FENBefore:     state.fen,
		EvalBefore:    before.For(mv.Side),
		EvalAfter:     after.For(mv.Side),
		CentipawnLoss: loss,
		Quality:       quality,
		Accuracy:      accuracy,
		BestMove:      best.Move,
		BestMoveSAN:   sanOrUCI(state.fen, best.Move),
		Alternatives:  alternatives(state.fen, ranked),
		ThinkTime:     mv.ThinkTime,
		PlayedAt:      mv.PlayedAt,
	}

	log.Debug("move %d %s %s: before=%d after=%d loss=%d quality=%s best=%s",
		mv.Number, mv.Side, mv.SAN, analyzed.EvalBefore, analyzed.EvalAfter, loss, quality, analyzed.BestMoveSAN)

	return analyzed, threadState{fen: mv.FEN, score: after, known: true}, nil
}

// search sets the position and runs one bounded query.
func (a *Analyzer) search(ctx context.Context, fen string, moves []string, limits eval.SearchLimits, timeout time.Duration) ([]eval.RankedMove, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := a.ev.SetPosition(callCtx, fen, moves); err != nil {
		return nil, evaluatorError(ctx, err)
	}
	ranked, err := a.ev.RankedMoves(callCtx, limits)
	if err != nil {
		return nil, evaluatorError(ctx, err)
	}
	if len(ranked) == 0 {
		return nil, apperrors.NewEvaluatorUnavailableError(fmt.Errorf("no lines returned for %s", fen))
	}
	return ranked, nil
}

// evaluatorError normalizes evaluator failures into the error taxonomy.
// Cancellation of the caller's context is returned unchanged.
func evaluatorError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if apperrors.HasCode(err, apperrors.ErrCodeEvaluatorTimeout) || apperrors.HasCode(err, apperrors.ErrCodeEvaluatorUnavailable) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewEvaluatorTimeoutError(err)
	}
	return apperrors.NewEvaluatorUnavailableError(err)
}

func alternatives(fen string, ranked []eval.RankedMove) []models.Alternative {
	n := min(len(ranked), DefaultLines)
	out := make([]models.Alternative, 0, n)
	for _, rm := range ranked[:n] {
		if rm.Move == "" {
			continue
		}
		out = append(out, models.Alternative{
			Move:  rm.Move,
			SAN:   sanOrUCI(fen, rm.Move),
			Score: int(rm.Score),
			Line:  rm.Line,
		})
	}
	return out
}

func sanOrUCI(fen, uci string) string {
	san, err := pgn.UCIToSAN(fen, uci)
	if err != nil {
		return uci
	}
	return san
}

func (a *Analyzer) phaseOf(number int) models.Phase {
	return phaseOf(number, a.thresholds)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

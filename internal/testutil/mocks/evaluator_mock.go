package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/chesscoach/internal/eval"
)

// MockEvaluator is a mock implementation of eval.Evaluator
type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) SetPosition(ctx context.Context, fen string, moves []string) error {
	args := m.Called(ctx, fen, moves)
	return args.Error(0)
}

func (m *MockEvaluator) RankedMoves(ctx context.Context, limits eval.SearchLimits) ([]eval.RankedMove, error) {
	args := m.Called(ctx, limits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]eval.RankedMove), args.Error(1)
}

func (m *MockEvaluator) Identity() string {
	args := m.Called()
	return args.String(0)
}

// ScriptedEvaluator answers RankedMoves from a fixed table keyed by
// PositionKey(fen, moves). It is deterministic and records every query.
type ScriptedEvaluator struct {
	Name  string
	Lines map[string][]eval.RankedMove
	// Default answers positions missing from Lines when non-empty.
	Default []eval.RankedMove

	// FailOnCall makes the n-th RankedMoves call (1-based) return Err.
	FailOnCall int
	Err        error
	// Block makes RankedMoves wait for ctx to be done.
	Block bool

	mu      sync.Mutex
	current string
	queries []string
	limits  []eval.SearchLimits
}

// PositionKey joins a FEN and the moves played from it.
func PositionKey(fen string, moves []string) string {
	if len(moves) == 0 {
		return fen
	}
	return fen + " moves " + strings.Join(moves, " ")
}

func (s *ScriptedEvaluator) SetPosition(ctx context.Context, fen string, moves []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = PositionKey(fen, moves)
	return nil
}

func (s *ScriptedEvaluator) RankedMoves(ctx context.Context, limits eval.SearchLimits) ([]eval.RankedMove, error) {
	s.mu.Lock()
	s.queries = append(s.queries, s.current)
	s.limits = append(s.limits, limits)
	n := len(s.queries)
	key := s.current
	s.mu.Unlock()

	if s.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.FailOnCall > 0 && n == s.FailOnCall {
		return nil, s.Err
	}
	lines, ok := s.Lines[key]
	if !ok && len(s.Default) > 0 {
		lines, ok = s.Default, true
	}
	if !ok {
		return nil, fmt.Errorf("no scripted lines for %q", key)
	}
	if limits.Lines > 0 && len(lines) > limits.Lines {
		lines = lines[:limits.Lines]
	}
	return append([]eval.RankedMove(nil), lines...), nil
}

func (s *ScriptedEvaluator) Identity() string {
	if s.Name == "" {
		return "scripted"
	}
	return s.Name
}

// Queries returns the position keys searched so far, in order.
func (s *ScriptedEvaluator) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// Limits returns the search limits of every query, in order.
func (s *ScriptedEvaluator) Limits() []eval.SearchLimits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]eval.SearchLimits(nil), s.limits...)
}

// EvaluatorPool hands out one evaluator per Session call. Evaluators are
// used in order; the last one is reused when the list runs out.
type EvaluatorPool struct {
	Evaluators []eval.Evaluator
	Err        error

	mu       sync.Mutex
	acquired int
	released int
}

func (p *EvaluatorPool) Session(ctx context.Context) (eval.Evaluator, func(), error) {
	if p.Err != nil {
		return nil, nil, p.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ev := p.Evaluators[min(p.acquired, len(p.Evaluators)-1)]
	p.acquired++
	return ev, func() {
		p.mu.Lock()
		p.released++
		p.mu.Unlock()
	}, nil
}

// Counts returns how many sessions were acquired and released.
func (p *EvaluatorPool) Counts() (acquired, released int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired, p.released
}

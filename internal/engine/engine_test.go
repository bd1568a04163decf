package engine_test

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chesscoach/internal/engine"
	apperrors "github.com/vytor/chesscoach/internal/errors"
	"github.com/vytor/chesscoach/internal/eval"
)

// fakeUCI is an in-process engine speaking just enough UCI for the tests.
type fakeUCI struct {
	out     *io.PipeWriter
	respond func(f *fakeUCI, cmd string) []string

	mu       sync.Mutex
	received []string
}

func (f *fakeUCI) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}

// crash closes the engine's output as if the process died.
func (f *fakeUCI) crash() {
	_ = f.out.Close()
}

func handshake(_ *fakeUCI, cmd string) []string {
	switch cmd {
	case "uci":
		return []string{"id name Fakefish 1", "id author tests", "option name MultiPV type spin default 1 min 1 max 500", "uciok"}
	case "isready":
		return []string{"readyok"}
	}
	return nil
}

func searching(lines ...string) func(*fakeUCI, string) []string {
	return func(f *fakeUCI, cmd string) []string {
		if strings.HasPrefix(cmd, "go") {
			return lines
		}
		return handshake(f, cmd)
	}
}

func startFake(t *testing.T, respond func(*fakeUCI, string) []string) (*engine.Engine, *fakeUCI, error) {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	f := &fakeUCI{out: outW, respond: respond}

	go func() {
		scanner := bufio.NewScanner(inR)
		for scanner.Scan() {
			cmd := scanner.Text()
			f.mu.Lock()
			f.received = append(f.received, cmd)
			f.mu.Unlock()
			if cmd == "quit" {
				_ = outW.Close()
				return
			}
			for _, line := range f.respond(f, cmd) {
				if _, err := io.WriteString(outW, line+"\n"); err != nil {
					return
				}
			}
		}
	}()
	t.Cleanup(func() {
		_ = inR.Close()
		_ = outW.Close()
	})

	e, err := engine.New(context.Background(), outR, inW)
	return e, f, err
}

func TestNew_Handshake(t *testing.T) {
	e, f, err := startFake(t, handshake)
	require.NoError(t, err)

	assert.Equal(t, "Fakefish 1", e.Identity())
	assert.Equal(t, []string{"uci", "isready"}, f.commands())
	assert.False(t, e.Broken())
}

func TestNew_HandshakeFailure(t *testing.T) {
	_, _, err := startFake(t, func(f *fakeUCI, cmd string) []string {
		f.crash()
		return nil
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEvaluatorUnavailable))
}

func TestRankedMoves_MultiPV(t *testing.T) {
	e, f, err := startFake(t, searching(
		"info string NNUE evaluation enabled",
		"info depth 11 seldepth 14 multipv 1 score cp 20 nodes 1000 pv d2d4 d7d5",
		"info depth 12 seldepth 15 multipv 1 score cp 34 nodes 2000 pv e2e4 e7e5 g1f3",
		"info depth 12 seldepth 15 multipv 3 score cp 18 nodes 2000 pv g1f3 d7d5",
		"info depth 12 seldepth 15 multipv 2 score cp 25 nodes 2000 pv d2d4 g8f6",
		"info depth 12 currmove e2e4 currmovenumber 1",
		"bestmove e2e4 ponder e7e5",
	))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, e.SetPosition(ctx, "startfen w - - 0 1", []string{"e2e4", "e7e5"}))
	ranked, err := e.RankedMoves(ctx, eval.SearchLimits{Depth: 12, Lines: 3})
	require.NoError(t, err)

	require.Len(t, ranked, 3)
	assert.Equal(t, eval.RankedMove{Move: "e2e4", Score: 34, Line: []string{"e2e4", "e7e5", "g1f3"}, Depth: 12}, ranked[0])
	assert.Equal(t, "d2d4", ranked[1].Move)
	assert.Equal(t, eval.Relative(25), ranked[1].Score)
	assert.Equal(t, "g1f3", ranked[2].Move)

	cmds := f.commands()
	assert.Contains(t, cmds, "position fen startfen w - - 0 1 moves e2e4 e7e5")
	assert.Contains(t, cmds, "setoption name MultiPV value 3")
	assert.Equal(t, "go depth 12", cmds[len(cmds)-1])
}

func TestRankedMoves_MultiPVSetOnlyOnChange(t *testing.T) {
	e, f, err := startFake(t, searching("info depth 5 multipv 1 score cp 5 pv e2e4", "bestmove e2e4"))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := e.RankedMoves(ctx, eval.SearchLimits{Depth: 5, Lines: 1})
		require.NoError(t, err)
	}
	for _, c := range f.commands() {
		assert.NotContains(t, c, "setoption")
	}
}

func TestRankedMoves_MateScores(t *testing.T) {
	e, _, err := startFake(t, searching(
		"info depth 20 multipv 1 score mate 2 pv d1h5 g7g6 h5f7",
		"info depth 20 multipv 2 score mate -3 pv a2a3",
		"bestmove d1h5",
	))
	require.NoError(t, err)

	ranked, err := e.RankedMoves(context.Background(), eval.SearchLimits{Depth: 20, Lines: 2})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, eval.MateIn(2), ranked[0].Score)
	assert.Equal(t, 2, ranked[0].Score.MateMoves())
	assert.Equal(t, eval.MateIn(-3), ranked[1].Score)
	assert.True(t, ranked[1].Score.IsMate())
}

func TestRankedMoves_IgnoresBoundScores(t *testing.T) {
	e, _, err := startFake(t, searching(
		"info depth 9 multipv 1 score cp 40 pv e2e4",
		"info depth 10 multipv 1 score cp 90 lowerbound pv d2d4",
		"bestmove e2e4",
	))
	require.NoError(t, err)

	ranked, err := e.RankedMoves(context.Background(), eval.SearchLimits{Depth: 10, Lines: 1})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "e2e4", ranked[0].Move)
	assert.Equal(t, eval.Relative(40), ranked[0].Score)
}

func TestRankedMoves_TerminalPosition(t *testing.T) {
	e, _, err := startFake(t, searching("info depth 0 score mate 0", "bestmove (none)"))
	require.NoError(t, err)

	ranked, err := e.RankedMoves(context.Background(), eval.SearchLimits{Depth: 10, Lines: 3})
	require.NoError(t, err)
	assert.Equal(t, []eval.RankedMove{{Score: -eval.MateScore}}, ranked)
}

func TestRankedMoves_Stalemate(t *testing.T) {
	e, _, err := startFake(t, searching("info depth 0 score cp 0", "bestmove (none)"))
	require.NoError(t, err)

	ranked, err := e.RankedMoves(context.Background(), eval.SearchLimits{Depth: 10, Lines: 1})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Empty(t, ranked[0].Move)
	assert.Zero(t, ranked[0].Score)
}

func TestRankedMoves_MoveTime(t *testing.T) {
	e, f, err := startFake(t, searching("info depth 8 score cp 1 pv a2a3", "bestmove a2a3"))
	require.NoError(t, err)

	_, err = e.RankedMoves(context.Background(), eval.SearchLimits{MoveTime: 250 * time.Millisecond, Lines: 1})
	require.NoError(t, err)
	cmds := f.commands()
	assert.Equal(t, "go movetime 250", cmds[len(cmds)-1])
}

func TestRankedMoves_Timeout(t *testing.T) {
	e, f, err := startFake(t, func(f *fakeUCI, cmd string) []string {
		if cmd == "stop" {
			return []string{"info depth 30 multipv 1 score cp 12 pv e2e4", "bestmove e2e4"}
		}
		return handshake(f, cmd)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	ranked, err := e.RankedMoves(ctx, eval.SearchLimits{Depth: 99, Lines: 1})

	assert.Nil(t, ranked)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEvaluatorTimeout))
	assert.Contains(t, f.commands(), "stop")
	assert.False(t, e.Broken(), "a stopped search leaves the session usable")
}

func TestRankedMoves_Cancelled(t *testing.T) {
	e, _, err := startFake(t, func(f *fakeUCI, cmd string) []string {
		if cmd == "stop" {
			return []string{"bestmove e2e4"}
		}
		return handshake(f, cmd)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	_, err = e.RankedMoves(ctx, eval.SearchLimits{Depth: 99, Lines: 1})

	assert.ErrorIs(t, err, context.Canceled)
	_, isApp := apperrors.As(err)
	assert.False(t, isApp)
}

func TestRankedMoves_EngineCrash(t *testing.T) {
	e, _, err := startFake(t, func(f *fakeUCI, cmd string) []string {
		if strings.HasPrefix(cmd, "go") {
			f.crash()
			return nil
		}
		return handshake(f, cmd)
	})
	require.NoError(t, err)

	_, err = e.RankedMoves(context.Background(), eval.SearchLimits{Depth: 10, Lines: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEvaluatorUnavailable))
	assert.True(t, e.Broken())

	_, err = e.RankedMoves(context.Background(), eval.SearchLimits{Depth: 10, Lines: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEvaluatorUnavailable))
}

func TestClose(t *testing.T) {
	e, f, err := startFake(t, handshake)
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.Eventually(t, func() bool {
		cmds := f.commands()
		return len(cmds) > 0 && cmds[len(cmds)-1] == "quit"
	}, time.Second, 5*time.Millisecond)
	assert.True(t, e.Broken())
}

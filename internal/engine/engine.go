// Package engine drives a UCI chess engine (Stockfish) as an eval.Evaluator.
package engine

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/vytor/chesscoach/internal/errors"
	"github.com/vytor/chesscoach/internal/eval"
	"github.com/vytor/chesscoach/internal/logger"
)

const (
	HandshakeTimeout = 5 * time.Second
	// StopGrace bounds how long a stopped search may take to report bestmove.
	StopGrace    = 2 * time.Second
	DefaultDepth = 18
)

var (
	errClosed     = stderrors.New("engine output closed")
	errPoolClosed = stderrors.New("engine pool closed")
)

// Engine is one UCI engine session. It implements eval.Evaluator and is
// safe for use by one analysis at a time.
type Engine struct {
	log *logger.Logger

	mu      sync.Mutex
	name    string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	lines   <-chan string
	multiPV int
	broken  bool
}

// Start launches the engine binary at path and completes the UCI handshake.
func Start(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		path = "stockfish"
	}
	log := logger.FromContext(ctx).WithPrefix("engine")
	log.Info("starting engine: %s", path)

	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, apperrors.NewEvaluatorUnavailableError(fmt.Errorf("stdin pipe: %w", err))
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, apperrors.NewEvaluatorUnavailableError(fmt.Errorf("stdout pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		log.Error("failed to start engine: %v", err)
		return nil, apperrors.NewEvaluatorUnavailableError(fmt.Errorf("start %s: %w", path, err))
	}

	e, err := New(ctx, stdout, stdin)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	e.cmd = cmd
	if e.name == "" {
		e.name = path
	}
	return e, nil
}

// New runs the UCI handshake over an already connected engine.
func New(ctx context.Context, r io.Reader, w io.WriteCloser) (*Engine, error) {
	e := &Engine{
		log:     logger.FromContext(ctx).WithPrefix("engine"),
		stdin:   w,
		lines:   readLines(r),
		multiPV: 1,
	}

	hctx, cancel := context.WithTimeout(ctx, HandshakeTimeout)
	defer cancel()

	if err := e.send("uci"); err != nil {
		return nil, apperrors.NewEvaluatorUnavailableError(err)
	}
	err := e.readUntil(hctx, "uciok", func(line string) {
		if name, ok := strings.CutPrefix(line, "id name "); ok {
			e.name = strings.TrimSpace(name)
		}
	})
	if err == nil {
		err = e.ready(hctx)
	}
	if err != nil {
		e.log.Error("UCI handshake failed: %v", err)
		return nil, apperrors.NewEvaluatorUnavailableError(fmt.Errorf("uci handshake: %w", err))
	}

	e.log.Info("engine ready: %s", e.name)
	return e, nil
}

func readLines(r io.Reader) <-chan string {
	ch := make(chan string, 256)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			ch <- strings.TrimSpace(scanner.Text())
		}
	}()
	return ch
}

func (e *Engine) Identity() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Broken reports whether the session can no longer be trusted: the process
// died or a stopped search never completed.
func (e *Engine) Broken() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.broken
}

func (e *Engine) SetPosition(ctx context.Context, fen string, moves []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cmd := "position fen " + fen
	if len(moves) > 0 {
		cmd += " moves " + strings.Join(moves, " ")
	}
	if err := e.send(cmd); err != nil {
		return e.fail(err)
	}
	return nil
}

// RankedMoves searches the current position and returns up to limits.Lines
// candidates, best first. A position without legal moves yields a single
// move-less line carrying the terminal score.
func (e *Engine) RankedMoves(ctx context.Context, limits eval.SearchLimits) ([]eval.RankedMove, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.broken {
		return nil, apperrors.NewEvaluatorUnavailableError(stderrors.New("engine session is broken"))
	}

	lines := max(limits.Lines, 1)
	if lines != e.multiPV {
		if err := e.send(fmt.Sprintf("setoption name MultiPV value %d", lines)); err != nil {
			return nil, e.fail(err)
		}
		e.multiPV = lines
	}

	goCmd := fmt.Sprintf("go depth %d", DefaultDepth)
	switch {
	case limits.Depth > 0:
		goCmd = fmt.Sprintf("go depth %d", limits.Depth)
	case limits.MoveTime > 0:
		goCmd = fmt.Sprintf("go movetime %d", limits.MoveTime.Milliseconds())
	}

	log := e.log.WithFields(map[string]any{"depth": limits.Depth, "lines": lines})
	start := time.Now()
	if err := e.send(goCmd); err != nil {
		return nil, e.fail(err)
	}

	pvs := map[int]eval.RankedMove{}
	var terminal *eval.Relative
	var best string
	err := e.readUntil(ctx, "bestmove", func(line string) {
		switch {
		case strings.HasPrefix(line, "info "):
			info, ok := parseInfo(line)
			if !ok {
				return
			}
			if len(info.pv) == 0 {
				score := info.score
				terminal = &score
				return
			}
			pvs[info.multiPV] = eval.RankedMove{Move: info.pv[0], Score: info.score, Line: info.pv, Depth: info.depth}
		case strings.HasPrefix(line, "bestmove"):
			if f := strings.Fields(line); len(f) >= 2 {
				best = f[1]
			}
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("search interrupted: %v", ctx.Err())
			e.stop()
			if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, apperrors.NewEvaluatorTimeoutError(ctx.Err())
			}
			return nil, ctx.Err()
		}
		return nil, e.fail(err)
	}

	if best == "" || best == "(none)" {
		score := eval.Relative(0)
		if terminal != nil {
			score = *terminal
		}
		log.Debug("terminal position, score %s", score)
		return []eval.RankedMove{{Score: score}}, nil
	}

	ranked := make([]eval.RankedMove, 0, len(pvs))
	keys := make([]int, 0, len(pvs))
	for k := range pvs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		ranked = append(ranked, pvs[k])
	}
	if len(ranked) == 0 {
		ranked = append(ranked, eval.RankedMove{Move: best, Line: []string{best}})
	}
	if len(ranked) > lines {
		ranked = ranked[:lines]
	}

	log.Debug("search completed in %v: best=%s score=%s", time.Since(start), ranked[0].Move, ranked[0].Score)
	return ranked, nil
}

// Close quits the engine and waits for the process to exit.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil {
		return nil
	}
	e.log.Debug("closing engine")
	_ = e.send("quit")
	_ = e.stdin.Close()
	e.stdin = nil
	e.broken = true

	if e.cmd == nil {
		return nil
	}
	err := e.cmd.Wait()
	e.cmd = nil
	if err != nil {
		e.log.Debug("engine process exited: %v", err)
	}
	return err
}

// stop interrupts a running search and drains its output. If the engine
// does not answer within StopGrace the session is marked broken.
func (e *Engine) stop() {
	if err := e.send("stop"); err != nil {
		e.broken = true
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), StopGrace)
	defer cancel()
	if err := e.readUntil(ctx, "bestmove", nil); err != nil {
		e.log.Warn("engine did not stop cleanly: %v", err)
		e.broken = true
	}
}

func (e *Engine) ready(ctx context.Context) error {
	if err := e.send("isready"); err != nil {
		return err
	}
	return e.readUntil(ctx, "readyok", nil)
}

func (e *Engine) fail(err error) error {
	e.broken = true
	e.log.Error("engine failure: %v", err)
	return apperrors.NewEvaluatorUnavailableError(err)
}

func (e *Engine) send(cmd string) error {
	if e.stdin == nil {
		return errClosed
	}
	_, err := io.WriteString(e.stdin, cmd+"\n")
	return err
}

// readUntil consumes output lines, passing each to fn, until a line starts
// with marker. The marker line is passed to fn too.
func (e *Engine) readUntil(ctx context.Context, marker string, fn func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-e.lines:
			if !ok {
				return errClosed
			}
			if fn != nil {
				fn(line)
			}
			if strings.HasPrefix(line, marker) {
				return nil
			}
		}
	}
}

type info struct {
	depth   int
	multiPV int
	score   eval.Relative
	pv      []string
}

// parseInfo reads an "info" line carrying a score. Bound scores and lines
// without a score are skipped.
func parseInfo(line string) (info, bool) {
	parts := strings.Fields(line)
	in := info{multiPV: 1}
	scored := false
	for i := 1; i < len(parts); i++ {
		switch parts[i] {
		case "depth":
			if i+1 < len(parts) {
				in.depth, _ = strconv.Atoi(parts[i+1])
				i++
			}
		case "multipv":
			if i+1 < len(parts) {
				if n, err := strconv.Atoi(parts[i+1]); err == nil {
					in.multiPV = n
				}
				i++
			}
		case "score":
			if i+2 >= len(parts) {
				return info{}, false
			}
			v, err := strconv.Atoi(parts[i+2])
			if err != nil {
				return info{}, false
			}
			switch parts[i+1] {
			case "cp":
				in.score = eval.Relative(v)
			case "mate":
				in.score = eval.MateIn(v)
			default:
				return info{}, false
			}
			scored = true
			i += 2
		case "lowerbound", "upperbound":
			return info{}, false
		case "pv":
			in.pv = append([]string(nil), parts[i+1:]...)
			i = len(parts)
		}
	}
	return in, scored
}

// Package eval defines the position evaluator consumed by the analysis
// pipeline and the score types that cross the evaluator boundary.
package eval

import (
	"context"
	"fmt"
	"time"

	"github.com/vytor/chesscoach/internal/models"
)

const (
	// MateScore encodes "side to move is mated now". Mate in n is MateScore-n.
	MateScore = 100000
	// MateThreshold is the smallest magnitude treated as a forced mate.
	MateThreshold = 90000
)

// Relative is a centipawn score from the point of view of the side to move
// in the position it was computed for. Engines report Relative scores.
type Relative int

// Absolute is a centipawn score from White's point of view. It does not
// change meaning when a move is played.
type Absolute int

// MateIn returns the Relative score of a forced mate in n moves. Positive n
// means the side to move mates; negative n means it gets mated.
func MateIn(n int) Relative {
	switch {
	case n > 0:
		return Relative(MateScore - n)
	case n < 0:
		return Relative(-(MateScore + n))
	}
	return -MateScore
}

// IsMate reports whether r encodes a forced mate.
func (r Relative) IsMate() bool {
	return r >= MateThreshold || r <= -MateThreshold
}

// MateMoves returns the signed number of moves to mate, or 0.
func (r Relative) MateMoves() int {
	switch {
	case !r.IsMate():
		return 0
	case r > 0:
		return MateScore - int(r)
	default:
		return -(MateScore + int(r))
	}
}

// Absolute converts r to White's frame given whose turn it was.
func (r Relative) Absolute(turn models.Side) Absolute {
	if turn == models.Black {
		return Absolute(-r)
	}
	return Absolute(r)
}

func (r Relative) String() string {
	if r.IsMate() {
		return fmt.Sprintf("#%d", r.MateMoves())
	}
	return fmt.Sprintf("%+.2f", float64(r)/100)
}

// For returns the score in centipawns from side's point of view.
func (a Absolute) For(side models.Side) int {
	if side == models.Black {
		return -int(a)
	}
	return int(a)
}

// RankedMove is one candidate line. Move is empty when the position has no
// legal moves; Score then holds the terminal evaluation.
type RankedMove struct {
	Move  string   `json:"move"`
	Score Relative `json:"score"`
	Line  []string `json:"line,omitempty"`
	Depth int      `json:"depth"`
}

// SearchLimits bounds one search. Depth takes precedence over MoveTime.
type SearchLimits struct {
	Depth    int
	MoveTime time.Duration
	Lines    int
}

// Evaluator is a stateful search session: SetPosition selects the position,
// RankedMoves searches it and returns candidates best first.
type Evaluator interface {
	SetPosition(ctx context.Context, fen string, moves []string) error
	RankedMoves(ctx context.Context, limits SearchLimits) ([]RankedMove, error)
	Identity() string
}

// IndexOf returns the rank of move in ranked, or -1.
func IndexOf(ranked []RankedMove, move string) int {
	for i, rm := range ranked {
		if rm.Move == move {
			return i
		}
	}
	return -1
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// Side is one of the two players.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) Valid() bool {
	return s == White || s == Black
}

// ParseSide accepts "white"/"black" (and "w"/"b") in any case.
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return "", fmt.Errorf("invalid side %q", v)
}

// Result is the final outcome of a game in PGN notation.
type Result string

const (
	WhiteWins Result = "1-0"
	BlackWins Result = "0-1"
	Draw      Result = "1/2-1/2"
	Unknown   Result = "*"
)

// Winner returns the winning side, or "" for draws and unfinished games.
func (r Result) Winner() Side {
	switch r {
	case WhiteWins:
		return White
	case BlackWins:
		return Black
	}
	return ""
}

// WonBy reports whether side won the game.
func (r Result) WonBy(side Side) bool {
	return r.Winner() == side
}

// Outcome is a result seen from one side.
type Outcome string

const (
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
	OutcomeDraw    Outcome = "draw"
	OutcomeUnknown Outcome = "unknown"
)

// Outcome describes the result from side's point of view.
func (r Result) Outcome(side Side) Outcome {
	switch {
	case r == Draw:
		return OutcomeDraw
	case r.Winner() == "":
		return OutcomeUnknown
	case r.WonBy(side):
		return OutcomeWin
	default:
		return OutcomeLoss
	}
}

// RecordedMove is one half-move of a finished game.
type RecordedMove struct {
	Number    int           `json:"number"`
	Side      Side          `json:"side"`
	SAN       string        `json:"san"`
	UCI       string        `json:"uci"`
	FEN       string        `json:"fen"` // position after the move
	PlayedAt  time.Time     `json:"played_at,omitempty"`
	ThinkTime time.Duration `json:"think_time"`
}

// GameRecord is a finished game as handed over by the game-play layer.
type GameRecord struct {
	ID             int64          `json:"id"`
	InitialFEN     string         `json:"initial_fen"`
	PlayerSide     Side           `json:"player_side"`
	Opponent       string         `json:"opponent"`
	OpponentRating int            `json:"opponent_rating"`
	Result         Result         `json:"result"`
	Termination    string         `json:"termination"`
	Duration       time.Duration  `json:"duration"`
	PGN            string         `json:"pgn"`
	Moves          []RecordedMove `json:"moves"`
}

// LastPlayerMove returns the full-move number of the player's final move, 0 if none.
func (g GameRecord) LastPlayerMove() int {
	last := 0
	for _, m := range g.Moves {
		if m.Side == g.PlayerSide && m.Number > last {
			last = m.Number
		}
	}
	return last
}

// Analysis status values stored on a game.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Game is a stored game row.
type Game struct {
	ID             int64      `json:"id"`
	PlayerSide     Side       `json:"player_side"`
	Opponent       string     `json:"opponent"`
	OpponentRating int        `json:"opponent_rating"`
	Result         Result     `json:"result"`
	Termination    string     `json:"termination"`
	MoveCount      int        `json:"move_count"`
	AnalysisStatus string     `json:"analysis_status"`
	Record         GameRecord `json:"record"`
	CreatedAt      time.Time  `json:"created_at"`
}

type GameFilter struct {
	Result     Result
	PlayerSide Side
	Status     string
	Opponent   string
	Limit      int
	Offset     int
	OrderDir   string
}

package pgn

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/vytor/chesscoach/internal/models"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var headerRe = regexp.MustCompile(`\[(\w+)\s+"([^"]+)"\]`)

// ParsePGNHeaders extracts PGN header tags into a map
func ParsePGNHeaders(pgn string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(pgn, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") {
			continue
		}
		m := headerRe.FindStringSubmatch(line)
		if len(m) == 3 {
			out[m[1]] = m[2]
		}
	}
	return out
}

// ParseGameRecord converts a single-game PGN into a GameRecord seen from player's side.
func ParseGameRecord(pgnText string, player models.Side) (models.GameRecord, error) {
	if !player.Valid() {
		return models.GameRecord{}, fmt.Errorf("invalid player side %q", player)
	}
	opt, err := chess.PGN(strings.NewReader(pgnText))
	if err != nil {
		return models.GameRecord{}, fmt.Errorf("parse pgn: %w", err)
	}
	game := chess.NewGame(opt)
	positions := game.Positions()
	moves := game.Moves()
	if len(moves) == 0 {
		return models.GameRecord{}, fmt.Errorf("parse pgn: game has no moves")
	}
	if len(positions) != len(moves)+1 {
		return models.GameRecord{}, fmt.Errorf("parse pgn: got %d positions for %d moves", len(positions), len(moves))
	}

	headers := ParsePGNHeaders(pgnText)
	record := models.GameRecord{
		InitialFEN:  positions[0].String(),
		PlayerSide:  player,
		Result:      resultOf(game, headers),
		Termination: headers["Termination"],
		PGN:         pgnText,
		Moves:       make([]models.RecordedMove, 0, len(moves)),
	}
	if record.Termination == "" && game.Method() != chess.NoMethod {
		record.Termination = fmt.Sprint(game.Method())
	}
	opponentTag := "Black"
	if player == models.Black {
		opponentTag = "White"
	}
	record.Opponent = headers[opponentTag]
	record.OpponentRating, _ = strconv.Atoi(headers[opponentTag+"Elo"])

	side, number, err := SideToMove(record.InitialFEN)
	if err != nil {
		return models.GameRecord{}, err
	}
	increment := parseIncrement(headers["TimeControl"])
	clocks := map[models.Side]time.Duration{}
	start, timed := startTime(headers)

	for i, mv := range moves {
		before := positions[i]
		rm := models.RecordedMove{
			Number: number,
			Side:   side,
			SAN:    chess.AlgebraicNotation{}.Encode(before, mv),
			UCI:    chess.UCINotation{}.Encode(before, mv),
			FEN:    positions[i+1].String(),
		}
		if clk, ok := mv.GetCommand("clk"); ok {
			if remaining, err := parseClock(clk); err == nil {
				if prev, seen := clocks[side]; seen {
					rm.ThinkTime = max(prev-remaining+increment, 0)
				}
				clocks[side] = remaining
			}
		}
		record.Duration += rm.ThinkTime
		if timed {
			rm.PlayedAt = start.Add(record.Duration)
		}
		record.Moves = append(record.Moves, rm)

		if side == models.Black {
			number++
		}
		side = side.Opponent()
	}
	return record, nil
}

// SideToMove reads the active colour and full-move number from a FEN.
func SideToMove(fen string) (models.Side, int, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return "", 0, fmt.Errorf("invalid fen %q", fen)
	}
	var side models.Side
	switch fields[1] {
	case "w":
		side = models.White
	case "b":
		side = models.Black
	default:
		return "", 0, fmt.Errorf("invalid fen %q: bad active colour", fen)
	}
	number := 1
	if len(fields) >= 6 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return "", 0, fmt.Errorf("invalid fen %q: bad move number", fen)
		}
		number = n
	}
	return side, number, nil
}

// UCIToSAN renders a coordinate move in standard algebraic notation.
func UCIToSAN(fen, uci string) (string, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return "", err
	}
	game := chess.NewGame(opt)
	pos := game.Position()
	for _, m := range game.ValidMoves() {
		if (chess.UCINotation{}).Encode(pos, &m) == uci {
			return (chess.AlgebraicNotation{}).Encode(pos, &m), nil
		}
	}
	return "", fmt.Errorf("illegal move %s in %s", uci, fen)
}

func resultOf(game *chess.Game, headers map[string]string) models.Result {
	switch game.Outcome() {
	case chess.WhiteWon:
		return models.WhiteWins
	case chess.BlackWon:
		return models.BlackWins
	case chess.Draw:
		return models.Draw
	}
	switch r := models.Result(headers["Result"]); r {
	case models.WhiteWins, models.BlackWins, models.Draw:
		return r
	}
	return models.Unknown
}

// startTime reads the UTCDate and UTCTime tags. Moves are stamped at the
// start plus the think time spent so far by both sides.
func startTime(headers map[string]string) (time.Time, bool) {
	date, clock := headers["UTCDate"], headers["UTCTime"]
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006.01.02 15:04:05", date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseClock reads a %clk value such as "0:09:57.3".
func parseClock(v string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock %q", v)
	}
	var total float64
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("invalid clock %q", v)
		}
		total = total*60 + f
	}
	return time.Duration(total * float64(time.Second)), nil
}

// parseIncrement reads the increment of a TimeControl tag such as "600+5".
func parseIncrement(tc string) time.Duration {
	_, inc, ok := strings.Cut(tc, "+")
	if !ok {
		return 0
	}
	secs, err := strconv.ParseFloat(inc, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

package analysis

import (
	"fmt"

	apperrors "github.com/vytor/chesscoach/internal/errors"
	"github.com/vytor/chesscoach/internal/models"
	"github.com/vytor/chesscoach/internal/pgn"
)

// ValidateRecord checks the shape of a game record before any search is
// started: at least one move, alternating sides, contiguous full-move
// numbers from the initial position, and a resulting position plus
// coordinate move on every entry.
func ValidateRecord(record models.GameRecord) error {
	if len(record.Moves) == 0 {
		return apperrors.NewMalformedGameRecordError("game has no moves")
	}
	if !record.PlayerSide.Valid() {
		return apperrors.NewMalformedGameRecordError(fmt.Sprintf("invalid player side %q", record.PlayerSide))
	}

	side, number, err := pgn.SideToMove(initialFEN(record))
	if err != nil {
		return apperrors.NewMalformedGameRecordError(fmt.Sprintf("initial position: %v", err))
	}

	for i, m := range record.Moves {
		switch {
		case m.Side != side:
			return apperrors.NewMalformedGameRecordError(fmt.Sprintf("move %d: expected %s to move, got %q", i+1, side, m.Side))
		case m.Number != number:
			return apperrors.NewMalformedGameRecordError(fmt.Sprintf("move %d: expected move number %d, got %d", i+1, number, m.Number))
		case m.FEN == "":
			return apperrors.NewMalformedGameRecordError(fmt.Sprintf("move %d (%s): missing resulting position", i+1, m.SAN))
		case m.UCI == "":
			return apperrors.NewMalformedGameRecordError(fmt.Sprintf("move %d (%s): missing coordinate notation", i+1, m.SAN))
		}
		if side == models.Black {
			number++
		}
		side = side.Opponent()
	}
	return nil
}

func initialFEN(record models.GameRecord) string {
	if record.InitialFEN == "" {
		return pgn.StartFEN
	}
	return record.InitialFEN
}

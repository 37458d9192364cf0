package apperror

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned across a package boundary wraps one of these.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidMove  = errors.New("invalid move")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrGameNotFound   = fmt.Errorf("game %w", ErrNotFound)
	ErrPlayerNotFound = fmt.Errorf("player %w", ErrNotFound)
	ErrPieceNotFound  = fmt.Errorf("piece %w", ErrNotFound)

	ErrNotYourPiece = fmt.Errorf("%w: not your piece", ErrForbidden)

	ErrNotYourTurn      = fmt.Errorf("%w: it's not your turn", ErrInvalidMove)
	ErrGameFinished     = fmt.Errorf("%w: game is already finished", ErrInvalidMove)
	ErrPieceCovered     = fmt.Errorf("%w: piece is covered by another piece", ErrInvalidMove)
	ErrIllegalPlacement = fmt.Errorf("%w: piece can't be placed on that cell", ErrInvalidMove)

	ErrUnknownMode           = fmt.Errorf("%w: unknown game mode", ErrInvalidInput)
	ErrUnsupportedDifficulty = fmt.Errorf("%w: unsupported bot difficulty", ErrInvalidInput)
	ErrCellOutOfRange        = fmt.Errorf("%w: cell is out of range", ErrInvalidInput)
	ErrNotPvPGame            = fmt.Errorf("%w: game is not pvp", ErrInvalidInput)
	ErrGameFull              = fmt.Errorf("%w: game already has two players", ErrInvalidInput)

	ErrGameAlreadyExists = errors.New("game already exists")
	ErrNoAvailableMoves  = errors.New("no available moves")
)

package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
)

type Mode string

const (
	ModePvP Mode = "pvp"
	ModePvC Mode = "pvc"
)

func ParseMode(value string) (Mode, error) {
	switch mode := Mode(value); mode {
	case ModePvP, ModePvC:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrUnknownMode, value)
	}
}

// GameMeta is stored next to a game but is not part of the engine state.
type GameMeta struct {
	Mode       Mode       `json:"mode"`
	Difficulty string     `json:"difficulty,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`

	// Pieces is the registry of every piece allocated at creation.
	Pieces []Piece `json:"pieces"`
}

func (that *GameMeta) IsWithBot() bool {
	return that.Mode == ModePvC
}

// GameRecord is the unit of persistence.
type GameRecord struct {
	Game *Game    `json:"game"`
	Meta GameMeta `json:"meta"`
}

package bot

import (
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
	"github.com/rocketscienceinc/gobblet-backend/internal/entity"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func ParseDifficulty(value string) (Difficulty, error) {
	switch difficulty := Difficulty(value); difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return difficulty, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrUnsupportedDifficulty, value)
	}
}

// Strategy decides the next move for player. The game must be in progress
// with player to move.
type Strategy interface {
	DecideMove(game *entity.Game, player *entity.Player) (entity.Move, error)
}

type Options struct {
	// HardDepth is the search depth in plies, DefaultDepth when zero.
	HardDepth int
	// Rand drives the easy bot, the global source when nil.
	Rand *rand.Rand
}

// New picks the strategy for difficulty.
func New(difficulty Difficulty, opts Options) (Strategy, error) {
	switch difficulty {
	case DifficultyEasy:
		return NewEasy(opts.Rand), nil
	case DifficultyHard:
		return NewHard(WithDepth(opts.HardDepth)), nil
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnsupportedDifficulty, difficulty)
	}
}

package bot

import (
	"math/rand"

	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
	"github.com/rocketscienceinc/gobblet-backend/internal/entity"
)

// Easy plays a uniformly random legal placement from the reserve.
type Easy struct {
	intn func(n int) int
}

func NewEasy(rnd *rand.Rand) *Easy {
	if rnd == nil {
		return &Easy{intn: rand.Intn} //nolint: gosec // it's ok
	}

	return &Easy{intn: rnd.Intn}
}

func (that *Easy) DecideMove(game *entity.Game, player *entity.Player) (entity.Move, error) {
	moves := game.LegalPlacements(player)
	if len(moves) == 0 {
		return entity.Move{}, apperror.ErrNoAvailableMoves
	}

	return moves[that.intn(len(moves))], nil
}

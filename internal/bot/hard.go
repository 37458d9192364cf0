package bot

import (
	"math"
	"sort"

	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
	"github.com/rocketscienceinc/gobblet-backend/internal/entity"
)

// DefaultDepth keeps a full search on a 3x3 board well under a second.
const DefaultDepth = 4

// lineValues scores a line by how many of its cells a side can still own.
var lineValues = [entity.BoardSize + 1]float64{0, 1, 16, 256}

// Hard searches reserve placements with minimax and alpha-beta pruning.
type Hard struct {
	depth int
}

type HardOption func(*Hard)

// WithDepth sets the search depth in plies; values below 1 keep the default.
func WithDepth(depth int) HardOption {
	return func(that *Hard) {
		if depth > 0 {
			that.depth = depth
		}
	}
}

func NewHard(opts ...HardOption) *Hard {
	hard := &Hard{depth: DefaultDepth}
	for _, opt := range opts {
		opt(hard)
	}

	return hard
}

func (that *Hard) Depth() int {
	return that.depth
}

type SearchResult struct {
	Move  entity.Move
	Found bool
	Score float64
	Nodes int
}

func (that *Hard) DecideMove(game *entity.Game, player *entity.Player) (entity.Move, error) {
	result, err := that.Decide(game, player)
	return result.Move, err
}

// Decide is DecideMove with the search statistics attached. An immediate win
// is taken without searching.
func (that *Hard) Decide(game *entity.Game, player *entity.Player) (SearchResult, error) {
	legal := game.LegalPlacements(player)
	if len(legal) == 0 {
		return SearchResult{}, apperror.ErrNoAvailableMoves
	}

	if move, ok := winningMove(game, legal); ok {
		return SearchResult{Move: move, Found: true, Score: math.Inf(1)}, nil
	}

	result := that.Search(game, player)
	if !result.Found {
		result.Move = legal[0]
	}

	return result, nil
}

// Search runs the minimax from player's point of view. The live game is never
// mutated: every child position is a clone.
func (that *Hard) Search(game *entity.Game, player *entity.Player) SearchResult {
	opponent := game.OpponentOf(player.ID)
	s := &search{me: player.ID, opp: opponent.ID}

	score, best := s.minimax(game, that.depth, math.Inf(-1), math.Inf(1))

	result := SearchResult{Score: score, Nodes: s.nodes}
	if best != nil {
		result.Move = *best
		result.Found = true
	}

	return result
}

// winningMove finds a placement that completes a line right away.
func winningMove(game *entity.Game, moves []entity.Move) (entity.Move, bool) {
	for _, move := range moves {
		next := game.Clone()
		if ok, err := next.MakeMove(move); err == nil && ok && next.WinnerID == move.PlayerID {
			return move, true
		}
	}

	return entity.Move{}, false
}

type search struct {
	me    string
	opp   string
	nodes int
}

func (that *search) minimax(game *entity.Game, depth int, alpha, beta float64) (float64, *entity.Move) {
	that.nodes++

	switch {
	case game.Board.CheckWin(that.me):
		return math.Inf(1), nil
	case game.Board.CheckWin(that.opp):
		return math.Inf(-1), nil
	case game.Status == entity.StatusDraw:
		return 0, nil
	case depth == 0:
		return Evaluate(game, that.me), nil
	}

	current := game.CurrentPlayer()
	moves := OrderMoves(game.LegalPlacements(current))
	if len(moves) == 0 {
		return Evaluate(game, that.me), nil
	}

	maximizing := current.ID == that.me

	value := math.Inf(1)
	if maximizing {
		value = math.Inf(-1)
	}

	var best *entity.Move
	for i := range moves {
		next := game.Clone()
		if _, err := next.MakeMove(moves[i]); err != nil {
			continue
		}

		score, _ := that.minimax(next, depth-1, alpha, beta)

		if maximizing {
			if score > value {
				value = score
				best = &moves[i]
			}
			alpha = math.Max(alpha, value)
		} else {
			if score < value {
				value = score
				best = &moves[i]
			}
			beta = math.Min(beta, value)
		}

		if alpha >= beta {
			break
		}
	}

	return value, best
}

// OrderMoves sorts center first, then corners, then edges. The order only
// affects pruning, never the result of the search.
func OrderMoves(moves []entity.Move) []entity.Move {
	ordered := make([]entity.Move, len(moves))
	copy(ordered, moves)

	sort.SliceStable(ordered, func(i, j int) bool {
		return movePriority(ordered[i].To) > movePriority(ordered[j].To)
	})

	return ordered
}

func movePriority(pos entity.Position) int {
	last := entity.BoardSize - 1
	center := last / 2

	switch {
	case pos.Row == center && pos.Col == center:
		return 3
	case (pos.Row == 0 || pos.Row == last) && (pos.Col == 0 || pos.Col == last):
		return 2
	default:
		return 1
	}
}

// Evaluate is the static score of game for playerID: for every line, the
// value of what playerID can still reach minus what the opponent can.
func Evaluate(game *entity.Game, playerID string) float64 {
	me, opp := game.Player(playerID), game.OpponentOf(playerID)

	switch {
	case game.Board.CheckWin(me.ID):
		return 1_000_000
	case game.Board.CheckWin(opp.ID):
		return -1_000_000
	case game.Status == entity.StatusDraw:
		return 0
	}

	myMax, oppMax := me.MaxReserveSize(), opp.MaxReserveSize()

	var score float64
	for _, line := range entity.Lines {
		mine, theirs := lineReachability(game.Board, line, me.ID, myMax, oppMax)
		score += lineValues[mine] - lineValues[theirs]
	}

	return score
}

// lineReachability counts the cells of line each side could still end up
// owning. A side that can't cover a top piece of the other side in the line
// is blocked on the whole line.
func lineReachability(board *entity.Board, line [entity.BoardSize]entity.Position, me string, myMax, oppMax entity.Size) (int, int) {
	var mine, theirs int
	var myBlocked, oppBlocked bool

	for _, pos := range line {
		top, ok := board.Cell(pos).Top()
		if !ok {
			mine++
			theirs++
			continue
		}

		if top.Owner == me {
			mine++
			if top.Size >= oppMax {
				oppBlocked = true
			} else {
				theirs++
			}
		} else {
			theirs++
			if top.Size >= myMax {
				myBlocked = true
			} else {
				mine++
			}
		}
	}

	if myBlocked {
		mine = 0
	}
	if oppBlocked {
		theirs = 0
	}

	return mine, theirs
}

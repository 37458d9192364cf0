package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWin        Status = "win"
	StatusDraw       Status = "draw"
	StatusLose       Status = "lose"
)

// Rules toggles behaviour that is a product decision rather than game logic.
type Rules struct {
	// DiscardFailedPiece removes the piece from the mover's reserve even when
	// the board rejects the placement.
	DiscardFailedPiece bool `json:"discardFailedPiece"`
}

func DefaultRules() Rules {
	return Rules{DiscardFailedPiece: true}
}

type Game struct {
	ID              string     `json:"id"`
	Board           *Board     `json:"board"`
	Players         [2]*Player `json:"players"`
	CurrentPlayerID string     `json:"currentPlayer"`
	Status          Status     `json:"status"`
	WinnerID        string     `json:"winner,omitempty"`
	Moves           []Move     `json:"moves"`
	Rules           Rules      `json:"rules"`
}

// NewGame starts with an empty board and first to move.
func NewGame(id string, first, second *Player, rules Rules) *Game {
	return &Game{
		ID:              id,
		Board:           NewBoard(),
		Players:         [2]*Player{first, second},
		CurrentPlayerID: first.ID,
		Status:          StatusInProgress,
		Moves:           []Move{},
		Rules:           rules,
	}
}

func (that *Game) Player(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}

	return nil
}

func (that *Game) CurrentPlayer() *Player {
	return that.Player(that.CurrentPlayerID)
}

// Opponent is the player who is not to move.
func (that *Game) Opponent() *Player {
	return that.OpponentOf(that.CurrentPlayerID)
}

func (that *Game) OpponentOf(playerID string) *Player {
	for _, player := range that.Players {
		if player.ID != playerID {
			return player
		}
	}

	return nil
}

func (that *Game) Winner() *Player {
	if that.WinnerID == "" {
		return nil
	}

	return that.Player(that.WinnerID)
}

func (that *Game) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Game) IsFinished() bool {
	return !that.IsInProgress()
}

// MakeMove applies move for the current player. A placement the board rejects
// yields (false, nil) and leaves the turn unchanged; moving out of turn or on a
// finished game is an error.
func (that *Game) MakeMove(move Move) (bool, error) {
	if that.IsFinished() {
		return false, apperror.ErrGameFinished
	}

	if move.PlayerID != that.CurrentPlayerID {
		return false, fmt.Errorf("%w: player %s", apperror.ErrNotYourTurn, move.PlayerID)
	}

	mover := that.CurrentPlayer()

	applied := that.Board.ApplyMove(move)
	if applied || that.Rules.DiscardFailedPiece {
		mover.RemovePiece(move.Piece.ID)
	}

	if !applied {
		return false, nil
	}

	that.Moves = append(that.Moves, move.Clone())

	if that.Board.CheckWin(mover.ID) {
		that.Status = StatusWin
		that.WinnerID = mover.ID
	} else {
		that.CurrentPlayerID = that.OpponentOf(mover.ID).ID
	}

	return true, nil
}

// LegalPlacements lists every reserve piece of player on every cell that can
// take it. Pieces already on the board are not considered.
func (that *Game) LegalPlacements(player *Player) []Move {
	var moves []Move
	for _, piece := range player.Pieces {
		for r := range BoardSize {
			for c := range BoardSize {
				to := Position{Row: r, Col: c}
				if that.Board.IsValidMove(to, piece) {
					moves = append(moves, NewPlacement(player.ID, piece, to))
				}
			}
		}
	}

	return moves
}

// History returns a copy of the applied moves, oldest first.
func (that *Game) History() []Move {
	history := make([]Move, len(that.Moves))
	for i, move := range that.Moves {
		history[i] = move.Clone()
	}

	return history
}

// Clone returns a fully independent copy for look-ahead.
func (that *Game) Clone() *Game {
	return &Game{
		ID:              that.ID,
		Board:           that.Board.Clone(),
		Players:         [2]*Player{that.Players[0].Clone(), that.Players[1].Clone()},
		CurrentPlayerID: that.CurrentPlayerID,
		Status:          that.Status,
		WinnerID:        that.WinnerID,
		Moves:           that.History(),
		Rules:           that.Rules,
	}
}

package entity

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
)

const BoardSize = 3

// Position addresses a cell. It is encoded as the JSON array [row, col].
type Position struct {
	Row int
	Col int
}

func (that Position) Valid() bool {
	return that.Row >= 0 && that.Row < BoardSize && that.Col >= 0 && that.Col < BoardSize
}

func (that Position) String() string {
	return fmt.Sprintf("[%d,%d]", that.Row, that.Col)
}

func (that Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{that.Row, that.Col})
}

func (that *Position) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: position must be [row, col]", apperror.ErrInvalidInput)
	}

	if len(pair) != 2 {
		return fmt.Errorf("%w: position must have 2 coordinates, got %d", apperror.ErrInvalidInput, len(pair))
	}

	that.Row, that.Col = pair[0], pair[1]
	return nil
}

// Lines are the 8 winning lines: rows, columns, main diagonal, anti-diagonal.
var Lines = func() [][BoardSize]Position {
	lines := make([][BoardSize]Position, 0, 2*BoardSize+2)

	for r := range BoardSize {
		var line [BoardSize]Position
		for c := range BoardSize {
			line[c] = Position{Row: r, Col: c}
		}
		lines = append(lines, line)
	}

	for c := range BoardSize {
		var line [BoardSize]Position
		for r := range BoardSize {
			line[r] = Position{Row: r, Col: c}
		}
		lines = append(lines, line)
	}

	var diagonal, antiDiagonal [BoardSize]Position
	for i := range BoardSize {
		diagonal[i] = Position{Row: i, Col: i}
		antiDiagonal[i] = Position{Row: i, Col: BoardSize - 1 - i}
	}

	return append(lines, diagonal, antiDiagonal)
}()

type Board struct {
	Grid [BoardSize][BoardSize]Cell `json:"grid"`
}

func NewBoard() *Board {
	return &Board{}
}

// Cell returns the cell at pos. Coordinates are validated upstream; an
// out-of-range position is a programming error and panics.
func (that *Board) Cell(pos Position) *Cell {
	return &that.Grid[pos.Row][pos.Col]
}

func (that *Board) IsValidMove(to Position, piece Piece) bool {
	return that.Cell(to).CanPlace(piece)
}

// ApplyMove places move.Piece on move.To, lifting it from move.From first when
// the piece is already on the board. It reports false, leaving the board
// untouched, if the destination can't take the piece.
func (that *Board) ApplyMove(move Move) bool {
	if !that.IsValidMove(move.To, move.Piece) {
		return false
	}

	if move.From != nil {
		if _, ok := that.Cell(*move.From).RemoveTop(); !ok {
			panic(fmt.Sprintf("apply move: source cell %s is empty", move.From))
		}
	}

	return that.Cell(move.To).Place(move.Piece)
}

// CheckWin reports whether every top piece of some line belongs to playerID.
func (that *Board) CheckWin(playerID string) bool {
	for _, line := range Lines {
		if that.ownsLine(line, playerID) {
			return true
		}
	}

	return false
}

func (that *Board) ownsLine(line [BoardSize]Position, playerID string) bool {
	for _, pos := range line {
		top, ok := that.Cell(pos).Top()
		if !ok || top.Owner != playerID {
			return false
		}
	}

	return true
}

func (that *Board) FindPiecePosition(pieceID string) (Position, bool) {
	for r := range BoardSize {
		for c := range BoardSize {
			if that.Grid[r][c].Contains(pieceID) {
				return Position{Row: r, Col: c}, true
			}
		}
	}

	return Position{}, false
}

func (that *Board) FindPieceByID(pieceID string) (Piece, bool) {
	for r := range BoardSize {
		for c := range BoardSize {
			for _, piece := range that.Grid[r][c].stack {
				if piece.ID == pieceID {
					return piece, true
				}
			}
		}
	}

	return Piece{}, false
}

// Pieces lists every piece on the board, row-major, bottom of each stack first.
func (that *Board) Pieces() []Piece {
	var pieces []Piece
	for r := range BoardSize {
		for c := range BoardSize {
			pieces = append(pieces, that.Grid[r][c].stack...)
		}
	}

	return pieces
}

func (that *Board) Clone() *Board {
	cloned := &Board{}
	for r := range BoardSize {
		for c := range BoardSize {
			cloned.Grid[r][c] = that.Grid[r][c].Clone()
		}
	}

	return cloned
}

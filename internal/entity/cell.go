package entity

import (
	"encoding/json"
	"fmt"
)

// Cell holds a stack of pieces; only the top one is in play.
type Cell struct {
	stack []Piece
}

// Top returns the visible piece, if any.
func (that *Cell) Top() (Piece, bool) {
	if len(that.stack) == 0 {
		return Piece{}, false
	}

	return that.stack[len(that.stack)-1], true
}

func (that *Cell) IsEmpty() bool {
	return len(that.stack) == 0
}

// CanPlace reports whether piece may go on this cell: the cell is empty or
// piece is strictly larger than the current top.
func (that *Cell) CanPlace(piece Piece) bool {
	top, ok := that.Top()
	return !ok || piece.Size > top.Size
}

func (that *Cell) Place(piece Piece) bool {
	if !that.CanPlace(piece) {
		return false
	}

	that.stack = append(that.stack, piece)
	return true
}

func (that *Cell) RemoveTop() (Piece, bool) {
	top, ok := that.Top()
	if !ok {
		return Piece{}, false
	}

	that.stack = that.stack[:len(that.stack)-1]
	if len(that.stack) == 0 {
		that.stack = nil
	}

	return top, true
}

func (that *Cell) Contains(pieceID string) bool {
	for _, piece := range that.stack {
		if piece.ID == pieceID {
			return true
		}
	}

	return false
}

// Stack returns a copy of the pieces, bottom first.
func (that *Cell) Stack() []Piece {
	if len(that.stack) == 0 {
		return nil
	}

	stack := make([]Piece, len(that.stack))
	copy(stack, that.stack)
	return stack
}

func (that *Cell) Clone() Cell {
	return Cell{stack: that.Stack()}
}

func (that Cell) MarshalJSON() ([]byte, error) {
	if that.stack == nil {
		return []byte("[]"), nil
	}

	return json.Marshal(that.stack)
}

func (that *Cell) UnmarshalJSON(data []byte) error {
	var stack []Piece
	if err := json.Unmarshal(data, &stack); err != nil {
		return fmt.Errorf("failed to unmarshal cell: %w", err)
	}

	restored := Cell{}
	for _, piece := range stack {
		if !restored.Place(piece) {
			return fmt.Errorf("corrupted cell stack: %s %s can't cover a larger piece", piece.Size, piece.ID)
		}
	}

	*that = restored
	return nil
}

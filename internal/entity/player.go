package entity

type Role string

const (
	RoleHuman    Role = "human"
	RoleComputer Role = "computer"
)

// Player owns the reserve of pieces it has not placed yet.
type Player struct {
	ID     string  `json:"id"`
	Role   Role    `json:"type"`
	Name   string  `json:"name,omitempty"`
	Pieces []Piece `json:"pieces"`
}

func NewPlayer(id string, role Role, name string) *Player {
	return &Player{
		ID:     id,
		Role:   role,
		Name:   name,
		Pieces: []Piece{},
	}
}

func (that *Player) IsComputer() bool {
	return that.Role == RoleComputer
}

// AvailablePieces returns a copy of the reserve; mutate it through
// AddPiece and RemovePiece only.
func (that *Player) AvailablePieces() []Piece {
	pieces := make([]Piece, len(that.Pieces))
	copy(pieces, that.Pieces)
	return pieces
}

func (that *Player) ReservePiece(pieceID string) (Piece, bool) {
	for _, piece := range that.Pieces {
		if piece.ID == pieceID {
			return piece, true
		}
	}

	return Piece{}, false
}

func (that *Player) HasSize(size Size) bool {
	for _, piece := range that.Pieces {
		if piece.Size == size {
			return true
		}
	}

	return false
}

// MaxReserveSize is the largest size left in reserve, SizeNone when empty.
func (that *Player) MaxReserveSize() Size {
	largest := SizeNone
	for _, piece := range that.Pieces {
		largest = max(largest, piece.Size)
	}

	return largest
}

// RemovePiece drops the piece with the given id from the reserve; no-op if absent.
func (that *Player) RemovePiece(pieceID string) {
	for i, piece := range that.Pieces {
		if piece.ID == pieceID {
			that.Pieces = append(that.Pieces[:i:i], that.Pieces[i+1:]...)
			return
		}
	}
}

func (that *Player) AddPiece(piece Piece) {
	that.Pieces = append(that.Pieces, piece)
}

func (that *Player) Clone() *Player {
	return &Player{
		ID:     that.ID,
		Role:   that.Role,
		Name:   that.Name,
		Pieces: that.AvailablePieces(),
	}
}

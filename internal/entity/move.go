package entity

// Move records who moved which piece where. From is nil for a placement out
// of the reserve.
type Move struct {
	PlayerID string    `json:"playerId"`
	From     *Position `json:"from"`
	To       Position  `json:"to"`
	Piece    Piece     `json:"piece"`
}

func NewPlacement(playerID string, piece Piece, to Position) Move {
	return Move{PlayerID: playerID, To: to, Piece: piece}
}

func NewRelocation(playerID string, piece Piece, from, to Position) Move {
	return Move{PlayerID: playerID, From: &from, To: to, Piece: piece}
}

func (that Move) FromReserve() bool {
	return that.From == nil
}

func (that Move) Clone() Move {
	cloned := that
	if that.From != nil {
		from := *that.From
		cloned.From = &from
	}

	return cloned
}

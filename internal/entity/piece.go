package entity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
)

// Size orders pieces: a piece may only cover strictly smaller ones.
type Size int

const (
	SizeNone Size = iota
	SizeSM
	SizeMD
	SizeLG
)

// PiecesPerSize is how many pieces of each size a player receives.
const PiecesPerSize = 2

var Sizes = [...]Size{SizeSM, SizeMD, SizeLG}

func (s Size) String() string {
	switch s {
	case SizeSM:
		return "SM"
	case SizeMD:
		return "MD"
	case SizeLG:
		return "LG"
	default:
		return ""
	}
}

func ParseSize(value string) (Size, error) {
	for _, size := range Sizes {
		if size.String() == value {
			return size, nil
		}
	}

	return SizeNone, fmt.Errorf("%w: size %q", apperror.ErrInvalidInput, value)
}

func (s Size) MarshalText() ([]byte, error) {
	if s.String() == "" {
		return nil, fmt.Errorf("%w: size %d", apperror.ErrInvalidInput, int(s))
	}

	return []byte(s.String()), nil
}

func (s *Size) UnmarshalText(text []byte) error {
	size, err := ParseSize(string(text))
	if err != nil {
		return err
	}

	*s = size
	return nil
}

// Piece is an immutable sized token. Owner holds the owning player's id.
type Piece struct {
	ID    string `json:"id"`
	Size  Size   `json:"size"`
	Owner string `json:"ownerId"`
}

func NewPiece(size Size, owner string) Piece {
	return Piece{
		ID:    uuid.NewString(),
		Size:  size,
		Owner: owner,
	}
}

// NewStandardPieces allocates the starting reserve: two pieces of every size.
func NewStandardPieces(owner string) []Piece {
	pieces := make([]Piece, 0, len(Sizes)*PiecesPerSize)
	for _, size := range Sizes {
		for range PiecesPerSize {
			pieces = append(pieces, NewPiece(size, owner))
		}
	}

	return pieces
}

package usecase

import "github.com/rocketscienceinc/gobblet-backend/internal/entity"

// GameSnapshot is the public view of a game. Field names are part of the
// client contract.
type GameSnapshot struct {
	GameID        string                                       `json:"gameId"`
	Status        entity.Status                                `json:"status"`
	CurrentPlayer string                                       `json:"currentPlayer"`
	Winner        *WinnerView                                  `json:"winner"`
	Players       []PlayerView                                 `json:"players"`
	Board         [entity.BoardSize][entity.BoardSize]*CellView `json:"board"`
}

type WinnerView struct {
	ID   string      `json:"id"`
	Type entity.Role `json:"type"`
	Name string      `json:"name,omitempty"`
}

type PlayerView struct {
	ID     string      `json:"id"`
	Type   entity.Role `json:"type"`
	Name   string      `json:"name,omitempty"`
	Pieces []PieceView `json:"pieces"`
}

type PieceView struct {
	ID   string      `json:"id"`
	Size entity.Size `json:"size"`
}

// CellView describes the top piece of a cell; covered pieces are not exposed.
type CellView struct {
	OwnerID string      `json:"ownerId"`
	PieceID string      `json:"pieceId"`
	Size    entity.Size `json:"size"`
}

type MoveRecord struct {
	PlayerID  string          `json:"playerId"`
	PieceSize entity.Size     `json:"pieceSize"`
	To        entity.Position `json:"to"`
}

type PieceInfo struct {
	ID      string      `json:"id"`
	OwnerID string      `json:"ownerId"`
	Size    entity.Size `json:"size"`
}

func NewGameSnapshot(game *entity.Game) *GameSnapshot {
	snapshot := &GameSnapshot{
		GameID:        game.ID,
		Status:        game.Status,
		CurrentPlayer: game.CurrentPlayerID,
		Players:       make([]PlayerView, 0, len(game.Players)),
	}

	if winner := game.Winner(); winner != nil {
		snapshot.Winner = &WinnerView{ID: winner.ID, Type: winner.Role, Name: winner.Name}
	}

	for _, player := range game.Players {
		view := PlayerView{
			ID:     player.ID,
			Type:   player.Role,
			Name:   player.Name,
			Pieces: make([]PieceView, 0, len(player.Pieces)),
		}
		for _, piece := range player.Pieces {
			view.Pieces = append(view.Pieces, PieceView{ID: piece.ID, Size: piece.Size})
		}
		snapshot.Players = append(snapshot.Players, view)
	}

	for r := range entity.BoardSize {
		for c := range entity.BoardSize {
			if top, ok := game.Board.Cell(entity.Position{Row: r, Col: c}).Top(); ok {
				snapshot.Board[r][c] = &CellView{OwnerID: top.Owner, PieceID: top.ID, Size: top.Size}
			}
		}
	}

	return snapshot
}

func newMoveRecords(moves []entity.Move) []MoveRecord {
	records := make([]MoveRecord, 0, len(moves))
	for _, move := range moves {
		records = append(records, MoveRecord{PlayerID: move.PlayerID, PieceSize: move.Piece.Size, To: move.To})
	}

	return records
}

func newPieceInfos(pieces []entity.Piece) []PieceInfo {
	infos := make([]PieceInfo, 0, len(pieces))
	for _, piece := range pieces {
		infos = append(infos, PieceInfo{ID: piece.ID, OwnerID: piece.Owner, Size: piece.Size})
	}

	return infos
}

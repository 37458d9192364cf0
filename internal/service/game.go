package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/gobblet-backend/internal/entity"
)

// GameService creates games and is the only way the use case reaches storage.
type GameService interface {
	CreateGame(ctx context.Context, mode entity.Mode, difficulty string) (*entity.GameRecord, error)
	UpdateGame(ctx context.Context, record *entity.GameRecord) error
	DeleteGame(ctx context.Context, gameID string) error

	GetGameByID(ctx context.Context, id string) (*entity.GameRecord, error)
}

type gameRepo interface {
	Create(ctx context.Context, record *entity.GameRecord) error
	GetByID(ctx context.Context, id string) (*entity.GameRecord, error)
	Update(ctx context.Context, record *entity.GameRecord) error
	DeleteByID(ctx context.Context, id string) error
}

type gameService struct {
	gameRepo gameRepo
	rules    entity.Rules
	now      func() time.Time
}

func NewGameService(gameRepo gameRepo, rules entity.Rules) GameService {
	return &gameService{
		gameRepo: gameRepo,
		rules:    rules,
		now:      time.Now,
	}
}

// CreateGame allocates both players with a full reserve. The human always
// moves first; in a pvc game the second player is the computer.
func (that *gameService) CreateGame(ctx context.Context, mode entity.Mode, difficulty string) (*entity.GameRecord, error) {
	first := newPlayerWithReserve(entity.RoleHuman)

	secondRole := entity.RoleHuman
	if mode == entity.ModePvC {
		secondRole = entity.RoleComputer
	} else {
		difficulty = ""
	}
	second := newPlayerWithReserve(secondRole)

	game := entity.NewGame(uuid.NewString(), first, second, that.rules)

	record := &entity.GameRecord{
		Game: game,
		Meta: entity.GameMeta{
			Mode:       mode,
			Difficulty: difficulty,
			CreatedAt:  that.now().UTC(),
			Pieces:     append(first.AvailablePieces(), second.AvailablePieces()...),
		},
	}

	if err := that.gameRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create game in storage: %w", err)
	}

	return record, nil
}

func newPlayerWithReserve(role entity.Role) *entity.Player {
	player := entity.NewPlayer(uuid.NewString(), role, "")
	for _, piece := range entity.NewStandardPieces(player.ID) {
		player.AddPiece(piece)
	}

	return player
}

func (that *gameService) GetGameByID(ctx context.Context, id string) (*entity.GameRecord, error) {
	record, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve game from storage: %w", err)
	}
	return record, nil
}

func (that *gameService) UpdateGame(ctx context.Context, record *entity.GameRecord) error {
	if err := that.gameRepo.Update(ctx, record); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

func (that *gameService) DeleteGame(ctx context.Context, gameID string) error {
	if err := that.gameRepo.DeleteByID(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}

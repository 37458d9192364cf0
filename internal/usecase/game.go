package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
	"github.com/rocketscienceinc/gobblet-backend/internal/bot"
	"github.com/rocketscienceinc/gobblet-backend/internal/entity"
)

// GameUseCase is what transports call. Every method returns errors wrapping
// an apperror kind.
type GameUseCase interface {
	CreateGame(ctx context.Context, mode, difficulty string) (*GameSnapshot, error)
	JoinGame(ctx context.Context, gameID, playerName string) (*GameSnapshot, error)
	StartGame(ctx context.Context, gameID string) (*GameSnapshot, error)
	GetGameState(ctx context.Context, gameID string) (*GameSnapshot, error)
	MakeMove(ctx context.Context, gameID, playerID, pieceID string, to entity.Position) (*GameSnapshot, error)
	GetMoveHistory(ctx context.Context, gameID string) ([]MoveRecord, error)
	GetPieces(ctx context.Context, gameID string) ([]PieceInfo, error)
	DeleteGame(ctx context.Context, gameID string) error
}

// Publisher receives the snapshot after every change of a game.
type Publisher interface {
	Publish(gameID string, snapshot *GameSnapshot)
}

type gameService interface {
	CreateGame(ctx context.Context, mode entity.Mode, difficulty string) (*entity.GameRecord, error)
	GetGameByID(ctx context.Context, id string) (*entity.GameRecord, error)
	UpdateGame(ctx context.Context, record *entity.GameRecord) error
	DeleteGame(ctx context.Context, gameID string) error
}

type botService interface {
	Supports(difficulty bot.Difficulty) error
	MakeTurn(game *entity.Game, difficulty bot.Difficulty) (entity.Move, error)
}

type Option func(*gameUseCase)

// WithPublisher pushes snapshots to publisher after each change.
func WithPublisher(publisher Publisher) Option {
	return func(that *gameUseCase) {
		that.publisher = publisher
	}
}

// WithDefaultDifficulty is used when a pvc game is created without one.
func WithDefaultDifficulty(difficulty bot.Difficulty) Option {
	return func(that *gameUseCase) {
		that.defaultDifficulty = difficulty
	}
}

type gameUseCase struct {
	logger      *slog.Logger
	gameService gameService
	botService  botService
	publisher   Publisher

	defaultDifficulty bot.Difficulty

	mu    sync.Mutex
	locks map[string]*gameLock
}

// gameLock is dropped from the map once nobody holds or waits for it.
type gameLock struct {
	mu   sync.Mutex
	refs int
}

func NewGameUseCase(logger *slog.Logger, gameService gameService, botService botService, opts ...Option) GameUseCase {
	useCase := &gameUseCase{
		logger:            logger.With("component", "usecase"),
		gameService:       gameService,
		botService:        botService,
		defaultDifficulty: bot.DifficultyEasy,
		locks:             make(map[string]*gameLock),
	}

	for _, opt := range opts {
		opt(useCase)
	}

	return useCase
}

func (that *gameUseCase) CreateGame(ctx context.Context, mode, difficulty string) (*GameSnapshot, error) {
	log := that.logger.With("method", "CreateGame", "mode", mode)

	gameMode, err := entity.ParseMode(mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	level := that.defaultDifficulty
	if difficulty != "" {
		if level, err = bot.ParseDifficulty(difficulty); err != nil {
			return nil, fmt.Errorf("failed to create game: %w", err)
		}
	}

	if gameMode == entity.ModePvC {
		if err = that.botService.Supports(level); err != nil {
			return nil, fmt.Errorf("failed to create game: %w", err)
		}
	}

	record, err := that.gameService.CreateGame(ctx, gameMode, string(level))
	if err != nil {
		log.Error("could not create game", "error", err)
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	log.Info("game created", "gameID", record.Game.ID, "difficulty", record.Meta.Difficulty)

	return NewGameSnapshot(record.Game), nil
}

// JoinGame names the second human of a pvp game.
func (that *gameUseCase) JoinGame(ctx context.Context, gameID, playerName string) (*GameSnapshot, error) {
	log := that.logger.With("method", "JoinGame", "gameID", gameID)

	if playerName == "" {
		return nil, fmt.Errorf("%w: player name is required", apperror.ErrInvalidInput)
	}

	return that.mutate(ctx, gameID, func(record *entity.GameRecord) error {
		if record.Meta.Mode != entity.ModePvP {
			return apperror.ErrNotPvPGame
		}

		second := record.Game.Players[1]
		if second.Name != "" {
			return apperror.ErrGameFull
		}

		second.Name = playerName
		log.Info("player joined", "playerID", second.ID)

		return nil
	})
}

func (that *gameUseCase) StartGame(ctx context.Context, gameID string) (*GameSnapshot, error) {
	log := that.logger.With("method", "StartGame", "gameID", gameID)

	return that.mutate(ctx, gameID, func(record *entity.GameRecord) error {
		if record.Meta.StartedAt != nil {
			return nil
		}

		now := time.Now().UTC()
		record.Meta.StartedAt = &now
		log.Info("game started")

		return nil
	})
}

func (that *gameUseCase) GetGameState(ctx context.Context, gameID string) (*GameSnapshot, error) {
	record, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game state: %w", err)
	}

	return NewGameSnapshot(record.Game), nil
}

// MakeMove plays pieceID for playerID. In a game against the computer the
// bot answers before the snapshot is returned.
func (that *gameUseCase) MakeMove(ctx context.Context, gameID, playerID, pieceID string, to entity.Position) (*GameSnapshot, error) {
	log := that.logger.With("method", "MakeMove", "gameID", gameID, "playerID", playerID)

	if !to.Valid() {
		return nil, fmt.Errorf("failed to make move: %w: %s", apperror.ErrCellOutOfRange, to)
	}

	unlock := that.lock(gameID)
	defer unlock()

	record, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	game := record.Game

	player := game.Player(playerID)
	if player == nil {
		return nil, fmt.Errorf("failed to make move: %w", apperror.ErrPlayerNotFound)
	}

	if game.IsFinished() {
		return nil, fmt.Errorf("failed to make move: %w", apperror.ErrGameFinished)
	}

	move, err := resolveMove(game, player, pieceID, to)
	if err != nil {
		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	applied, err := game.MakeMove(move)
	if err != nil {
		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	if !applied {
		// The reserve may have changed even though the board did not.
		if err = that.gameService.UpdateGame(ctx, record); err != nil {
			log.Error("could not save game", "error", err)
			return nil, fmt.Errorf("failed to make move: %w", err)
		}

		that.publish(game)
		log.Info("placement rejected", "pieceID", pieceID, "to", to)

		return nil, fmt.Errorf("failed to place piece %s on %s: %w", pieceID, to, apperror.ErrIllegalPlacement)
	}

	log.Info("move applied", "pieceID", pieceID, "size", move.Piece.Size, "to", to, "status", game.Status)

	var botErr error
	if record.Meta.IsWithBot() && game.IsInProgress() && game.CurrentPlayer().IsComputer() {
		if _, botErr = that.botService.MakeTurn(game, bot.Difficulty(record.Meta.Difficulty)); botErr != nil {
			log.Warn("bot could not answer", "error", botErr)
		}
	}

	if err = that.gameService.UpdateGame(ctx, record); err != nil {
		log.Error("could not save game", "error", err)
		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	that.publish(game)

	if botErr != nil {
		return nil, fmt.Errorf("failed to answer move: %w", botErr)
	}

	return NewGameSnapshot(game), nil
}

// resolveMove finds pieceID in a reserve first and then on the board.
func resolveMove(game *entity.Game, player *entity.Player, pieceID string, to entity.Position) (entity.Move, error) {
	for _, owner := range game.Players {
		if piece, ok := owner.ReservePiece(pieceID); ok {
			if piece.Owner != player.ID {
				return entity.Move{}, apperror.ErrNotYourPiece
			}

			return entity.NewPlacement(player.ID, piece, to), nil
		}
	}

	piece, ok := game.Board.FindPieceByID(pieceID)
	if !ok {
		return entity.Move{}, apperror.ErrPieceNotFound
	}

	if piece.Owner != player.ID {
		return entity.Move{}, apperror.ErrNotYourPiece
	}

	from, _ := game.Board.FindPiecePosition(pieceID)
	if top, _ := game.Board.Cell(from).Top(); top.ID != pieceID {
		return entity.Move{}, apperror.ErrPieceCovered
	}

	return entity.NewRelocation(player.ID, piece, from, to), nil
}

func (that *gameUseCase) GetMoveHistory(ctx context.Context, gameID string) ([]MoveRecord, error) {
	record, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get move history: %w", err)
	}

	return newMoveRecords(record.Game.History()), nil
}

// GetPieces lists every piece allocated when the game was created.
func (that *gameUseCase) GetPieces(ctx context.Context, gameID string) ([]PieceInfo, error) {
	record, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pieces: %w", err)
	}

	return newPieceInfos(record.Meta.Pieces), nil
}

func (that *gameUseCase) DeleteGame(ctx context.Context, gameID string) error {
	unlock := that.lock(gameID)
	defer unlock()

	if err := that.gameService.DeleteGame(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.Info("game deleted", "method", "DeleteGame", "gameID", gameID)

	return nil
}

// mutate loads the game, applies change and saves it under the game lock.
func (that *gameUseCase) mutate(ctx context.Context, gameID string, change func(*entity.GameRecord) error) (*GameSnapshot, error) {
	unlock := that.lock(gameID)
	defer unlock()

	record, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	if err = change(record); err != nil {
		return nil, err
	}

	if err = that.gameService.UpdateGame(ctx, record); err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			that.logger.Error("could not save game", "gameID", gameID, "error", err)
		}
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	that.publish(record.Game)

	return NewGameSnapshot(record.Game), nil
}

func (that *gameUseCase) publish(game *entity.Game) {
	if that.publisher != nil {
		that.publisher.Publish(game.ID, NewGameSnapshot(game))
	}
}

// lock serialises mutations of one game id and returns the unlock func.
func (that *gameUseCase) lock(gameID string) func() {
	that.mu.Lock()
	held, ok := that.locks[gameID]
	if !ok {
		held = &gameLock{}
		that.locks[gameID] = held
	}
	held.refs++
	that.mu.Unlock()

	held.mu.Lock()

	return func() {
		held.mu.Unlock()

		that.mu.Lock()
		held.refs--
		if held.refs == 0 {
			delete(that.locks, gameID)
		}
		that.mu.Unlock()
	}
}

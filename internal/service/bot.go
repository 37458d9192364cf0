package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
	"github.com/rocketscienceinc/gobblet-backend/internal/bot"
	"github.com/rocketscienceinc/gobblet-backend/internal/entity"
)

var ErrBotNotFound = errors.New("bot player not found")

type BotService interface {
	// Supports reports whether games can be played against difficulty.
	Supports(difficulty bot.Difficulty) error
	// MakeTurn plays one move for the computer when it is to move.
	MakeTurn(game *entity.Game, difficulty bot.Difficulty) (entity.Move, error)
}

// searchReporter is implemented by strategies that can report search statistics.
type searchReporter interface {
	Decide(game *entity.Game, player *entity.Player) (bot.SearchResult, error)
}

type botService struct {
	logger *slog.Logger
	opts   bot.Options
}

func NewBotService(logger *slog.Logger, opts bot.Options) BotService {
	return &botService{
		logger: logger.With("component", "bot"),
		opts:   opts,
	}
}

func (that *botService) Supports(difficulty bot.Difficulty) error {
	if _, err := bot.New(difficulty, that.opts); err != nil {
		return fmt.Errorf("failed to pick bot: %w", err)
	}

	return nil
}

func (that *botService) MakeTurn(game *entity.Game, difficulty bot.Difficulty) (entity.Move, error) {
	log := that.logger.With("method", "MakeTurn", "gameID", game.ID, "difficulty", difficulty)

	botPlayer := game.CurrentPlayer()
	if botPlayer == nil || !botPlayer.IsComputer() {
		return entity.Move{}, ErrBotNotFound
	}

	strategy, err := bot.New(difficulty, that.opts)
	if err != nil {
		return entity.Move{}, fmt.Errorf("failed to pick bot: %w", err)
	}

	started := time.Now()

	var move entity.Move
	if reporter, ok := strategy.(searchReporter); ok {
		var result bot.SearchResult
		result, err = reporter.Decide(game, botPlayer)
		move = result.Move
		log.Debug("search finished", "nodes", result.Nodes, "score", result.Score, "elapsed", time.Since(started))
	} else {
		move, err = strategy.DecideMove(game, botPlayer)
	}

	if err != nil {
		return entity.Move{}, fmt.Errorf("bot failed to decide: %w", err)
	}

	applied, err := game.MakeMove(move)
	if err != nil {
		return entity.Move{}, fmt.Errorf("bot failed to make turn: %w", err)
	}

	if !applied {
		return entity.Move{}, fmt.Errorf("bot failed to make turn: %w", apperror.ErrIllegalPlacement)
	}

	log.Info("bot moved", "pieceID", move.Piece.ID, "size", move.Piece.Size, "to", move.To)

	return move, nil
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
	"github.com/rocketscienceinc/gobblet-backend/internal/bot"
	"github.com/rocketscienceinc/gobblet-backend/internal/entity"
	"github.com/rocketscienceinc/gobblet-backend/internal/repository"
	"github.com/rocketscienceinc/gobblet-backend/internal/service"
)

var errRedisDown = errors.New("redis down")

type recordingPublisher struct {
	mu        sync.Mutex
	snapshots []*GameSnapshot
}

func (that *recordingPublisher) Publish(_ string, snapshot *GameSnapshot) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.snapshots = append(that.snapshots, snapshot)
}

type mockGameService struct {
	mock.Mock
}

func (that *mockGameService) CreateGame(ctx context.Context, mode entity.Mode, difficulty string) (*entity.GameRecord, error) {
	args := that.Called(ctx, mode, difficulty)
	record, _ := args.Get(0).(*entity.GameRecord)
	return record, args.Error(1)
}

func (that *mockGameService) GetGameByID(ctx context.Context, id string) (*entity.GameRecord, error) {
	args := that.Called(ctx, id)
	record, _ := args.Get(0).(*entity.GameRecord)
	return record, args.Error(1)
}

func (that *mockGameService) UpdateGame(ctx context.Context, record *entity.GameRecord) error {
	return that.Called(ctx, record).Error(0)
}

func (that *mockGameService) DeleteGame(ctx context.Context, gameID string) error {
	return that.Called(ctx, gameID).Error(0)
}

type fixture struct {
	useCase   GameUseCase
	publisher *recordingPublisher
	games     service.GameService
}

func newFixture(rules entity.Rules) *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	games := service.NewGameService(repository.NewMemoryGameRepository(), rules)
	bots := service.NewBotService(logger, bot.Options{HardDepth: 2, Rand: rand.New(rand.NewSource(1))})
	publisher := &recordingPublisher{}

	return &fixture{
		useCase:   NewGameUseCase(logger, games, bots, WithPublisher(publisher)),
		publisher: publisher,
		games:     games,
	}
}

func pieceOfSize(t *testing.T, view PlayerView, size entity.Size) PieceView {
	t.Helper()

	for _, piece := range view.Pieces {
		if piece.Size == size {
			return piece
		}
	}

	t.Fatalf("player %s has no %s piece left", view.ID, size)
	return PieceView{}
}

func TestGameUseCase_CreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("New pvc game", func(t *testing.T) {
		// Given: a use case with in-memory storage
		fx := newFixture(entity.DefaultRules())

		// When: a pvc game is created
		snapshot, err := fx.useCase.CreateGame(ctx, "pvc", "hard")

		// Then: both reserves are full, the board is empty and the human moves first
		require.NoError(t, err)
		assert.NotEmpty(t, snapshot.GameID)
		assert.Equal(t, entity.StatusInProgress, snapshot.Status)
		assert.Nil(t, snapshot.Winner)
		require.Len(t, snapshot.Players, 2)
		assert.Equal(t, entity.RoleHuman, snapshot.Players[0].Type)
		assert.Equal(t, entity.RoleComputer, snapshot.Players[1].Type)
		assert.Equal(t, snapshot.Players[0].ID, snapshot.CurrentPlayer)
		for _, player := range snapshot.Players {
			sizes := map[entity.Size]int{}
			for _, piece := range player.Pieces {
				sizes[piece.Size]++
			}
			assert.Equal(t, map[entity.Size]int{entity.SizeSM: 2, entity.SizeMD: 2, entity.SizeLG: 2}, sizes)
		}
		for _, row := range snapshot.Board {
			for _, cell := range row {
				assert.Nil(t, cell)
			}
		}
	})

	t.Run("Default difficulty", func(t *testing.T) {
		fx := newFixture(entity.DefaultRules())

		snapshot, err := fx.useCase.CreateGame(ctx, "pvc", "")
		require.NoError(t, err)

		record, err := fx.games.GetGameByID(ctx, snapshot.GameID)
		require.NoError(t, err)
		assert.Equal(t, "easy", record.Meta.Difficulty)
	})

	t.Run("Rejected input", func(t *testing.T) {
		fx := newFixture(entity.DefaultRules())

		_, err := fx.useCase.CreateGame(ctx, "solo", "")
		require.ErrorIs(t, err, apperror.ErrUnknownMode)

		_, err = fx.useCase.CreateGame(ctx, "pvc", "impossible")
		require.ErrorIs(t, err, apperror.ErrInvalidInput)

		_, err = fx.useCase.CreateGame(ctx, "pvc", "medium")
		require.ErrorIs(t, err, apperror.ErrUnsupportedDifficulty)
	})

	t.Run("pvp accepts any known difficulty", func(t *testing.T) {
		fx := newFixture(entity.DefaultRules())

		snapshot, err := fx.useCase.CreateGame(ctx, "pvp", "medium")

		require.NoError(t, err)
		assert.Equal(t, entity.RoleHuman, snapshot.Players[1].Type)
	})
}

func TestGameUseCase_MakeMove(t *testing.T) {
	ctx := context.Background()
	center := entity.Position{Row: 1, Col: 1}

	t.Run("Human move is answered by the computer", func(t *testing.T) {
		// Given: a new pvc game
		fx := newFixture(entity.DefaultRules())
		created, err := fx.useCase.CreateGame(ctx, "pvc", "easy")
		require.NoError(t, err)
		human, computer := created.Players[0], created.Players[1]
		large := pieceOfSize(t, human, entity.SizeLG)

		// When: the human places a large piece in the center
		snapshot, err := fx.useCase.MakeMove(ctx, created.GameID, human.ID, large.ID, center)

		// Then: the center holds it, the human has 5 pieces and the computer already answered
		require.NoError(t, err)
		assert.Equal(t, &CellView{OwnerID: human.ID, PieceID: large.ID, Size: entity.SizeLG}, snapshot.Board[1][1])
		assert.Len(t, snapshot.Players[0].Pieces, 5)
		assert.Len(t, snapshot.Players[1].Pieces, 5)
		assert.Equal(t, human.ID, snapshot.CurrentPlayer)

		history, err := fx.useCase.GetMoveHistory(ctx, created.GameID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, MoveRecord{PlayerID: human.ID, PieceSize: entity.SizeLG, To: center}, history[0])
		assert.Equal(t, computer.ID, history[1].PlayerID)

		// And: the published snapshot equals the returned one
		require.Len(t, fx.publisher.snapshots, 1)
		assert.Equal(t, snapshot, fx.publisher.snapshots[0])
	})

	t.Run("Small on large is rejected and the piece is discarded", func(t *testing.T) {
		// Given: a pvp game with the first player's large piece in the center
		fx := newFixture(entity.DefaultRules())
		created, err := fx.useCase.CreateGame(ctx, "pvp", "")
		require.NoError(t, err)
		first, second := created.Players[0], created.Players[1]
		_, err = fx.useCase.MakeMove(ctx, created.GameID, first.ID, pieceOfSize(t, first, entity.SizeLG).ID, center)
		require.NoError(t, err)

		// When: the second player plays a small piece on it
		small := pieceOfSize(t, second, entity.SizeSM)
		_, err = fx.useCase.MakeMove(ctx, created.GameID, second.ID, small.ID, center)

		// Then: the move fails, the board and turn stay, but the small piece is gone
		require.ErrorIs(t, err, apperror.ErrIllegalPlacement)
		state, err := fx.useCase.GetGameState(ctx, created.GameID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, state.Board[1][1].OwnerID)
		assert.Equal(t, second.ID, state.CurrentPlayer)
		assert.Len(t, state.Players[1].Pieces, 5)
		for _, piece := range state.Players[1].Pieces {
			assert.NotEqual(t, small.ID, piece.ID)
		}

		// And: the registry still knows all 12 pieces
		pieces, err := fx.useCase.GetPieces(ctx, created.GameID)
		require.NoError(t, err)
		assert.Len(t, pieces, 12)
	})

	t.Run("Rejected piece is kept when discarding is off", func(t *testing.T) {
		fx := newFixture(entity.Rules{DiscardFailedPiece: false})
		created, err := fx.useCase.CreateGame(ctx, "pvp", "")
		require.NoError(t, err)
		first, second := created.Players[0], created.Players[1]
		_, err = fx.useCase.MakeMove(ctx, created.GameID, first.ID, pieceOfSize(t, first, entity.SizeLG).ID, center)
		require.NoError(t, err)

		_, err = fx.useCase.MakeMove(ctx, created.GameID, second.ID, pieceOfSize(t, second, entity.SizeSM).ID, center)

		require.ErrorIs(t, err, apperror.ErrIllegalPlacement)
		state, err := fx.useCase.GetGameState(ctx, created.GameID)
		require.NoError(t, err)
		assert.Len(t, state.Players[1].Pieces, 6)
	})

	t.Run("Validation", func(t *testing.T) {
		fx := newFixture(entity.DefaultRules())
		created, err := fx.useCase.CreateGame(ctx, "pvp", "")
		require.NoError(t, err)
		first, second := created.Players[0], created.Players[1]

		tests := []struct {
			name     string
			gameID   string
			playerID string
			pieceID  string
			to       entity.Position
			target   error
		}{
			{"unknown game", "missing", first.ID, first.Pieces[0].ID, center, apperror.ErrGameNotFound},
			{"unknown player", created.GameID, "stranger", first.Pieces[0].ID, center, apperror.ErrPlayerNotFound},
			{"unknown piece", created.GameID, first.ID, "ghost", center, apperror.ErrPieceNotFound},
			{"opponent piece", created.GameID, first.ID, second.Pieces[0].ID, center, apperror.ErrNotYourPiece},
			{"out of turn", created.GameID, second.ID, second.Pieces[0].ID, center, apperror.ErrNotYourTurn},
			{"off the board", created.GameID, first.ID, first.Pieces[0].ID, entity.Position{Row: 3, Col: 0}, apperror.ErrCellOutOfRange},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := fx.useCase.MakeMove(ctx, tt.gameID, tt.playerID, tt.pieceID, tt.to)

				require.ErrorIs(t, err, tt.target)
			})
		}

		// Nothing was changed by the failures
		state, err := fx.useCase.GetGameState(ctx, created.GameID)
		require.NoError(t, err)
		assert.Equal(t, created, state)
	})

	t.Run("Board piece can be moved unless covered", func(t *testing.T) {
		// Given: first player's small piece covered by the second player's medium
		fx := newFixture(entity.DefaultRules())
		created, err := fx.useCase.CreateGame(ctx, "pvp", "")
		require.NoError(t, err)
		first, second := created.Players[0], created.Players[1]
		small := pieceOfSize(t, first, entity.SizeSM)
		medium := pieceOfSize(t, second, entity.SizeMD)
		_, err = fx.useCase.MakeMove(ctx, created.GameID, first.ID, small.ID, entity.Position{Row: 0, Col: 0})
		require.NoError(t, err)
		_, err = fx.useCase.MakeMove(ctx, created.GameID, second.ID, medium.ID, entity.Position{Row: 0, Col: 0})
		require.NoError(t, err)

		// When: the first player tries to move the covered piece
		_, err = fx.useCase.MakeMove(ctx, created.GameID, first.ID, small.ID, center)

		// Then: it's refused
		require.ErrorIs(t, err, apperror.ErrPieceCovered)

		// When: the second player later relocates the medium piece
		otherSmall := first.Pieces[1]
		require.Equal(t, entity.SizeSM, otherSmall.Size)
		require.NotEqual(t, small.ID, otherSmall.ID)
		_, err = fx.useCase.MakeMove(ctx, created.GameID, first.ID, otherSmall.ID, entity.Position{Row: 2, Col: 2})
		require.NoError(t, err)
		state, err := fx.useCase.MakeMove(ctx, created.GameID, second.ID, medium.ID, center)

		// Then: the small piece is visible again and the medium sits in the center
		require.NoError(t, err)
		assert.Equal(t, small.ID, state.Board[0][0].PieceID)
		assert.Equal(t, medium.ID, state.Board[1][1].PieceID)
	})

	t.Run("Winning ends the game", func(t *testing.T) {
		fx := newFixture(entity.DefaultRules())
		created, err := fx.useCase.CreateGame(ctx, "pvp", "")
		require.NoError(t, err)
		first, second := created.Players[0], created.Players[1]
		moves := []struct {
			player PlayerView
			piece  PieceView
			to     entity.Position
		}{
			{first, first.Pieces[4], entity.Position{Row: 0, Col: 0}},
			{second, second.Pieces[0], entity.Position{Row: 2, Col: 2}},
			{first, first.Pieces[5], entity.Position{Row: 0, Col: 1}},
			{second, second.Pieces[1], entity.Position{Row: 2, Col: 1}},
		}
		for _, move := range moves {
			_, err = fx.useCase.MakeMove(ctx, created.GameID, move.player.ID, move.piece.ID, move.to)
			require.NoError(t, err)
		}

		state, err := fx.useCase.MakeMove(ctx, created.GameID, first.ID, first.Pieces[0].ID, entity.Position{Row: 0, Col: 2})

		require.NoError(t, err)
		assert.Equal(t, entity.StatusWin, state.Status)
		require.NotNil(t, state.Winner)
		assert.Equal(t, first.ID, state.Winner.ID)
		assert.Equal(t, entity.RoleHuman, state.Winner.Type)

		_, err = fx.useCase.MakeMove(ctx, created.GameID, second.ID, second.Pieces[2].ID, center)
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Concurrent moves on one game keep the invariants", func(t *testing.T) {
		// Given: a pvp game
		fx := newFixture(entity.DefaultRules())
		created, err := fx.useCase.CreateGame(ctx, "pvp", "")
		require.NoError(t, err)
		first := created.Players[0]

		// When: the same player fires moves to every cell at once
		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i, piece := range first.Pieces {
			wg.Add(1)
			go func(to entity.Position, pieceID string) {
				defer wg.Done()
				if _, moveErr := fx.useCase.MakeMove(ctx, created.GameID, first.ID, pieceID, to); moveErr == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}(entity.Position{Row: i / entity.BoardSize, Col: i % entity.BoardSize}, piece.ID)
		}
		wg.Wait()

		// Then: exactly one of them was applied
		assert.Equal(t, 1, succeeded)
		history, err := fx.useCase.GetMoveHistory(ctx, created.GameID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})
}

func TestGameUseCase_JoinAndStart(t *testing.T) {
	ctx := context.Background()

	t.Run("Second human joins a pvp game", func(t *testing.T) {
		fx := newFixture(entity.DefaultRules())
		created, err := fx.useCase.CreateGame(ctx, "pvp", "")
		require.NoError(t, err)

		snapshot, err := fx.useCase.JoinGame(ctx, created.GameID, "bob")

		require.NoError(t, err)
		assert.Equal(t, "bob", snapshot.Players[1].Name)

		_, err = fx.useCase.JoinGame(ctx, created.GameID, "carol")
		require.ErrorIs(t, err, apperror.ErrGameFull)

		_, err = fx.useCase.JoinGame(ctx, created.GameID, "")
		require.ErrorIs(t, err, apperror.ErrInvalidInput)
	})

	t.Run("Joining a pvc game", func(t *testing.T) {
		fx := newFixture(entity.DefaultRules())
		created, err := fx.useCase.CreateGame(ctx, "pvc", "")
		require.NoError(t, err)

		_, err = fx.useCase.JoinGame(ctx, created.GameID, "bob")

		require.ErrorIs(t, err, apperror.ErrNotPvPGame)
	})

	t.Run("Start records the time once", func(t *testing.T) {
		fx := newFixture(entity.DefaultRules())
		created, err := fx.useCase.CreateGame(ctx, "pvc", "")
		require.NoError(t, err)

		snapshot, err := fx.useCase.StartGame(ctx, created.GameID)
		require.NoError(t, err)
		assert.Equal(t, created, snapshot)

		record, err := fx.games.GetGameByID(ctx, created.GameID)
		require.NoError(t, err)
		require.NotNil(t, record.Meta.StartedAt)
		startedAt := *record.Meta.StartedAt

		_, err = fx.useCase.StartGame(ctx, created.GameID)
		require.NoError(t, err)
		record, err = fx.games.GetGameByID(ctx, created.GameID)
		require.NoError(t, err)
		assert.True(t, startedAt.Equal(*record.Meta.StartedAt))

		_, err = fx.useCase.StartGame(ctx, "missing")
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameUseCase_DeleteGame(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(entity.DefaultRules())
	created, err := fx.useCase.CreateGame(ctx, "pvc", "")
	require.NoError(t, err)

	require.NoError(t, fx.useCase.DeleteGame(ctx, created.GameID))

	_, err = fx.useCase.GetGameState(ctx, created.GameID)
	require.ErrorIs(t, err, apperror.ErrGameNotFound)
	require.ErrorIs(t, fx.useCase.DeleteGame(ctx, created.GameID), apperror.ErrNotFound)
}

func TestGameUseCase_LocksAreReleased(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(entity.DefaultRules())
	useCase := fx.useCase.(*gameUseCase)
	lockCount := func() int {
		useCase.mu.Lock()
		defer useCase.mu.Unlock()

		return len(useCase.locks)
	}

	// Given: a pvp game
	created, err := useCase.CreateGame(ctx, "pvp", "")
	require.NoError(t, err)
	first := created.Players[0]

	// When: the lock is held and another mutation waits for it
	unlock := useCase.lock(created.GameID)
	done := make(chan error, 1)
	go func() {
		_, moveErr := useCase.MakeMove(ctx, created.GameID, first.ID, first.Pieces[0].ID, entity.Position{Row: 1, Col: 1})
		done <- moveErr
	}()

	// Then: one entry serves both callers
	assert.Eventually(t, func() bool {
		useCase.mu.Lock()
		defer useCase.mu.Unlock()

		return useCase.locks[created.GameID] != nil && useCase.locks[created.GameID].refs == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, lockCount())

	// And: once both are done nothing is left behind
	unlock()
	require.NoError(t, <-done)
	assert.Zero(t, lockCount())

	_, err = useCase.StartGame(ctx, created.GameID)
	require.NoError(t, err)
	assert.Zero(t, lockCount())
}

func TestGameUseCase_StorageFailure(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Create fails", func(t *testing.T) {
		// Given: a game service that can't reach storage
		games := &mockGameService{}
		games.On("CreateGame", mock.Anything, entity.ModePvP, "easy").Return(nil, errRedisDown).Once()
		useCase := NewGameUseCase(logger, games, service.NewBotService(logger, bot.Options{}))

		// When: a game is created
		snapshot, err := useCase.CreateGame(ctx, "pvp", "")

		// Then: the storage error comes through
		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, snapshot)
		games.AssertExpectations(t)
	})

	t.Run("Update after a move fails", func(t *testing.T) {
		human := entity.NewPlayer("human", entity.RoleHuman, "")
		second := entity.NewPlayer("second", entity.RoleHuman, "")
		for _, piece := range entity.NewStandardPieces(human.ID) {
			human.AddPiece(piece)
		}
		record := &entity.GameRecord{
			Game: entity.NewGame("g1", human, second, entity.DefaultRules()),
			Meta: entity.GameMeta{Mode: entity.ModePvP},
		}

		games := &mockGameService{}
		games.On("GetGameByID", mock.Anything, "g1").Return(record, nil).Once()
		games.On("UpdateGame", mock.Anything, record).Return(errRedisDown).Once()
		publisher := &recordingPublisher{}
		useCase := NewGameUseCase(logger, games, service.NewBotService(logger, bot.Options{}), WithPublisher(publisher))

		_, err := useCase.MakeMove(ctx, "g1", human.ID, human.Pieces[0].ID, entity.Position{Row: 0, Col: 0})

		require.ErrorIs(t, err, errRedisDown)
		assert.Empty(t, publisher.snapshots)
		games.AssertExpectations(t)
	})
}

func TestGameSnapshot_JSON(t *testing.T) {
	// Given: a game with the center taken
	human := entity.NewPlayer("h", entity.RoleHuman, "alice")
	computer := entity.NewPlayer("c", entity.RoleComputer, "")
	large := entity.Piece{ID: "p1", Size: entity.SizeLG, Owner: human.ID}
	human.AddPiece(large)
	human.AddPiece(entity.Piece{ID: "p2", Size: entity.SizeSM, Owner: human.ID})
	game := entity.NewGame("g1", human, computer, entity.DefaultRules())
	ok, err := game.MakeMove(entity.NewPlacement(human.ID, large, entity.Position{Row: 1, Col: 1}))
	require.NoError(t, err)
	require.True(t, ok)

	// When: its snapshot is encoded
	data, err := json.Marshal(NewGameSnapshot(game))
	require.NoError(t, err)

	// Then: the field names and shapes match the client contract
	assert.JSONEq(t, `{
		"gameId": "g1",
		"status": "in_progress",
		"currentPlayer": "c",
		"winner": null,
		"players": [
			{"id": "h", "type": "human", "name": "alice", "pieces": [{"id": "p2", "size": "SM"}]},
			{"id": "c", "type": "computer", "pieces": []}
		],
		"board": [
			[null, null, null],
			[null, {"ownerId": "h", "pieceId": "p1", "size": "LG"}, null],
			[null, null, null]
		]
	}`, string(data))
}

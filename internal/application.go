package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/gobblet-backend/internal/bot"
	"github.com/rocketscienceinc/gobblet-backend/internal/config"
	"github.com/rocketscienceinc/gobblet-backend/internal/entity"
	"github.com/rocketscienceinc/gobblet-backend/internal/repository"
	"github.com/rocketscienceinc/gobblet-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gobblet-backend/internal/service"
	"github.com/rocketscienceinc/gobblet-backend/internal/usecase"
	"github.com/rocketscienceinc/gobblet-backend/transport/rest"
	"github.com/rocketscienceinc/gobblet-backend/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	gameRepo, closeStorage, err := newGameRepository(ctx, conf)
	if err != nil {
		return err
	}
	defer closeStorage()

	hub := websocket.NewHub(logger)
	defer hub.Close()

	gameUseCase := NewGameUseCase(logger, conf, gameRepo, usecase.WithPublisher(hub))

	server := rest.New(conf.HTTPPort, rest.NewRouter(logger, gameUseCase, hub))

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort, "storage", conf.Storage)
		if httpErr := server.Start(); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}

	return nil
}

// NewGameUseCase builds the use case over gameRepo with the configured rules and bots.
func NewGameUseCase(logger *slog.Logger, conf *config.Config, gameRepo repository.GameRepository, opts ...usecase.Option) usecase.GameUseCase {
	rules := entity.Rules{DiscardFailedPiece: !conf.Rules.KeepFailedPiece}

	gameService := service.NewGameService(gameRepo, rules)
	botService := service.NewBotService(logger, bot.Options{HardDepth: conf.Bot.HardDepth})

	opts = append([]usecase.Option{usecase.WithDefaultDifficulty(bot.Difficulty(conf.Bot.DefaultDifficulty))}, opts...)

	return usecase.NewGameUseCase(logger, gameService, botService, opts...)
}

func newGameRepository(ctx context.Context, conf *config.Config) (repository.GameRepository, func(), error) {
	if conf.Storage != config.StorageRedis {
		return repository.NewMemoryGameRepository(), func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisClient, err := storage.NewRedisClient(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStorage := func() {
		if err := redisClient.Close(); err != nil {
			slog.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewGameRepository(redisClient, conf.Redis.TTL), closeStorage, nil
}

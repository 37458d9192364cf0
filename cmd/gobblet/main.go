package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/muesli/termenv"

	app "github.com/rocketscienceinc/gobblet-backend/internal"
	"github.com/rocketscienceinc/gobblet-backend/internal/config"
	"github.com/rocketscienceinc/gobblet-backend/internal/repository"
)

// main - plays one game against the computer in the terminal.
func main() {
	conf := config.MustLoadEnv()

	difficulty := flag.String("difficulty", conf.Bot.DefaultDifficulty, "bot difficulty: easy or hard")
	depth := flag.Int("depth", conf.Bot.HardDepth, "search depth of the hard bot in plies")
	verbose := flag.Bool("v", false, "log bot decisions to stderr")
	flag.Parse()

	conf.Bot.HardDepth = *depth

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	useCase := app.NewGameUseCase(logger, conf, repository.NewMemoryGameRepository())
	out := termenv.NewOutput(os.Stdout)

	if err := newSession(useCase, os.Stdin, out).run(ctx, *difficulty); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

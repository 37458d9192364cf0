package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
	"github.com/rocketscienceinc/gobblet-backend/internal/entity"
	"github.com/rocketscienceinc/gobblet-backend/internal/usecase"
)

var (
	errQuit           = errors.New("quit")
	errUnknownCommand = fmt.Errorf("%w: commands are place <SM|MD|LG> <row> <col>, move <row> <col> <row> <col>, quit", apperror.ErrInvalidInput)
)

type command struct {
	name string
	size entity.Size
	from entity.Position
	to   entity.Position
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, errUnknownCommand
	}

	switch fields[0] {
	case "quit", "q", "exit":
		return command{name: "quit"}, nil
	case "place", "p":
		if len(fields) != 4 {
			return command{}, errUnknownCommand
		}

		size, err := entity.ParseSize(strings.ToUpper(fields[1]))
		if err != nil {
			return command{}, err
		}

		to, err := parsePosition(fields[2], fields[3])
		if err != nil {
			return command{}, err
		}

		return command{name: "place", size: size, to: to}, nil
	case "move", "m":
		if len(fields) != 5 {
			return command{}, errUnknownCommand
		}

		from, err := parsePosition(fields[1], fields[2])
		if err != nil {
			return command{}, err
		}

		to, err := parsePosition(fields[3], fields[4])
		if err != nil {
			return command{}, err
		}

		return command{name: "move", from: from, to: to}, nil
	default:
		return command{}, errUnknownCommand
	}
}

func parsePosition(row, col string) (entity.Position, error) {
	r, errRow := strconv.Atoi(row)
	c, errCol := strconv.Atoi(col)
	if errRow != nil || errCol != nil {
		return entity.Position{}, fmt.Errorf("%w: %s %s", apperror.ErrCellOutOfRange, row, col)
	}

	pos := entity.Position{Row: r, Col: c}
	if !pos.Valid() {
		return entity.Position{}, fmt.Errorf("%w: %s", apperror.ErrCellOutOfRange, pos)
	}

	return pos, nil
}

type session struct {
	useCase usecase.GameUseCase
	in      *bufio.Scanner
	out     *termenv.Output
}

func newSession(useCase usecase.GameUseCase, in io.Reader, out *termenv.Output) *session {
	return &session{
		useCase: useCase,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

func (that *session) run(ctx context.Context, difficulty string) error {
	snapshot, err := that.useCase.CreateGame(ctx, string(entity.ModePvC), difficulty)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	human := snapshot.Players[0].ID

	for {
		that.render(snapshot, human)

		if snapshot.Status != entity.StatusInProgress {
			that.announce(snapshot, human)
			return nil
		}

		fmt.Fprint(that.out, "> ")
		if !that.in.Scan() {
			return that.in.Err()
		}

		next, err := that.play(ctx, snapshot, human, that.in.Text())
		if errors.Is(err, errQuit) {
			fmt.Fprintln(that.out, "bye")
			return nil
		}

		if err != nil {
			fmt.Fprintln(that.out, that.out.String(err.Error()).Foreground(that.out.Color("1")))
			// a rejected placement may still have cost a piece
			if next, err = that.useCase.GetGameState(ctx, snapshot.GameID); err != nil {
				return fmt.Errorf("failed to reload game: %w", err)
			}
		}

		snapshot = next
	}
}

func (that *session) play(ctx context.Context, snapshot *usecase.GameSnapshot, human, line string) (*usecase.GameSnapshot, error) {
	cmd, err := parseCommand(line)
	if err != nil {
		return nil, err
	}

	var pieceID string

	switch cmd.name {
	case "quit":
		return nil, errQuit
	case "place":
		for _, piece := range snapshot.Players[0].Pieces {
			if piece.Size == cmd.size {
				pieceID = piece.ID
				break
			}
		}
		if pieceID == "" {
			return nil, fmt.Errorf("%w: no %s left", apperror.ErrPieceNotFound, cmd.size)
		}
	case "move":
		top := snapshot.Board[cmd.from.Row][cmd.from.Col]
		if top == nil {
			return nil, fmt.Errorf("%w: %s is empty", apperror.ErrPieceNotFound, cmd.from)
		}
		pieceID = top.PieceID
	}

	next, err := that.useCase.MakeMove(ctx, snapshot.GameID, human, pieceID, cmd.to)
	if err != nil {
		return nil, err
	}

	return next, nil
}

func (that *session) render(snapshot *usecase.GameSnapshot, human string) {
	fmt.Fprintln(that.out)
	fmt.Fprintln(that.out, "    0   1   2")

	for r, row := range snapshot.Board {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, that.cell(cell, human))
		}
		fmt.Fprintf(that.out, "%d  %s\n", r, strings.Join(cells, "  "))
	}

	fmt.Fprintln(that.out)
	for _, player := range snapshot.Players {
		sizes := make([]string, 0, len(player.Pieces))
		for _, piece := range player.Pieces {
			sizes = append(sizes, piece.Size.String())
		}

		label := "you"
		if player.ID != human {
			label = "bot"
		}
		fmt.Fprintf(that.out, "%s: %s\n", that.colour(label, player.ID == human), strings.Join(sizes, " "))
	}
}

func (that *session) cell(cell *usecase.CellView, human string) string {
	if cell == nil {
		return " ."
	}

	return that.colour(cell.Size.String(), cell.OwnerID == human)
}

func (that *session) colour(text string, mine bool) string {
	colour := that.out.Color("4")
	if !mine {
		colour = that.out.Color("3")
	}

	return that.out.String(text).Foreground(colour).Bold().String()
}

func (that *session) announce(snapshot *usecase.GameSnapshot, human string) {
	switch {
	case snapshot.Winner == nil:
		fmt.Fprintln(that.out, "game over")
	case snapshot.Winner.ID == human:
		fmt.Fprintln(that.out, that.out.String("you win").Foreground(that.out.Color("2")).Bold())
	default:
		fmt.Fprintln(that.out, that.out.String("the bot wins").Foreground(that.out.Color("1")).Bold())
	}
}

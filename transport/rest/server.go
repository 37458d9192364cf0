package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rocketscienceinc/gobblet-backend/internal/usecase"
)

// GameStreamer serves live snapshots of a game over an upgraded connection.
type GameStreamer interface {
	ServeGame(w http.ResponseWriter, r *http.Request, gameID string, initial *usecase.GameSnapshot)
}

// NewRouter wires the game API. streamer may be nil, then /ws is not routed.
func NewRouter(logger *slog.Logger, useCase usecase.GameUseCase, streamer GameStreamer) http.Handler {
	h := &gameHandlers{
		logger:   logger.With("component", "rest"),
		useCase:  useCase,
		streamer: streamer,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ping", NewPingHandler().PingHandler)
	r.Post("/games", h.createGame)
	r.Route("/games/{id}", func(r chi.Router) {
		r.Get("/", h.getGame)
		r.Delete("/", h.deleteGame)
		r.Post("/join", h.joinGame)
		r.Post("/start", h.startGame)
		r.Post("/moves", h.makeMove)
		r.Get("/moves", h.getMoves)
		r.Get("/pieces", h.getPieces)
		if streamer != nil {
			r.Get("/ws", h.streamGame)
		}
	})

	return r
}

type Server struct {
	srv *http.Server
}

func New(port string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
	}
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (that *Server) Start() error {
	if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

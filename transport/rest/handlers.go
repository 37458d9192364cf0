package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
	"github.com/rocketscienceinc/gobblet-backend/internal/entity"
	"github.com/rocketscienceinc/gobblet-backend/internal/usecase"
)

const maxBodySize = 1 << 16

type createGameRequest struct {
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty,omitempty"`
}

type joinGameRequest struct {
	PlayerName string `json:"playerName"`
}

type makeMoveRequest struct {
	PlayerID string           `json:"playerId"`
	PieceID  string           `json:"pieceId"`
	To       *entity.Position `json:"to"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type gameHandlers struct {
	logger   *slog.Logger
	useCase  usecase.GameUseCase
	streamer GameStreamer
}

func (that *gameHandlers) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeBody(w, r, &req); err != nil {
		that.writeError(w, r, err)
		return
	}

	if req.Mode == "" {
		that.writeError(w, r, fmt.Errorf("%w: mode is required", apperror.ErrInvalidInput))
		return
	}

	snapshot, err := that.useCase.CreateGame(r.Context(), req.Mode, req.Difficulty)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/games/"+snapshot.GameID)
	writeJSON(w, http.StatusCreated, snapshot)
}

func (that *gameHandlers) getGame(w http.ResponseWriter, r *http.Request) {
	snapshot, err := that.useCase.GetGameState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (that *gameHandlers) deleteGame(w http.ResponseWriter, r *http.Request) {
	if err := that.useCase.DeleteGame(r.Context(), chi.URLParam(r, "id")); err != nil {
		that.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *gameHandlers) joinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if err := decodeBody(w, r, &req); err != nil {
		that.writeError(w, r, err)
		return
	}

	snapshot, err := that.useCase.JoinGame(r.Context(), chi.URLParam(r, "id"), req.PlayerName)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (that *gameHandlers) startGame(w http.ResponseWriter, r *http.Request) {
	snapshot, err := that.useCase.StartGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (that *gameHandlers) makeMove(w http.ResponseWriter, r *http.Request) {
	var req makeMoveRequest
	if err := decodeBody(w, r, &req); err != nil {
		that.writeError(w, r, err)
		return
	}

	switch {
	case req.PlayerID == "":
		that.writeError(w, r, fmt.Errorf("%w: playerId is required", apperror.ErrInvalidInput))
		return
	case req.PieceID == "":
		that.writeError(w, r, fmt.Errorf("%w: pieceId is required", apperror.ErrInvalidInput))
		return
	case req.To == nil:
		that.writeError(w, r, fmt.Errorf("%w: to is required", apperror.ErrInvalidInput))
		return
	}

	snapshot, err := that.useCase.MakeMove(r.Context(), chi.URLParam(r, "id"), req.PlayerID, req.PieceID, *req.To)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (that *gameHandlers) getMoves(w http.ResponseWriter, r *http.Request) {
	moves, err := that.useCase.GetMoveHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, moves)
}

func (that *gameHandlers) getPieces(w http.ResponseWriter, r *http.Request) {
	pieces, err := that.useCase.GetPieces(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pieces)
}

func (that *gameHandlers) streamGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	snapshot, err := that.useCase.GetGameState(r.Context(), gameID)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.streamer.ServeGame(w, r, gameID, snapshot)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed body: %w", apperror.ErrInvalidInput, err)
	}

	return nil
}

// statusCode maps an error kind to the HTTP status.
func statusCode(err error) int {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrInvalidMove), errors.Is(err, apperror.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNoAvailableMoves):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (that *gameHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = http.StatusText(status)
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-store/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-store/internal/entity"
)

type StateResponse struct {
	Game  entity.DerivedGame `json:"game"`
	Stats entity.Stats       `json:"stats"`
}

type MoveRequest struct {
	SquareID *int `json:"squareId"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (that *Server) getState(w http.ResponseWriter, r *http.Request) {
	that.writeState(w, r, http.StatusOK)
}

func (that *Server) postMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.SquareID == nil {
		that.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "squareId is required"})
		return
	}

	if err := that.store.PlayerMove(r.Context(), *req.SquareID); err != nil {
		that.writeError(w, "PlayerMove", err)
		return
	}

	that.writeState(w, r, http.StatusOK)
}

func (that *Server) postReset(w http.ResponseWriter, r *http.Request) {
	if err := that.store.Reset(r.Context()); err != nil {
		that.writeError(w, "Reset", err)
		return
	}

	that.writeState(w, r, http.StatusOK)
}

func (that *Server) postNewRound(w http.ResponseWriter, r *http.Request) {
	if err := that.store.NewRound(r.Context()); err != nil {
		that.writeError(w, "NewRound", err)
		return
	}

	that.writeState(w, r, http.StatusOK)
}

func (that *Server) writeState(w http.ResponseWriter, r *http.Request, status int) {
	game, err := that.store.Game(r.Context())
	if err != nil {
		that.writeError(w, "Game", err)
		return
	}

	stats, err := that.store.Stats(r.Context())
	if err != nil {
		that.writeError(w, "Stats", err)
		return
	}

	that.writeJSON(w, status, StateResponse{Game: game, Stats: stats})
}

func (that *Server) writeError(w http.ResponseWriter, method string, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrInvalidCell), errors.Is(err, apperror.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrCellOccupied), errors.Is(err, apperror.ErrGameFinished):
		status = http.StatusConflict
	default:
		that.logger.Error("request failed", "method", method, "error", err)
	}

	that.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

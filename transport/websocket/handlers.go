package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-store/internal/apperror"
)

func (that *Server) handleState(ctx context.Context, c *client, msg *Message) error {
	game, err := that.store.Game(ctx)
	if err != nil {
		that.sendError(c, msg.Action, "failed to load the game")
		return fmt.Errorf("failed to derive game: %w", err)
	}

	stats, err := that.store.Stats(ctx)
	if err != nil {
		that.sendError(c, msg.Action, "failed to load the stats")
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	return that.sendMessage(c, actionState, statePayload(game, stats))
}

// sendInitialState - queues the first snapshot for a new client, unless a Render already
// reached it. The client must be registered before the state is read.
func (that *Server) sendInitialState(ctx context.Context, c *client) error {
	game, err := that.store.Game(ctx)
	if err != nil {
		that.sendError(c, actionState, "failed to load the game")
		return fmt.Errorf("failed to derive game: %w", err)
	}

	stats, err := that.store.Stats(ctx)
	if err != nil {
		that.sendError(c, actionState, "failed to load the stats")
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	message, err := encodeMessage(actionState, statePayload(game, stats))
	if err != nil {
		return err
	}

	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	if _, ok := that.clients[c]; ok && !c.rendered {
		that.enqueue(c, message)
	}

	return nil
}

func (that *Server) handleTurn(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleTurn")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		that.sendError(c, msg.Action, "malformed payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.SquareID == nil {
		log.Error("squareId is missing in payload")
		that.sendError(c, msg.Action, "squareId is required")
		return nil
	}

	err := that.store.PlayerMove(ctx, *payloadReq.SquareID)
	if errors.Is(err, apperror.ErrCellOccupied) || errors.Is(err, apperror.ErrInvalidCell) || errors.Is(err, apperror.ErrGameFinished) {
		that.sendError(c, msg.Action, err.Error())
		return nil
	}

	if err != nil {
		that.sendError(c, msg.Action, "failed to make a move")
		return fmt.Errorf("failed to make move: %w", err)
	}

	log.Debug("player made a move", "squareId", *payloadReq.SquareID)

	return nil
}

func (that *Server) handleReset(ctx context.Context, c *client, msg *Message) error {
	if err := that.store.Reset(ctx); err != nil {
		that.sendError(c, msg.Action, "failed to reset the game")
		return fmt.Errorf("failed to reset: %w", err)
	}

	return nil
}

func (that *Server) handleNewRound(ctx context.Context, c *client, msg *Message) error {
	if err := that.store.NewRound(ctx); err != nil {
		that.sendError(c, msg.Action, "failed to start a new round")
		return fmt.Errorf("failed to start new round: %w", err)
	}

	return nil
}

func (that *Server) sendMessage(c *client, action string, payload Payload) error {
	message, err := encodeMessage(action, payload)
	if err != nil {
		return err
	}

	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	if _, ok := that.clients[c]; ok {
		that.enqueue(c, message)
	}

	return nil
}

func (that *Server) sendError(c *client, action, errorMsg string) {
	if err := that.sendMessage(c, actionError, Payload{Action: action, Error: errorMsg}); err != nil {
		that.logger.Error("failed to send error response", "error", err)
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/playgrid/tictactoe-engine/internal/entity"
)

// Payload carries both request fields and the session state pushed back to
// the client.
type Payload struct {
	Session *entity.Session `json:"session,omitempty"`

	ID    string `json:"id,omitempty"`
	Mode  string `json:"mode,omitempty"`
	Mark  string `json:"mark,omitempty"`
	Cell  *int   `json:"cell,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleConnect greets a client. A payload carrying a session id resumes that
// session and re-arms a pending bot push, so a page reload picks up where the
// game left off.
func (that *Server) handleConnect(ctx context.Context, msg *Message, c *conn) error {
	log := that.logger.With("method", "handleConnect")

	var payloadReq Payload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	if payloadReq.ID == "" {
		log.Info("client connected")
		return that.sendMessage(c, msg.Action, Payload{})
	}

	session, err := that.gamePlay.GetSession(ctx, payloadReq.ID)
	if err != nil {
		log.Error("failed to resume session", "sessionID", payloadReq.ID, "error", err)
		return that.sendErrorResponse(c, msg.Action, "failed to resume the game")
	}

	log.Info("client resumed session", "sessionID", session.ID)

	if err = that.sendMessage(c, msg.Action, Payload{Session: session}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	that.pushBotTurnIfPending(ctx, c, session)

	return nil
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, c *conn) error {
	log := that.logger.With("method", "handleNewGame")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	session, err := that.gamePlay.NewSession(ctx, payloadReq.Mode, payloadReq.Mark)
	if err != nil {
		log.Error("failed to create session", "error", err)
		return that.sendErrorResponse(c, msg.Action, "failed to create a new game")
	}

	log.Info("session created", "sessionID", session.ID, "mode", session.Mode)

	if err = that.sendMessage(c, msg.Action, Payload{Session: session}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	that.pushBotTurnIfPending(ctx, c, session)

	return nil
}

func (that *Server) handleGameState(ctx context.Context, msg *Message, c *conn) error {
	log := that.logger.With("method", "handleGameState")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	session, err := that.gamePlay.GetSession(ctx, payloadReq.ID)
	if err != nil {
		log.Error("failed to get session", "sessionID", payloadReq.ID, "error", err)
		return that.sendErrorResponse(c, msg.Action, "failed to get the game")
	}

	return that.sendMessage(c, msg.Action, Payload{Session: session})
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, c *conn) error {
	log := that.logger.With("method", "handleGameTurn")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Cell == nil {
		log.Error("cell is missing in payload")
		return that.sendErrorResponse(c, msg.Action, "cell is required")
	}

	session, err := that.gamePlay.MakeTurn(ctx, payloadReq.ID, *payloadReq.Cell)
	if err != nil {
		log.Error("failed to make turn", "sessionID", payloadReq.ID, "error", err)
		return that.sendErrorResponse(c, msg.Action, "failed to make turn")
	}

	if err = that.sendMessage(c, msg.Action, Payload{Session: session}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	that.pushBotTurnIfPending(ctx, c, session)

	return nil
}

func (that *Server) handleGameRestart(ctx context.Context, msg *Message, c *conn) error {
	log := that.logger.With("method", "handleGameRestart")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	session, err := that.gamePlay.Restart(ctx, payloadReq.ID)
	if err != nil {
		log.Error("failed to restart game", "sessionID", payloadReq.ID, "error", err)
		return that.sendErrorResponse(c, msg.Action, "failed to restart the game")
	}

	if err = that.sendMessage(c, msg.Action, Payload{Session: session}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	that.pushBotTurnIfPending(ctx, c, session)

	return nil
}

func (that *Server) handleGameMode(ctx context.Context, msg *Message, c *conn) error {
	log := that.logger.With("method", "handleGameMode")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	session, err := that.gamePlay.SetMode(ctx, payloadReq.ID, payloadReq.Mode)
	if err != nil {
		log.Error("failed to set mode", "sessionID", payloadReq.ID, "error", err)
		return that.sendErrorResponse(c, msg.Action, "failed to change the game mode")
	}

	if err = that.sendMessage(c, msg.Action, Payload{Session: session}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	that.pushBotTurnIfPending(ctx, c, session)

	return nil
}

func (that *Server) handleGameLeave(ctx context.Context, msg *Message, c *conn) error {
	log := that.logger.With("method", "handleGameLeave")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := that.gamePlay.DeleteSession(ctx, payloadReq.ID); err != nil {
		log.Error("failed to delete session", "sessionID", payloadReq.ID, "error", err)
		return that.sendErrorResponse(c, msg.Action, "failed to leave the game")
	}

	log.Info("session deleted", "sessionID", payloadReq.ID)

	return that.sendMessage(c, msg.Action, Payload{ID: payloadReq.ID})
}

// pushBotTurnIfPending schedules the pending bot move after the configured
// think-delay and pushes the updated state to the client. The service
// re-validates the pending flag when the delay fires, so a turn scheduled
// before a restart or mode switch is dropped rather than applied.
func (that *Server) pushBotTurnIfPending(ctx context.Context, c *conn, session *entity.Session) {
	if !session.BotTurnPending {
		return
	}

	log := that.logger.With("method", "pushBotTurnIfPending", "sessionID", session.ID)

	time.AfterFunc(that.botDelay, func() {
		updated, err := that.gamePlay.PlayBotTurn(ctx, session.ID)
		if err != nil {
			log.Error("bot failed to make turn", "error", err)
			return
		}

		if err = that.sendMessage(c, "game:turn", Payload{Session: updated}); err != nil {
			log.Error("failed to push bot turn", "error", err)
		}
	})
}

func (that *Server) sendMessage(c *conn, action string, payload Payload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	responseBytes, err := json.Marshal(Message{
		Action:  action,
		Payload: payloadBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err = c.writeMessage(responseBytes); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *Server) sendErrorResponse(c *conn, action, message string) error {
	return that.sendMessage(c, action, Payload{Error: message})
}

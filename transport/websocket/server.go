package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/playgrid/tictactoe-engine/internal/entity"
	"github.com/playgrid/tictactoe-engine/internal/pkg"
)

type gamePlay interface {
	NewSession(ctx context.Context, mode, humanMark string) (*entity.Session, error)
	GetSession(ctx context.Context, id string) (*entity.Session, error)

	MakeTurn(ctx context.Context, id string, cell int) (*entity.Session, error)
	PlayBotTurn(ctx context.Context, id string) (*entity.Session, error)

	Restart(ctx context.Context, id string) (*entity.Session, error)
	SetMode(ctx context.Context, id, mode string) (*entity.Session, error)

	DeleteSession(ctx context.Context, id string) error
}

type Server struct {
	logger   *slog.Logger
	gamePlay gamePlay
	botDelay time.Duration

	handlers map[string]func(context.Context, *Message, *conn) error
}

// New creates a WebSocket server. botDelay is purely presentational: it
// postpones the bot's reply so the move does not land in the same instant as
// the player's.
func New(logger *slog.Logger, gamePlay gamePlay, botDelay time.Duration) *Server {
	server := &Server{
		logger:   logger,
		gamePlay: gamePlay,
		botDelay: botDelay,

		handlers: make(map[string]func(context.Context, *Message, *conn) error),
	}

	server.handlers["connect"] = server.handleConnect
	server.handlers["game:new"] = server.handleNewGame
	server.handlers["game:state"] = server.handleGameState
	server.handlers["game:turn"] = server.handleGameTurn
	server.handlers["game:restart"] = server.handleGameRestart
	server.handlers["game:mode"] = server.handleGameMode
	server.handlers["game:leave"] = server.handleGameLeave

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	key := req.Header.Get("Sec-WebSocket-Key")

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", pkg.GenerateAcceptKey(key))
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking")
		return
	}

	netConn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer netConn.Close()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, &conn{bufrw: bufrw}); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client until the connection
// drops.
func (that *Server) handleMessages(ctx context.Context, c *conn) error {
	log := that.logger.With("method", "handleMessages")

	for {
		reqBody, err := c.readMessage()
		if errors.Is(err, errClientClosed) {
			log.Info("client closed the connection")
			return nil
		}

		if err != nil {
			log.Error("error reading message", "error", err)
			return err
		}

		message, err := parseMessage(reqBody)
		if err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, message, c); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

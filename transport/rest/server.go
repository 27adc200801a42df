package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playgrid/tictactoe-engine/internal/entity"
)

type gamePlay interface {
	GetSession(ctx context.Context, id string) (*entity.Session, error)
}

type Server struct {
	logger   *slog.Logger
	gamePlay gamePlay
}

func New(logger *slog.Logger, gamePlay gamePlay) *Server {
	return &Server{
		logger:   logger,
		gamePlay: gamePlay,
	}
}

// Start - starts the HTTP server with the read-only endpoints.
func (that *Server) Start(port string) error {
	router := chi.NewRouter()
	router.Get("/ping", that.pingHandler)
	router.Get("/sessions/{sessionID}", that.sessionHandler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/playgrid/tictactoe-engine/internal/apperror"
	"github.com/playgrid/tictactoe-engine/internal/engine"
	"github.com/playgrid/tictactoe-engine/internal/entity"
	"github.com/playgrid/tictactoe-engine/internal/pkg"
)

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

// GamePlayService drives game sessions. Every operation rehydrates a
// GameController from the stored session, applies the operation and stores
// the new snapshot. Illegal moves never surface as errors: the caller gets
// the unchanged session back and observes the rejection there.
type GamePlayService interface {
	NewSession(ctx context.Context, mode, humanMark string) (*entity.Session, error)
	GetSession(ctx context.Context, id string) (*entity.Session, error)

	MakeTurn(ctx context.Context, id string, cell int) (*entity.Session, error)
	PlayBotTurn(ctx context.Context, id string) (*entity.Session, error)

	Restart(ctx context.Context, id string) (*entity.Session, error)
	SetMode(ctx context.Context, id, mode string) (*entity.Session, error)

	DeleteSession(ctx context.Context, id string) error
}

type gamePlayService struct {
	logger *slog.Logger

	sessionRepo sessionRepo
	selector    engine.MoveSelector
	rng         *rand.Rand

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewGamePlayService(logger *slog.Logger, sessionRepo sessionRepo, selector engine.MoveSelector, rng *rand.Rand) GamePlayService {
	return &gamePlayService{
		logger:      logger,
		sessionRepo: sessionRepo,
		selector:    selector,
		rng:         rng,
		locks:       make(map[string]*sync.Mutex),
	}
}

// lockSession serializes operations on one session. Every operation is a
// read-modify-write against the repository, so a delayed bot turn firing
// concurrently with a client command must not interleave with it.
func (that *gamePlayService) lockSession(id string) func() {
	that.locksMu.Lock()
	lock, ok := that.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		that.locks[id] = lock
	}
	that.locksMu.Unlock()

	lock.Lock()

	return lock.Unlock
}

func (that *gamePlayService) NewSession(ctx context.Context, mode, humanMark string) (*entity.Session, error) {
	if mode != engine.ModePlayerVsPlayer && mode != engine.ModePlayerVsBot {
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownMode, mode)
	}

	if humanMark != engine.EmptyCell && humanMark != engine.MarkX && humanMark != engine.MarkO {
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownMark, humanMark)
	}

	controller := engine.NewGame(mode, humanMark, that.selector, that.rng)
	session := entity.NewSession(pkg.GenerateSessionID(), pkg.GenerateJoinCode(), controller.Snapshot())

	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

func (that *gamePlayService) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	return session, nil
}

func (that *gamePlayService) MakeTurn(ctx context.Context, id string, cell int) (*entity.Session, error) {
	log := that.logger.With("method", "MakeTurn", "sessionID", id)

	defer that.lockSession(id)()

	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	controller, err := that.restoreController(session)
	if err != nil {
		return nil, err
	}

	if !controller.ApplyMove(cell) {
		log.Debug("move rejected", "cell", cell)
		return session, nil
	}

	session.ApplySnapshot(controller.Snapshot())
	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return session, nil
}

// PlayBotTurn runs the pending bot move for a session. A session whose bot
// turn is no longer pending, typically because a delayed invocation fired
// after a restart or mode switch, is returned unchanged.
func (that *gamePlayService) PlayBotTurn(ctx context.Context, id string) (*entity.Session, error) {
	log := that.logger.With("method", "PlayBotTurn", "sessionID", id)

	defer that.lockSession(id)()

	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	controller, err := that.restoreController(session)
	if err != nil {
		return nil, err
	}

	if err = controller.PlayBotTurn(); err != nil {
		if errors.Is(err, engine.ErrNoPendingBotTurn) || errors.Is(err, engine.ErrStaleBotMove) {
			log.Debug("bot turn discarded", "reason", err)
			return session, nil
		}

		return nil, fmt.Errorf("bot failed to make turn: %w", err)
	}

	session.ApplySnapshot(controller.Snapshot())
	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return session, nil
}

func (that *gamePlayService) Restart(ctx context.Context, id string) (*entity.Session, error) {
	defer that.lockSession(id)()

	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	controller, err := that.restoreController(session)
	if err != nil {
		return nil, err
	}

	controller.Restart()

	session.ApplySnapshot(controller.Snapshot())
	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return session, nil
}

func (that *gamePlayService) SetMode(ctx context.Context, id, mode string) (*entity.Session, error) {
	if mode != engine.ModePlayerVsPlayer && mode != engine.ModePlayerVsBot {
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownMode, mode)
	}

	defer that.lockSession(id)()

	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	controller, err := that.restoreController(session)
	if err != nil {
		return nil, err
	}

	controller.SetMode(mode)

	session.ApplySnapshot(controller.Snapshot())
	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return session, nil
}

// restoreController rehydrates the engine state for a stored session. The
// board is re-validated on the way in: storage is outside the engine's trust
// boundary, so a corrupted blob must not reach the rules.
func (that *gamePlayService) restoreController(session *entity.Session) (*engine.GameController, error) {
	if _, err := engine.ParseBoard(session.Board[:]); err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", session.ID, err)
	}

	return engine.Restore(session.Snapshot(), that.selector), nil
}

func (that *gamePlayService) DeleteSession(ctx context.Context, id string) error {
	defer that.lockSession(id)()

	if err := that.sessionRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	that.locksMu.Lock()
	delete(that.locks, id)
	that.locksMu.Unlock()

	return nil
}

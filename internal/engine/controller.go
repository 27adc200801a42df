package engine

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrNoPendingBotTurn = errors.New("no bot turn is pending")
	ErrNoSelector       = errors.New("no move selector configured")
	ErrStaleBotMove     = errors.New("stale bot move discarded")
)

// MoveSelector picks the bot's move for the given board. Implementations get
// a read-only copy of the board and must not hold on to it.
type MoveSelector interface {
	SelectMove(board Board, botMark, opponentMark string) (int, error)
}

// GameController owns the authoritative state of one game: the board, the
// active mark and the mode. All mutation goes through ApplyMove, PlayBotTurn,
// Restart and SetMode; illegal input never changes state.
type GameController struct {
	board      Board
	activeMark string
	mode       string
	humanMark  string
	botMark    string
	status     string
	winner     string
	winLine    [3]int
	hasWinLine bool
	botPending bool

	selector MoveSelector
}

// Snapshot is the read model handed to callers. WinningLine is set only when
// the game is won.
type Snapshot struct {
	Board          Board
	ActiveMark     string
	Status         string
	Winner         string
	WinningLine    *[3]int
	Mode           string
	HumanMark      string
	BotMark        string
	BotTurnPending bool
}

// NewGame creates a controller in the initial Ongoing state with X to move.
// An empty humanMark requests a random side. The mark assignment is fixed for
// the lifetime of the controller; Restart and SetMode never reassign it.
func NewGame(mode, humanMark string, selector MoveSelector, rng *rand.Rand) *GameController {
	if mode != ModePlayerVsBot {
		mode = ModePlayerVsPlayer
	}

	if humanMark != MarkX && humanMark != MarkO {
		humanMark = randomMark(rng)
	}

	that := &GameController{
		mode:      mode,
		humanMark: humanMark,
		botMark:   ToggleMark(humanMark),
		selector:  selector,
	}
	that.Restart()

	return that
}

// Restore rebuilds a controller from a stored snapshot.
func Restore(snap Snapshot, selector MoveSelector) *GameController {
	that := &GameController{
		board:      snap.Board,
		activeMark: snap.ActiveMark,
		mode:       snap.Mode,
		humanMark:  snap.HumanMark,
		botMark:    snap.BotMark,
		status:     snap.Status,
		winner:     snap.Winner,
		botPending: snap.BotTurnPending,
		selector:   selector,
	}

	if snap.WinningLine != nil {
		that.winLine = *snap.WinningLine
		that.hasWinLine = true
	}

	return that
}

// ApplyMove places the active mark into the given cell and reports whether
// state changed. The move is silently rejected when the cell is occupied or
// out of range, the game is over, or it is the bot's turn in bot mode.
func (that *GameController) ApplyMove(cell int) bool {
	if that.status != StatusOngoing {
		return false
	}

	if cell < 0 || cell >= len(that.board) {
		return false
	}

	if that.board[cell] != EmptyCell {
		return false
	}

	if that.mode == ModePlayerVsBot && that.activeMark == that.botMark {
		return false
	}

	that.place(cell)

	return true
}

// PlayBotTurn synchronously asks the selector for a move and applies it. The
// pending flag is re-validated on entry, so a delayed invocation firing after
// a restart or mode switch is a no-op reported as ErrNoPendingBotTurn. The
// board handed to the selector is compared against current state before the
// result is applied; a mismatch means the result is stale and is discarded.
func (that *GameController) PlayBotTurn() error {
	if !that.botPending || that.status != StatusOngoing {
		return ErrNoPendingBotTurn
	}

	if that.selector == nil {
		return ErrNoSelector
	}

	snapshot := that.board

	cell, err := that.selector.SelectMove(snapshot, that.botMark, that.humanMark)
	if err != nil {
		return fmt.Errorf("failed to select move: %w", err)
	}

	if that.board != snapshot {
		return ErrStaleBotMove
	}

	if cell < 0 || cell >= len(that.board) || that.board[cell] != EmptyCell {
		return fmt.Errorf("%w: selector returned cell %d", ErrStaleBotMove, cell)
	}

	that.place(cell)

	return nil
}

// Restart resets to an empty board with X to move, keeping mode and marks.
func (that *GameController) Restart() {
	that.board = Board{}
	that.activeMark = MarkX
	that.status = StatusOngoing
	that.winner = EmptyCell
	that.winLine = [3]int{}
	that.hasWinLine = false
	that.botPending = that.mode == ModePlayerVsBot && that.botMark == MarkX
}

// SetMode switches between player-vs-player and player-vs-bot. A mode switch
// always restarts the board; there is no mid-game mode change. Unknown modes
// are ignored.
func (that *GameController) SetMode(mode string) bool {
	if mode != ModePlayerVsPlayer && mode != ModePlayerVsBot {
		return false
	}

	that.mode = mode
	that.Restart()

	return true
}

func (that *GameController) Snapshot() Snapshot {
	snap := Snapshot{
		Board:          that.board,
		ActiveMark:     that.activeMark,
		Status:         that.status,
		Winner:         that.winner,
		Mode:           that.mode,
		HumanMark:      that.humanMark,
		BotMark:        that.botMark,
		BotTurnPending: that.botPending,
	}

	if that.hasWinLine {
		line := that.winLine
		snap.WinningLine = &line
	}

	return snap
}

// place applies a pre-validated move and re-evaluates the terminal state.
func (that *GameController) place(cell int) {
	that.board[cell] = that.activeMark

	winner, line, won := DetectWinner(that.board)

	switch {
	case won:
		that.status = StatusWon
		that.winner = winner
		that.winLine = line
		that.hasWinLine = true
		that.activeMark = EmptyCell
		that.botPending = false
	case IsDraw(that.board, winner):
		that.status = StatusDrawn
		that.winner = EmptyCell
		that.activeMark = EmptyCell
		that.botPending = false
	default:
		that.activeMark = ToggleMark(that.activeMark)
		that.botPending = that.mode == ModePlayerVsBot && that.activeMark == that.botMark
	}
}

func randomMark(rng *rand.Rand) string {
	var coin int
	if rng != nil {
		coin = rng.Intn(2)
	} else {
		coin = rand.Intn(2) //nolint: gosec // mark assignment needs no crypto rand
	}

	if coin == 0 {
		return MarkX
	}
	return MarkO
}

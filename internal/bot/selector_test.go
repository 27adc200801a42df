package bot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playgrid/tictactoe-engine/internal/apperror"
	"github.com/playgrid/tictactoe-engine/internal/engine"
)

const (
	markX = engine.MarkX
	markO = engine.MarkO
)

func seededSelector(seed int64) *Selector {
	return NewSelector(rand.New(rand.NewSource(seed))) //nolint: gosec // fixed seed for reproducible openings
}

func TestSelector_OpeningHeuristic(t *testing.T) {
	t.Run("Takes the center when it is empty", func(t *testing.T) {
		// Given: the human opened in a corner
		board := engine.Board{markX, "", "", "", "", "", "", "", ""}

		// When: the bot picks its reply with 8 cells empty
		cell, err := seededSelector(1).SelectMove(board, markO, markX)

		// Then: the center must be taken
		require.NoError(t, err)
		assert.Equal(t, 4, cell)
	})

	t.Run("Falls back to a corner when the center is taken", func(t *testing.T) {
		// Given: the human opened in the center
		board := engine.Board{"", "", "", "", markX, "", "", "", ""}

		// When: the bot picks its reply
		cell, err := seededSelector(1).SelectMove(board, markO, markX)

		// Then: the reply is one of the four corners
		require.NoError(t, err)
		assert.Contains(t, []int{0, 2, 6, 8}, cell)
	})

	t.Run("Same seed gives the same opening", func(t *testing.T) {
		// Given: two selectors sharing a seed
		board := engine.Board{"", "", "", "", markX, "", "", "", ""}

		first, err := seededSelector(42).SelectMove(board, markO, markX)
		require.NoError(t, err)

		second, err := seededSelector(42).SelectMove(board, markO, markX)
		require.NoError(t, err)

		// Then: they pick the same cell
		assert.Equal(t, first, second)
	})
}

func TestSelector_Minimax(t *testing.T) {
	t.Run("Takes an immediate win over a block", func(t *testing.T) {
		// Given: O can complete the middle row while X threatens the top row
		board := engine.Board{markX, markX, "", markO, markO, "", "", "", ""}

		// When: the bot searches with 5 cells empty
		cell, err := seededSelector(1).SelectMove(board, markO, markX)

		// Then: winning at 5 beats blocking at 2
		require.NoError(t, err)
		assert.Equal(t, 5, cell)
	})

	t.Run("Blocks the opponent's completing move", func(t *testing.T) {
		// Given: X threatens the top row and O has no win of its own
		board := engine.Board{markX, markX, "", "", markO, "", "", markO, markX}

		// When: the bot searches with 4 cells empty
		cell, err := seededSelector(1).SelectMove(board, markO, markX)

		// Then: the threat at cell 2 must be blocked
		require.NoError(t, err)
		assert.Equal(t, 2, cell)
	})

	t.Run("Search result is deterministic", func(t *testing.T) {
		// Given: a mid-game board inside the search window
		board := engine.Board{markX, "", markO, "", markX, "", "", "", markO}

		first, err := seededSelector(3).SelectMove(board, markX, markO)
		require.NoError(t, err)

		second, err := seededSelector(7).SelectMove(board, markX, markO)
		require.NoError(t, err)

		// Then: the seed plays no role once minimax is active
		assert.Equal(t, first, second)
	})
}

func TestSelector_NoLegalMove(t *testing.T) {
	t.Run("Full board", func(t *testing.T) {
		// Given: a drawn, fully occupied board
		board := engine.Board{markX, markO, markX, markO, markX, markO, markO, markX, markO}

		// When: the bot is asked for a move anyway
		_, err := seededSelector(1).SelectMove(board, markO, markX)

		// Then: an ErrNoLegalMove error must be returned
		require.ErrorIs(t, err, apperror.ErrNoLegalMove)
	})

	t.Run("Already decided board", func(t *testing.T) {
		// Given: X already completed the top row
		board := engine.Board{markX, markX, markX, markO, markO, "", "", "", ""}

		// When: the bot is asked for a move anyway
		_, err := seededSelector(1).SelectMove(board, markO, markX)

		// Then: an ErrNoLegalMove error must be returned
		require.ErrorIs(t, err, apperror.ErrNoLegalMove)
	})
}

// exhaustOpponentGames walks every opponent continuation while the bot follows
// its real policy, and fails if any line ends with the opponent winning.
func exhaustOpponentGames(t *testing.T, selector *Selector, board engine.Board, turn, botMark, opponentMark string) {
	t.Helper()

	if winner, _, won := engine.DetectWinner(board); won {
		require.NotEqual(t, opponentMark, winner, "bot lost on board %v", board)
		return
	}

	moves := engine.AvailableMoves(board)
	if len(moves) == 0 {
		return
	}

	if turn == botMark {
		cell, err := selector.SelectMove(board, botMark, opponentMark)
		require.NoError(t, err)

		board[cell] = botMark
		exhaustOpponentGames(t, selector, board, opponentMark, botMark, opponentMark)
		return
	}

	for _, cell := range moves {
		next := board
		next[cell] = turn
		exhaustOpponentGames(t, selector, next, botMark, botMark, opponentMark)
	}
}

func TestSelector_NeverLoses(t *testing.T) {
	t.Run("Bot as O against every X line", func(t *testing.T) {
		exhaustOpponentGames(t, seededSelector(1), engine.Board{}, markX, markO, markX)
	})

	t.Run("Bot as X against every O line", func(t *testing.T) {
		exhaustOpponentGames(t, seededSelector(1), engine.Board{}, markX, markX, markO)
	})
}

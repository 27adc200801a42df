package bot

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/playgrid/tictactoe-engine/internal/apperror"
	"github.com/playgrid/tictactoe-engine/internal/engine"
)

// searchThreshold is the empty-cell count at which exhaustive minimax takes
// over from the opening heuristic. With 6 or fewer empty cells the full tree
// is cheap; the heuristic exists only to vary the first couple of moves.
const searchThreshold = 7

const centerCell = 4

var (
	cornerCells = [4]int{0, 2, 6, 8}
	sideCells   = [4]int{1, 3, 5, 7}
)

// Selector picks moves for the bot: an opening heuristic while the board is
// nearly empty, exhaustive minimax afterwards. From the moment minimax is
// active the bot may win or draw but never loses.
type Selector struct {
	rngMu sync.Mutex // selectors are shared across connection goroutines
	rng   *rand.Rand
}

// NewSelector creates a selector. The random source drives only the opening
// heuristic tie-breaks; pass a seeded source for reproducible openings, or
// nil for a time-seeded one.
func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec // move variety needs no crypto rand
	}

	return &Selector{rng: rng}
}

// SelectMove returns the cell the bot plays on the given board. Calling it on
// a full or already-decided board is a contract violation by the caller,
// reported as apperror.ErrNoLegalMove.
func (that *Selector) SelectMove(board engine.Board, botMark, opponentMark string) (int, error) {
	moves := engine.AvailableMoves(board)
	if len(moves) == 0 {
		return 0, fmt.Errorf("%w: board is full", apperror.ErrNoLegalMove)
	}

	if winner, _, won := engine.DetectWinner(board); won {
		return 0, fmt.Errorf("%w: %s already won", apperror.ErrNoLegalMove, winner)
	}

	if len(moves) >= searchThreshold {
		return that.openingMove(board, moves), nil
	}

	return searchMove(board, moves, botMark, opponentMark), nil
}

// openingMove prefers the center, then a random empty corner, then a random
// empty side. The randomness keeps the bot from opening identically every
// game; any of these cells is safe while 7+ cells are still empty.
func (that *Selector) openingMove(board engine.Board, moves []int) int {
	if board[centerCell] == engine.EmptyCell {
		return centerCell
	}

	if cell, ok := that.randomEmpty(board, cornerCells); ok {
		return cell
	}

	if cell, ok := that.randomEmpty(board, sideCells); ok {
		return cell
	}

	return moves[0]
}

func (that *Selector) randomEmpty(board engine.Board, cells [4]int) (int, bool) {
	empty := make([]int, 0, len(cells))
	for _, cell := range cells {
		if board[cell] == engine.EmptyCell {
			empty = append(empty, cell)
		}
	}

	if len(empty) == 0 {
		return 0, false
	}

	that.rngMu.Lock()
	pick := that.rng.Intn(len(empty))
	that.rngMu.Unlock()

	return empty[pick], true
}

// searchMove runs full-depth minimax from the root and returns the
// maximizing cell. Ties resolve to the lowest index, so the choice is
// deterministic.
func searchMove(board engine.Board, moves []int, botMark, opponentMark string) int {
	bestCell := moves[0]
	bestScore := math.MinInt

	for _, cell := range moves {
		board[cell] = botMark
		score := minimax(board, opponentMark, botMark, opponentMark)
		board[cell] = engine.EmptyCell

		if score > bestScore {
			bestScore = score
			bestCell = cell
		}
	}

	return bestCell
}

// minimax scores the board from the bot's perspective at full-depth
// lookahead: +1 bot win, -1 opponent win, 0 draw. The bot's turns maximize,
// the opponent's minimize.
func minimax(board engine.Board, turn, botMark, opponentMark string) int {
	if winner, _, won := engine.DetectWinner(board); won {
		if winner == botMark {
			return 1
		}
		return -1
	}

	moves := engine.AvailableMoves(board)
	if len(moves) == 0 {
		return 0
	}

	if turn == botMark {
		best := math.MinInt
		for _, cell := range moves {
			board[cell] = turn
			if score := minimax(board, opponentMark, botMark, opponentMark); score > best {
				best = score
			}
			board[cell] = engine.EmptyCell
		}
		return best
	}

	best := math.MaxInt
	for _, cell := range moves {
		board[cell] = turn
		if score := minimax(board, botMark, botMark, opponentMark); score < best {
			best = score
		}
		board[cell] = engine.EmptyCell
	}
	return best
}

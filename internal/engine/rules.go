package engine

// DetectWinner scans the 8 winning triples and reports the first one fully
// occupied by a single mark. On a board reachable through legal play at most
// one winner can exist, so the scan order only pins down which line is
// reported when a move completes two lines at once.
func DetectWinner(board Board) (string, [3]int, bool) {
	for _, line := range WinLines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a != EmptyCell && a == b && b == c {
			return a, line, true
		}
	}

	return EmptyCell, [3]int{}, false
}

// IsDraw reports whether the game ended without a winner: every cell occupied
// and no winning triple on the board.
func IsDraw(board Board, winner string) bool {
	if winner != EmptyCell {
		return false
	}

	for _, cell := range board {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// AvailableMoves returns the empty cell indices in ascending order.
func AvailableMoves(board Board) []int {
	moves := make([]int, 0, len(board))
	for i, cell := range board {
		if cell == EmptyCell {
			moves = append(moves, i)
		}
	}

	return moves
}

package engine

import (
	"fmt"

	"github.com/playgrid/tictactoe-engine/internal/apperror"
)

const (
	MarkX     = "X"
	MarkO     = "O"
	EmptyCell = ""
)

const (
	ModePlayerVsPlayer = "pvp"
	ModePlayerVsBot    = "bot"
)

const (
	StatusOngoing = "ongoing"
	StatusWon     = "won"
	StatusDrawn   = "drawn"
)

// Board is a 3x3 grid stored row-major, cells 0..8.
type Board [9]string

// WinLines holds the 8 winning triples: rows, then columns, then diagonals.
// DetectWinner scans them in exactly this order.
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// ParseBoard validates raw cells coming from an external caller and converts
// them into a Board. A wrong cell count or an unknown mark is a contract
// violation by the caller, reported as apperror.ErrInvalidBoard.
func ParseBoard(cells []string) (Board, error) {
	var board Board

	if len(cells) != len(board) {
		return board, fmt.Errorf("%w: expected %d cells, got %d", apperror.ErrInvalidBoard, len(board), len(cells))
	}

	for i, cell := range cells {
		if cell != MarkX && cell != MarkO && cell != EmptyCell {
			return board, fmt.Errorf("%w: unknown mark %q in cell %d", apperror.ErrInvalidBoard, cell, i)
		}
		board[i] = cell
	}

	return board, nil
}

func ToggleMark(currentMark string) string {
	if currentMark == MarkX {
		return MarkO
	}
	return MarkX
}

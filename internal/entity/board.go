package entity

import (
	"fmt"

	"github.com/unitefour/unite4/internal/apperror"
)

const (
	Columns = 7
	Rows    = 6

	Player1 = 1
	Player2 = 2

	connectTarget = 4
)

// PlayerMove is a single dropped piece. Row is fixed at creation time as the
// number of pieces already sitting in the column and is never reassigned.
type PlayerMove struct {
	Player int `json:"player"`
	Column int `json:"column"`
	Row    int `json:"row"`
}

// Board holds the full game state: the append-only move list, whose turn it
// is, the winner (0 while the game runs) and whether a drop is still settling.
type Board struct {
	Moves      []PlayerMove `json:"moves"`
	Turn       int          `json:"player_turn"`
	Winner     int          `json:"winner"`
	InProgress bool         `json:"in_progress"`
}

func NewBoard() *Board {
	return &Board{
		Turn: Player1,
	}
}

// ColumnCount - returns how many pieces are already stacked in the column.
func (that *Board) ColumnCount(column int) int {
	count := 0
	for _, move := range that.Moves {
		if move.Column == column {
			count++
		}
	}
	return count
}

// PlayerAt - returns the player occupying the cell, or 0 if it is empty.
func (that *Board) PlayerAt(column, row int) int {
	return playerAt(that.Moves, column, row)
}

// Drop - appends a move for the player whose turn it is. The row is the
// current stack height of the column.
func (that *Board) Drop(column int) (PlayerMove, error) {
	if column < 0 || column >= Columns {
		return PlayerMove{}, fmt.Errorf("%w: column %d", apperror.ErrInvalidColumn, column)
	}

	row := that.ColumnCount(column)
	if row >= Rows {
		return PlayerMove{}, fmt.Errorf("%w: column %d", apperror.ErrColumnFull, column)
	}

	move := PlayerMove{
		Player: that.Turn,
		Column: column,
		Row:    row,
	}
	that.Moves = append(that.Moves, move)

	return move, nil
}

// Reset - clears every piece, the winner and the settling flag. The turn goes
// back to player 1.
func (that *Board) Reset() {
	that.Moves = nil
	that.Turn = Player1
	that.Winner = 0
	that.InProgress = false
}

// HasWinningLine - reports whether any placed piece anchors a line of four.
func (that *Board) HasWinningLine() bool {
	return HasWinningLine(that.Moves)
}

// HasWinningLine is a pure function over a move list: for every move it scans
// the four board axes, counting contiguous same-player cells in both
// directions including the move itself. The result depends only on the set of
// moves, not on their order.
func HasWinningLine(moves []PlayerMove) bool {
	for _, move := range moves {
		if isWinner(move, moves) {
			return true
		}
	}
	return false
}

// axes holds one delta per scan axis: horizontal, vertical, diagonal
// up-right and diagonal down-right.
var axes = [4][2]int{
	{1, 0},
	{0, 1},
	{1, 1},
	{1, -1},
}

func isWinner(move PlayerMove, moves []PlayerMove) bool {
	for _, axis := range axes {
		total := 1
		total += countDirection(move, moves, axis[0], axis[1])
		total += countDirection(move, moves, -axis[0], -axis[1])

		if total >= connectTarget {
			return true
		}
	}
	return false
}

func countDirection(move PlayerMove, moves []PlayerMove, dc, dr int) int {
	count := 0
	column, row := move.Column+dc, move.Row+dr

	for playerAt(moves, column, row) == move.Player {
		count++
		column += dc
		row += dr
	}

	return count
}

func playerAt(moves []PlayerMove, column, row int) int {
	for _, move := range moves {
		if move.Column == column && move.Row == row {
			return move.Player
		}
	}
	return 0
}

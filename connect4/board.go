// connect4/board.go
package connect4

import (
	"fmt"
	"strings"
)

const (
	Cols    = 7
	Rows    = 6
	Connect = 4
)

// Board is the ordered list of column drops. Move i belongs to player (i%2)+1.
// A Board is never mutated in place; ApplyMove returns a new one.
type Board []int

// Cell is the content of one grid position.
type Cell uint8

const (
	Empty Cell = iota
	PlayerOne
	PlayerTwo
)

// Outcome of a board position.
type Outcome uint8

const (
	Ongoing Outcome = iota
	OneWins
	TwoWins
	Drawn
)

func (o Outcome) String() string {
	switch o {
	case OneWins:
		return "one_wins"
	case TwoWins:
		return "two_wins"
	case Drawn:
		return "draw"
	default:
		return "ongoing"
	}
}

// ParseBoard decodes the digit encoding ("33323") and rejects illegal sequences.
func ParseBoard(s string) (Board, error) {
	b := make(Board, 0, len(s))
	for i, r := range s {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%w: invalid character %q at %d", ErrIllegalMove, r, i)
		}
		next, err := b.ApplyMove(int(r - '0'))
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i, err)
		}
		b = next
	}
	return b, nil
}

func (b Board) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, col := range b {
		sb.WriteByte(byte('0' + col))
	}
	return sb.String()
}

func (b Board) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Board) UnmarshalText(text []byte) error {
	parsed, err := ParseBoard(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Count returns how many discs sit in column.
func (b Board) Count(column int) int {
	n := 0
	for _, c := range b {
		if c == column {
			n++
		}
	}
	return n
}

func (b Board) ValidateMove(column int) bool {
	return column >= 0 && column < Cols && b.Count(column) < Rows
}

func (b Board) ApplyMove(column int) (Board, error) {
	if !b.ValidateMove(column) {
		return nil, fmt.Errorf("%w: column %d", ErrIllegalMove, column)
	}
	next := make(Board, len(b), len(b)+1)
	copy(next, b)
	return append(next, column), nil
}

// ResolveRow is the row a disc dropped into column lands on. Row 0 is the top.
func (b Board) ResolveRow(column int) int {
	return Rows - 1 - b.Count(column)
}

// NextPlayer is the cell value of whoever moves next.
func (b Board) NextPlayer() Cell {
	return Cell(len(b)%2 + 1)
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	return len(b) >= Rows*Cols
}

// Grid replays the moves into a row-major matrix.
func (b Board) Grid() [Rows][Cols]Cell {
	var g [Rows][Cols]Cell
	var heights [Cols]int
	for i, col := range b {
		row := Rows - 1 - heights[col]
		g[row][col] = Cell(i%2 + 1)
		heights[col]++
	}
	return g
}

// CheckTerminal replays the board and reports the first completed line, a
// draw on a full grid, or Ongoing.
func (b Board) CheckTerminal() Outcome {
	var g [Rows][Cols]Cell
	var heights [Cols]int
	for i, col := range b {
		row := Rows - 1 - heights[col]
		p := Cell(i%2 + 1)
		g[row][col] = p
		heights[col]++
		if connects(&g, row, col, p) {
			if p == PlayerOne {
				return OneWins
			}
			return TwoWins
		}
	}
	if b.Full() {
		return Drawn
	}
	return Ongoing
}

var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

func connects(g *[Rows][Cols]Cell, row, col int, p Cell) bool {
	for _, d := range directions {
		n := 1 + run(g, row, col, d[0], d[1], p) + run(g, row, col, -d[0], -d[1], p)
		if n >= Connect {
			return true
		}
	}
	return false
}

func run(g *[Rows][Cols]Cell, row, col, dr, dc int, p Cell) int {
	n := 0
	for r, c := row+dr, col+dc; r >= 0 && r < Rows && c >= 0 && c < Cols && g[r][c] == p; r, c = r+dr, c+dc {
		n++
	}
	return n
}

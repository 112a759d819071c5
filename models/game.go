// models/game.go
package models

import (
	"fmt"
	"time"

	"connect4-server/connect4"
)

// Game is the persisted form of a connect4.Game. Version is bumped on every
// committed transition and used as the compare-and-swap guard.
type Game struct {
	UUID       string    `gorm:"primaryKey;type:varchar(36)" json:"uuid"`
	PlayerOne  string    `gorm:"index;not null" json:"player_one"`
	PlayerTwo  string    `gorm:"index;not null" json:"player_two"`
	Board      string    `gorm:"type:varchar(42);not null" json:"board"`
	State      string    `gorm:"type:varchar(16);index;not null" json:"state"`
	LastMoveAt time.Time `gorm:"index" json:"last_move_at"`
	Version    int64     `gorm:"not null" json:"-"`

	Timestamps
}

func (g *Game) ToDomain() (*connect4.Game, error) {
	board, err := connect4.ParseBoard(g.Board)
	if err != nil {
		return nil, fmt.Errorf("game %s: stored board: %w", g.UUID, err)
	}
	state, err := connect4.ParseState(g.State)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", g.UUID, err)
	}
	return &connect4.Game{
		UUID:       g.UUID,
		PlayerOne:  g.PlayerOne,
		PlayerTwo:  g.PlayerTwo,
		Board:      board,
		State:      state,
		CreatedAt:  g.CreatedAt,
		LastMoveAt: g.LastMoveAt,
	}, nil
}

// Apply copies the mutable fields of a domain game back onto the row.
func (g *Game) Apply(d *connect4.Game) {
	g.Board = d.Board.String()
	g.State = string(d.State)
	g.LastMoveAt = d.LastMoveAt
}

func GameFromDomain(d *connect4.Game) *Game {
	g := &Game{
		UUID:      d.UUID,
		PlayerOne: d.PlayerOne,
		PlayerTwo: d.PlayerTwo,
	}
	g.CreatedAt = d.CreatedAt
	g.Apply(d)
	return g
}

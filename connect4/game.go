// connect4/game.go
package connect4

import (
	"fmt"
	"time"
)

// State is the lifecycle state of a game. TIMEOUT_X and FF_X name the player who lost.
type State string

const (
	StateMoveOne    State = "MOVE_ONE"
	StateMoveTwo    State = "MOVE_TWO"
	StateWinOne     State = "WIN_ONE"
	StateWinTwo     State = "WIN_TWO"
	StateDraw       State = "DRAW"
	StateFFOne      State = "FF_ONE"
	StateFFTwo      State = "FF_TWO"
	StateTimeoutOne State = "TIMEOUT_ONE"
	StateTimeoutTwo State = "TIMEOUT_TWO"
)

var states = map[State]struct{}{
	StateMoveOne: {}, StateMoveTwo: {}, StateWinOne: {}, StateWinTwo: {}, StateDraw: {},
	StateFFOne: {}, StateFFTwo: {}, StateTimeoutOne: {}, StateTimeoutTwo: {},
}

func ParseState(s string) (State, error) {
	st := State(s)
	if _, ok := states[st]; !ok {
		return "", fmt.Errorf("unknown game state %q", s)
	}
	return st, nil
}

func (s State) Terminal() bool {
	return s != StateMoveOne && s != StateMoveTwo
}

func (s *State) UnmarshalText(b []byte) error {
	st, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Result is what a terminal transition means for one player.
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

// ResultRecorder receives exactly one call per player when a game ends.
type ResultRecorder interface {
	RecordResult(uid string, r Result) error
}

// Game is the in-memory view of one match.
type Game struct {
	UUID       string    `json:"uuid"`
	PlayerOne  string    `json:"player_one"`
	PlayerTwo  string    `json:"player_two"`
	Board      Board     `json:"board"`
	State      State     `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	LastMoveAt time.Time `json:"last_move_at"`
}

func NewGame(id, playerOne, playerTwo string, now time.Time) *Game {
	return &Game{
		UUID:       id,
		PlayerOne:  playerOne,
		PlayerTwo:  playerTwo,
		Board:      Board{},
		State:      StateMoveOne,
		CreatedAt:  now,
		LastMoveAt: now,
	}
}

// Turn returns the uid expected to move, or "" for a finished game.
func (g *Game) Turn() string {
	switch g.State {
	case StateMoveOne:
		return g.PlayerOne
	case StateMoveTwo:
		return g.PlayerTwo
	}
	return ""
}

func (g *Game) IsPlayer(uid string) bool {
	return uid != "" && (uid == g.PlayerOne || uid == g.PlayerTwo)
}

// SubmitMove drops a disc for uid. The game is left untouched on any error.
func (g *Game) SubmitMove(uid string, column int, now time.Time, rec ResultRecorder) error {
	if g.State.Terminal() {
		return ErrGameOver
	}
	if uid == "" || uid != g.Turn() {
		return ErrNotYourTurn
	}
	board, err := g.Board.ApplyMove(column)
	if err != nil {
		return err
	}

	next := StateMoveOne
	if g.State == StateMoveOne {
		next = StateMoveTwo
	}
	switch board.CheckTerminal() {
	case OneWins:
		next = StateWinOne
	case TwoWins:
		next = StateWinTwo
	case Drawn:
		next = StateDraw
	}
	if next.Terminal() {
		if err := g.record(next, rec); err != nil {
			return err
		}
	}

	g.Board = board
	g.State = next
	g.LastMoveAt = now
	return nil
}

// Forfeit concedes the game on behalf of uid, on either player's turn.
func (g *Game) Forfeit(uid string, now time.Time, rec ResultRecorder) error {
	if g.State.Terminal() {
		return ErrGameOver
	}
	if !g.IsPlayer(uid) {
		return ErrNotParticipant
	}
	next := StateFFTwo
	if uid == g.PlayerOne {
		next = StateFFOne
	}
	if err := g.record(next, rec); err != nil {
		return err
	}
	g.State = next
	g.LastMoveAt = now
	return nil
}

// Expired reports whether the pending player has run out of time.
func (g *Game) Expired(now time.Time, timeout time.Duration) bool {
	return !g.State.Terminal() && now.Sub(g.LastMoveAt) > timeout
}

// CheckTimeout ends the game against the player whose turn it is once
// timeout has elapsed since the last move. It returns whether a transition happened.
func (g *Game) CheckTimeout(now time.Time, timeout time.Duration, rec ResultRecorder) (bool, error) {
	if !g.Expired(now, timeout) {
		return false, nil
	}
	next := StateTimeoutOne
	if g.State == StateMoveTwo {
		next = StateTimeoutTwo
	}
	if err := g.record(next, rec); err != nil {
		return false, err
	}
	g.State = next
	return true, nil
}

// Winner returns the winning uid, or "" for draws and running games.
func (g *Game) Winner() string {
	switch g.State {
	case StateWinOne, StateFFTwo, StateTimeoutTwo:
		return g.PlayerOne
	case StateWinTwo, StateFFOne, StateTimeoutOne:
		return g.PlayerTwo
	}
	return ""
}

func (g *Game) record(final State, rec ResultRecorder) error {
	if rec == nil {
		return nil
	}
	one, two := ResultDraw, ResultDraw
	switch final {
	case StateWinOne, StateFFTwo, StateTimeoutTwo:
		one, two = ResultWin, ResultLoss
	case StateWinTwo, StateFFOne, StateTimeoutOne:
		one, two = ResultLoss, ResultWin
	}
	if err := rec.RecordResult(g.PlayerOne, one); err != nil {
		return fmt.Errorf("record result for %s: %w", g.PlayerOne, err)
	}
	if err := rec.RecordResult(g.PlayerTwo, two); err != nil {
		return fmt.Errorf("record result for %s: %w", g.PlayerTwo, err)
	}
	return nil
}

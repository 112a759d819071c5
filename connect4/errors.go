package connect4

import "errors"

var (
	ErrIllegalMove    = errors.New("illegal move")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrGameOver       = errors.New("game is over")
	ErrNotParticipant = errors.New("not a participant of this game")
)

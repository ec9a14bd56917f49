package rules

import "errors"

var (
	ErrUnknownKind   = errors.New("unknown-game-kind")
	ErrUnknownEvent  = errors.New("unknown-event")
	ErrMalformedMove = errors.New("malformed-move")
	ErrWrongState    = errors.New("wrong-state-kind")
)

var (
	ErrGameOver        = errors.New("game-over")
	ErrOutOfRange      = errors.New("out-of-range")
	ErrCellOccupied    = errors.New("cell-occupied")
	ErrAlreadyAnswered = errors.New("already-answered")
	ErrStaleQuestion   = errors.New("stale-question")
	ErrIncorrectGuess  = errors.New("incorrect-guess")
)

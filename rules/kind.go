package rules

import (
	"fmt"
	"slices"
)

// Kind names a game type. It is also the websocket namespace path.
type Kind string

const (
	TicTacToe         Kind = "tic-tac-toe"
	Trivia            Kind = "trivia"
	Drawing           Kind = "drawing"
	Dice              Kind = "dice"
	WordGuess         Kind = "word-guess"
	RockPaperScissors Kind = "rock-paper-scissors"
)

var allKinds = []Kind{TicTacToe, Trivia, Drawing, Dice, WordGuess, RockPaperScissors}

func Kinds() []Kind {
	return slices.Clone(allKinds)
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(allKinds, k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Inbound move events.
const (
	EventMakeMove     = "makeMove"
	EventSelectAnswer = "selectAnswer"
	EventRollDice     = "rollDice"
	EventSubmitGuess  = "submitGuess"
	EventMakeChoice   = "makeChoice"
	EventDraw         = "draw"
	EventClearCanvas  = "clearCanvas"
)

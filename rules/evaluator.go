package rules

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"
)

// State is the per-room game state. Every variant is a value type that
// marshals to the JSON sent in gameState events.
type State interface {
	Kind() Kind
}

// Move is a decoded move payload, specific to one evaluator.
type Move any

// Evaluator owns the rules of one game kind. ApplyMove never mutates the
// state it is given.
type Evaluator interface {
	Kind() Kind
	Events() []string
	InitialState() State
	DecodeMove(event string, payload []byte) (Move, error)
	ApplyMove(state State, move Move, actorID string) (State, error)
}

// Roster is implemented by evaluators whose state depends on who is seated
// in the room. Seat and Unseat never mutate the state they are given.
type Roster interface {
	Seat(state State, actorID string) State
	Unseat(state State, actorID string) State
}

// WordSource hands out random secret words.
type WordSource interface {
	Generate(count int) []string
}

// Outcome is a winner slot. The empty outcome marshals as null.
type Outcome string

const Tie Outcome = "tie"

func (o Outcome) MarshalJSON() ([]byte, error) {
	if o == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(o))
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*o = ""
		return nil
	}
	*o = Outcome(*s)
	return nil
}

// Table dispatches a game kind to its evaluator.
type Table map[Kind]Evaluator

func NewTable(evaluators ...Evaluator) Table {
	t := make(Table, len(evaluators))
	for _, e := range evaluators {
		t[e.Kind()] = e
	}
	return t
}

// DefaultTable wires every game kind. A nil roll uses a fair six-sided die.
func DefaultTable(words WordSource, roll func() int) Table {
	if roll == nil {
		roll = RollDie
	}
	return NewTable(
		NewTicTacToe(),
		NewTrivia(DefaultQuestions),
		NewDrawing(),
		NewDice(DefaultDiceTarget, roll),
		NewWordGuess(words),
		NewRockPaperScissors(),
	)
}

func (t Table) Lookup(kind Kind) (Evaluator, bool) {
	e, ok := t[kind]
	return e, ok
}

// Kinds lists the kinds in the table in a stable order.
func (t Table) Kinds() []Kind {
	kinds := make([]Kind, 0, len(t))
	for _, k := range allKinds {
		if _, ok := t[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Handles reports whether the evaluator accepts the event.
func Handles(e Evaluator, event string) bool {
	return slices.Contains(e.Events(), event)
}

func RollDie() int {
	return rand.IntN(6) + 1
}

func decode(payload []byte, v any) error {
	if len(payload) == 0 {
		return ErrMalformedMove
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMove, err)
	}
	return nil
}

package rules

import (
	"fmt"
	"maps"
)

const DefaultDiceTarget = 30

type DiceState struct {
	Scores     map[string]int `json:"scores"`
	GameOver   bool           `json:"gameOver"`
	LastRoll   int            `json:"lastRoll"`
	LastRoller string         `json:"lastRoller"`
	Target     int            `json:"target"`
	Winner     Outcome        `json:"winner"`
}

func (DiceState) Kind() Kind { return Dice }

type Roll struct{}

type dice struct {
	target int
	roll   func() int
}

// NewDice adds each roll to the roller's score until someone reaches target.
func NewDice(target int, roll func() int) Evaluator {
	if target <= 0 {
		target = DefaultDiceTarget
	}
	if roll == nil {
		roll = RollDie
	}
	return dice{target: target, roll: roll}
}

func (dice) Kind() Kind { return Dice }

func (dice) Events() []string { return []string{EventRollDice} }

func (d dice) InitialState() State {
	return DiceState{Scores: map[string]int{}, Target: d.target}
}

func (dice) DecodeMove(event string, _ []byte) (Move, error) {
	if event != EventRollDice {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	return Roll{}, nil
}

func (d dice) ApplyMove(state State, move Move, actorID string) (State, error) {
	s, ok := state.(DiceState)
	if !ok {
		return nil, ErrWrongState
	}
	if _, ok := move.(Roll); !ok {
		return nil, ErrMalformedMove
	}
	if s.GameOver {
		return nil, ErrGameOver
	}

	rolled := d.roll()
	s.Scores = maps.Clone(s.Scores)
	if s.Scores == nil {
		s.Scores = map[string]int{}
	}
	s.Scores[actorID] += rolled
	s.LastRoll = rolled
	s.LastRoller = actorID

	if s.Scores[actorID] >= s.Target {
		s.GameOver = true
		s.Winner = Outcome(actorID)
	}
	return s, nil
}

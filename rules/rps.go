package rules

import (
	"fmt"
	"maps"
)

type Choice string

const (
	Rock     Choice = "rock"
	Paper    Choice = "paper"
	Scissors Choice = "scissors"
)

// beats maps each choice to the one it defeats.
var beats = map[Choice]Choice{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

type RockPaperScissorsState struct {
	Choices  map[string]Choice `json:"choices"`
	GameOver bool              `json:"gameOver"`
	Winner   Outcome           `json:"winner"`
}

func (RockPaperScissorsState) Kind() Kind { return RockPaperScissors }

type rockPaperScissors struct{}

func NewRockPaperScissors() Evaluator { return rockPaperScissors{} }

func (rockPaperScissors) Kind() Kind { return RockPaperScissors }

func (rockPaperScissors) Events() []string { return []string{EventMakeChoice} }

func (rockPaperScissors) InitialState() State {
	return RockPaperScissorsState{Choices: map[string]Choice{}}
}

func (rockPaperScissors) DecodeMove(event string, payload []byte) (Move, error) {
	if event != EventMakeChoice {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	var req struct {
		Choice Choice `json:"choice"`
	}
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if _, ok := beats[req.Choice]; !ok {
		return nil, fmt.Errorf("%w: choice %q", ErrMalformedMove, req.Choice)
	}
	return req.Choice, nil
}

func (rockPaperScissors) ApplyMove(state State, move Move, actorID string) (State, error) {
	s, ok := state.(RockPaperScissorsState)
	if !ok {
		return nil, ErrWrongState
	}
	choice, ok := move.(Choice)
	if !ok {
		return nil, ErrMalformedMove
	}
	if s.GameOver {
		return nil, ErrGameOver
	}

	s.Choices = maps.Clone(s.Choices)
	if s.Choices == nil {
		s.Choices = map[string]Choice{}
	}
	s.Choices[actorID] = choice

	if len(s.Choices) < 2 {
		return s, nil
	}

	s.GameOver = true
	s.Winner = resolve(s.Choices)
	return s, nil
}

// resolve expects exactly two entries.
func resolve(choices map[string]Choice) Outcome {
	var ids []string
	for id := range choices {
		ids = append(ids, id)
	}
	a, b := choices[ids[0]], choices[ids[1]]
	switch {
	case a == b:
		return Tie
	case beats[a] == b:
		return Outcome(ids[0])
	default:
		return Outcome(ids[1])
	}
}

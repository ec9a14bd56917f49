package rules

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"
)

const (
	WordGuessPoints = 50
	fallbackWord    = "gopher"
)

// WordGuessState keeps the secret word out of the wire format until the
// game is over.
type WordGuessState struct {
	Word     string         `json:"-"`
	Scores   map[string]int `json:"-"`
	GameOver bool           `json:"-"`
	Winner   Outcome        `json:"-"`
}

func (WordGuessState) Kind() Kind { return WordGuess }

func (s WordGuessState) MarshalJSON() ([]byte, error) {
	view := struct {
		Scores   map[string]int `json:"scores"`
		GameOver bool           `json:"gameOver"`
		Winner   Outcome        `json:"winner"`
		Length   int            `json:"length"`
		Word     string         `json:"word,omitempty"`
	}{
		Scores:   s.Scores,
		GameOver: s.GameOver,
		Winner:   s.Winner,
		Length:   utf8.RuneCountInString(s.Word),
	}
	if view.Scores == nil {
		view.Scores = map[string]int{}
	}
	if s.GameOver {
		view.Word = s.Word
	}
	return json.Marshal(view)
}

type wordGuess struct {
	words WordSource
}

// NewWordGuess draws one secret word per room from words. A nil source, or
// one that returns nothing, falls back to a built-in word.
func NewWordGuess(words WordSource) Evaluator {
	return wordGuess{words: words}
}

func (wordGuess) Kind() Kind { return WordGuess }

func (wordGuess) Events() []string { return []string{EventSubmitGuess} }

func (w wordGuess) InitialState() State {
	word := fallbackWord
	if w.words != nil {
		if picked := w.words.Generate(1); len(picked) > 0 && strings.TrimSpace(picked[0]) != "" {
			word = strings.TrimSpace(picked[0])
		}
	}
	return WordGuessState{Word: word, Scores: map[string]int{}}
}

type Guess string

func (wordGuess) DecodeMove(event string, payload []byte) (Move, error) {
	if event != EventSubmitGuess {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	var req struct {
		Guess string `json:"guess"`
	}
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	guess := strings.TrimSpace(req.Guess)
	if guess == "" {
		return nil, ErrMalformedMove
	}
	return Guess(guess), nil
}

func (wordGuess) ApplyMove(state State, move Move, actorID string) (State, error) {
	s, ok := state.(WordGuessState)
	if !ok {
		return nil, ErrWrongState
	}
	guess, ok := move.(Guess)
	if !ok {
		return nil, ErrMalformedMove
	}
	if s.GameOver {
		return nil, ErrGameOver
	}
	if !strings.EqualFold(strings.TrimSpace(string(guess)), s.Word) {
		return nil, ErrIncorrectGuess
	}

	s.Scores = maps.Clone(s.Scores)
	if s.Scores == nil {
		s.Scores = map[string]int{}
	}
	s.Scores[actorID] += WordGuessPoints
	s.GameOver = true
	s.Winner = Outcome(actorID)
	return s, nil
}

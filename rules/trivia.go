package rules

import (
	"fmt"
	"maps"
)

const TriviaPoints = 10

type Question struct {
	Prompt  string   `yaml:"prompt"`
	Choices []string `yaml:"choices"`
	Answer  int      `yaml:"answer"`
}

var DefaultQuestions = []Question{
	{Prompt: "Which planet is known as the red planet?", Choices: []string{"Venus", "Mars", "Jupiter", "Mercury"}, Answer: 1},
	{Prompt: "How many sides does a hexagon have?", Choices: []string{"5", "6", "7", "8"}, Answer: 1},
	{Prompt: "What is the chemical symbol for gold?", Choices: []string{"Ag", "Gd", "Au", "Go"}, Answer: 2},
	{Prompt: "Which ocean is the largest?", Choices: []string{"Pacific", "Atlantic", "Indian", "Arctic"}, Answer: 0},
	{Prompt: "How many minutes are in a day?", Choices: []string{"1240", "1440", "1640", "1000"}, Answer: 1},
}

// TriviaState never carries the correct answer index.
type TriviaState struct {
	Scores   map[string]int  `json:"scores"`
	GameOver bool            `json:"gameOver"`
	Question int             `json:"question"`
	Prompt   string          `json:"prompt,omitempty"`
	Choices  []string        `json:"choices,omitempty"`
	Answered map[string]bool `json:"-"`
	Seated   map[string]bool `json:"-"`
}

func (TriviaState) Kind() Kind { return Trivia }

type Answer struct {
	Choice   int
	Question *int
}

type trivia struct {
	questions []Question
}

func NewTrivia(questions []Question) Evaluator {
	return trivia{questions: questions}
}

func (trivia) Kind() Kind { return Trivia }

func (trivia) Events() []string { return []string{EventSelectAnswer} }

func (t trivia) InitialState() State {
	s := TriviaState{Scores: map[string]int{}, Answered: map[string]bool{}, Seated: map[string]bool{}}
	return t.show(s, 0)
}

// show moves the state to question i, or ends the game past the last one.
func (t trivia) show(s TriviaState, i int) TriviaState {
	s.Question = i
	if i >= len(t.questions) {
		s.GameOver = true
		s.Prompt = ""
		s.Choices = nil
		return s
	}
	s.Prompt = t.questions[i].Prompt
	s.Choices = t.questions[i].Choices
	return s
}

func (trivia) DecodeMove(event string, payload []byte) (Move, error) {
	if event != EventSelectAnswer {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	var req struct {
		Answer   *int `json:"answer"`
		Question *int `json:"question"`
	}
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if req.Answer == nil {
		return nil, ErrMalformedMove
	}
	return Answer{Choice: *req.Answer, Question: req.Question}, nil
}

func (t trivia) ApplyMove(state State, move Move, actorID string) (State, error) {
	s, ok := state.(TriviaState)
	if !ok {
		return nil, ErrWrongState
	}
	answer, ok := move.(Answer)
	if !ok {
		return nil, ErrMalformedMove
	}
	if s.GameOver || s.Question >= len(t.questions) {
		return nil, ErrGameOver
	}
	if answer.Question != nil && *answer.Question != s.Question {
		return nil, ErrStaleQuestion
	}
	q := t.questions[s.Question]
	if answer.Choice < 0 || answer.Choice >= len(q.Choices) {
		return nil, ErrOutOfRange
	}
	if s.Answered[actorID] {
		return nil, ErrAlreadyAnswered
	}

	s.Scores = maps.Clone(s.Scores)
	if s.Scores == nil {
		s.Scores = map[string]int{}
	}
	if _, ok := s.Scores[actorID]; !ok {
		s.Scores[actorID] = 0
	}

	if answer.Choice != q.Answer {
		s.Answered = maps.Clone(s.Answered)
		if s.Answered == nil {
			s.Answered = map[string]bool{}
		}
		s.Answered[actorID] = true
		if !everyoneAnswered(s, actorID) {
			return s, nil
		}
		s.Answered = map[string]bool{}
		return t.show(s, s.Question+1), nil
	}

	s.Scores[actorID] += TriviaPoints
	s.Answered = map[string]bool{}
	return t.show(s, s.Question+1), nil
}

func (t trivia) Seat(state State, actorID string) State {
	s, ok := state.(TriviaState)
	if !ok {
		return state
	}
	s.Seated = maps.Clone(s.Seated)
	if s.Seated == nil {
		s.Seated = map[string]bool{}
	}
	s.Seated[actorID] = true
	return s
}

// Unseat drops actorID from the players still expected to answer. When
// everyone left has already answered wrong, the question moves on.
func (t trivia) Unseat(state State, actorID string) State {
	s, ok := state.(TriviaState)
	if !ok {
		return state
	}
	s.Seated = maps.Clone(s.Seated)
	delete(s.Seated, actorID)
	s.Answered = maps.Clone(s.Answered)
	delete(s.Answered, actorID)

	if s.GameOver || len(s.Seated) == 0 || len(s.Answered) == 0 || !everyoneAnswered(s, "") {
		return s
	}
	s.Answered = map[string]bool{}
	return t.show(s, s.Question+1)
}

// everyoneAnswered reports whether every participant has used their answer
// on the current question. Participants are the seated players, or everyone
// who has scored so far when nobody is seated, plus actorID.
func everyoneAnswered(s TriviaState, actorID string) bool {
	participants := s.Seated
	if len(participants) == 0 {
		participants = make(map[string]bool, len(s.Scores))
		for id := range s.Scores {
			participants[id] = true
		}
	}
	if actorID != "" && !s.Answered[actorID] {
		return false
	}
	for id := range participants {
		if !s.Answered[id] {
			return false
		}
	}
	return true
}

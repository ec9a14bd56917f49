package rules

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func play(t *testing.T, e Evaluator, s State, cells ...Cell) State {
	t.Helper()
	for _, c := range cells {
		next, err := e.ApplyMove(s, c, "actor")
		require.NoError(t, err, "move %v", c)
		s = next
	}
	return s
}

func TestTicTacToeInitialState(t *testing.T) {
	t.Parallel()
	s := NewTicTacToe().InitialState()

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"board": [["","",""],["","",""],["","",""]],
		"currentPlayer": "X",
		"gameOver": false,
		"winner": null
	}`, string(data))
}

func TestTicTacToeAlternates(t *testing.T) {
	t.Parallel()
	e := NewTicTacToe()
	s := e.InitialState()

	cells := []Cell{{0, 0}, {1, 1}, {2, 2}, {0, 2}, {2, 0}}
	want := []Mark{O, X, O, X, O}
	for i, c := range cells {
		next, err := e.ApplyMove(s, c, "actor")
		require.NoError(t, err)
		assert.Equal(t, want[i], next.(TicTacToeState).CurrentPlayer, "after move %d", i)
		s = next
	}
}

func TestTicTacToeRejects(t *testing.T) {
	t.Parallel()
	e := NewTicTacToe()
	start := play(t, e, e.InitialState(), Cell{1, 1})
	over := play(t, e, e.InitialState(), Cell{0, 0}, Cell{1, 0}, Cell{0, 1}, Cell{1, 1}, Cell{0, 2})

	tests := []struct {
		name  string
		state State
		move  Move
		err   error
	}{
		{"occupied", start, Cell{1, 1}, ErrCellOccupied},
		{"row too big", start, Cell{3, 0}, ErrOutOfRange},
		{"negative col", start, Cell{0, -1}, ErrOutOfRange},
		{"game over", over, Cell{2, 2}, ErrGameOver},
		{"wrong move type", start, Guess("x"), ErrMalformedMove},
		{"wrong state", NewDice(0, nil).InitialState(), Cell{0, 0}, ErrWrongState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			before := tt.state
			_, err := e.ApplyMove(tt.state, tt.move, "actor")
			assert.ErrorIs(t, err, tt.err)
			if diff := cmp.Diff(before, tt.state); diff != "" {
				t.Errorf("state mutated (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTicTacToeWin(t *testing.T) {
	t.Parallel()
	e := NewTicTacToe()
	s := play(t, e, e.InitialState(), Cell{0, 0}, Cell{1, 0}, Cell{0, 1}, Cell{1, 1}, Cell{0, 2})

	got := s.(TicTacToeState)
	want := TicTacToeState{
		Board: [3][3]Mark{
			{X, X, X},
			{O, O, Empty},
			{Empty, Empty, Empty},
		},
		CurrentPlayer: X,
		GameOver:      true,
		Winner:        Outcome(X),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestTicTacToeTie(t *testing.T) {
	t.Parallel()
	e := NewTicTacToe()
	s := play(t, e, e.InitialState(),
		Cell{0, 0}, Cell{0, 1}, Cell{0, 2},
		Cell{1, 1}, Cell{1, 0}, Cell{1, 2},
		Cell{2, 1}, Cell{2, 0}, Cell{2, 2},
	)

	got := s.(TicTacToeState)
	assert.True(t, got.GameOver)
	assert.Equal(t, Tie, got.Winner)
}

func TestBoardWinnerLines(t *testing.T) {
	t.Parallel()
	for i, l := range lines {
		var b [3][3]Mark
		for _, c := range l {
			b[c.Row][c.Col] = O
		}
		assert.Equal(t, O, boardWinner(b), "line %d", i)
	}

	assert.Equal(t, Empty, boardWinner([3][3]Mark{
		{X, O, X},
		{X, O, O},
		{O, X, X},
	}))
}

func TestTicTacToeDecode(t *testing.T) {
	t.Parallel()
	e := NewTicTacToe()

	m, err := e.DecodeMove(EventMakeMove, []byte(`{"row":2,"col":1}`))
	require.NoError(t, err)
	assert.Equal(t, Cell{Row: 2, Col: 1}, m)

	_, err = e.DecodeMove(EventMakeMove, []byte(`{"row":2}`))
	assert.ErrorIs(t, err, ErrMalformedMove)

	_, err = e.DecodeMove(EventMakeMove, []byte(`"nope"`))
	assert.ErrorIs(t, err, ErrMalformedMove)

	_, err = e.DecodeMove(EventMakeMove, nil)
	assert.ErrorIs(t, err, ErrMalformedMove)

	_, err = e.DecodeMove(EventRollDice, []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

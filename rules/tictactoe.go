package rules

import "fmt"

type Mark string

const (
	Empty Mark = ""
	X     Mark = "X"
	O     Mark = "O"
)

type TicTacToeState struct {
	Board         [3][3]Mark `json:"board"`
	CurrentPlayer Mark       `json:"currentPlayer"`
	GameOver      bool       `json:"gameOver"`
	Winner        Outcome    `json:"winner"`
}

func (TicTacToeState) Kind() Kind { return TicTacToe }

type Cell struct {
	Row int
	Col int
}

var lines = [8][3]Cell{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

type ticTacToe struct{}

func NewTicTacToe() Evaluator { return ticTacToe{} }

func (ticTacToe) Kind() Kind { return TicTacToe }

func (ticTacToe) Events() []string { return []string{EventMakeMove} }

func (ticTacToe) InitialState() State {
	return TicTacToeState{CurrentPlayer: X}
}

func (ticTacToe) DecodeMove(event string, payload []byte) (Move, error) {
	if event != EventMakeMove {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	var req struct {
		Row *int `json:"row"`
		Col *int `json:"col"`
	}
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if req.Row == nil || req.Col == nil {
		return nil, ErrMalformedMove
	}
	return Cell{Row: *req.Row, Col: *req.Col}, nil
}

func (ticTacToe) ApplyMove(state State, move Move, _ string) (State, error) {
	s, ok := state.(TicTacToeState)
	if !ok {
		return nil, ErrWrongState
	}
	cell, ok := move.(Cell)
	if !ok {
		return nil, ErrMalformedMove
	}
	if s.GameOver {
		return nil, ErrGameOver
	}
	if cell.Row < 0 || cell.Row > 2 || cell.Col < 0 || cell.Col > 2 {
		return nil, ErrOutOfRange
	}
	if s.Board[cell.Row][cell.Col] != Empty {
		return nil, ErrCellOccupied
	}

	s.Board[cell.Row][cell.Col] = s.CurrentPlayer

	if w := boardWinner(s.Board); w != Empty {
		s.GameOver = true
		s.Winner = Outcome(w)
		return s, nil
	}
	if boardFull(s.Board) {
		s.GameOver = true
		s.Winner = Tie
		return s, nil
	}

	if s.CurrentPlayer == X {
		s.CurrentPlayer = O
	} else {
		s.CurrentPlayer = X
	}
	return s, nil
}

func boardWinner(b [3][3]Mark) Mark {
	for _, l := range lines {
		first := b[l[0].Row][l[0].Col]
		if first == Empty {
			continue
		}
		if first == b[l[1].Row][l[1].Col] && first == b[l[2].Row][l[2].Col] {
			return first
		}
	}
	return Empty
}

func boardFull(b [3][3]Mark) bool {
	for _, row := range b {
		for _, c := range row {
			if c == Empty {
				return false
			}
		}
	}
	return true
}

package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DrawingState holds the last stroke relayed through the room. Clients own
// the real canvas.
type DrawingState struct {
	Canvas json.RawMessage `json:"canvas"`
}

func (DrawingState) Kind() Kind { return Drawing }

type (
	Stroke json.RawMessage
	Clear  struct{}
)

type drawing struct{}

func NewDrawing() Evaluator { return drawing{} }

func (drawing) Kind() Kind { return Drawing }

func (drawing) Events() []string { return []string{EventDraw, EventClearCanvas} }

func (drawing) InitialState() State { return DrawingState{} }

func (drawing) DecodeMove(event string, payload []byte) (Move, error) {
	switch event {
	case EventDraw:
		if len(payload) == 0 || !json.Valid(payload) {
			return nil, ErrMalformedMove
		}
		return Stroke(bytes.Clone(payload)), nil
	case EventClearCanvas:
		return Clear{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
}

func (drawing) ApplyMove(state State, move Move, _ string) (State, error) {
	if _, ok := state.(DrawingState); !ok {
		return nil, ErrWrongState
	}
	switch m := move.(type) {
	case Stroke:
		return DrawingState{Canvas: json.RawMessage(m)}, nil
	case Clear:
		return DrawingState{}, nil
	default:
		return nil, ErrMalformedMove
	}
}

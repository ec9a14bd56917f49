package game

import (
	"partyrelay/rules"
	"slices"
	"time"
)

type Player struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Room is only ever touched by the hub goroutine that owns its registry.
type Room struct {
	ID        string
	Kind      rules.Kind
	State     rules.State
	Players   []Player
	CreatedAt time.Time
	evaluator rules.Evaluator
}

// AddPlayer appends p in join order. It reports false when p is already in
// the room.
func (r *Room) AddPlayer(p Player) bool {
	if r.HasPlayer(p.ID) {
		return false
	}
	r.Players = append(r.Players, p)
	if roster, ok := r.evaluator.(rules.Roster); ok && r.State != nil {
		r.State = roster.Seat(r.State, p.ID)
	}
	return true
}

func (r *Room) RemovePlayer(id string) bool {
	i := slices.IndexFunc(r.Players, func(p Player) bool { return p.ID == id })
	if i < 0 {
		return false
	}
	r.Players = slices.Delete(r.Players, i, i+1)
	if roster, ok := r.evaluator.(rules.Roster); ok && r.State != nil {
		r.State = roster.Unseat(r.State, id)
	}
	return true
}

func (r *Room) HasPlayer(id string) bool {
	return slices.ContainsFunc(r.Players, func(p Player) bool { return p.ID == id })
}

func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0
}

func (r *Room) PlayerList() []Player {
	return slices.Clone(r.Players)
}

// Apply runs a move event through the room's evaluator and keeps the new
// state. The state is left untouched on error.
func (r *Room) Apply(event string, payload []byte, actorID string) error {
	if r.evaluator == nil {
		return rules.ErrUnknownKind
	}
	move, err := r.evaluator.DecodeMove(event, payload)
	if err != nil {
		return err
	}
	next, err := r.evaluator.ApplyMove(r.State, move, actorID)
	if err != nil {
		return err
	}
	r.State = next
	return nil
}

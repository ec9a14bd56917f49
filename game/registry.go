package game

import (
	"cmp"
	"partyrelay/rules"
	"slices"
	"strconv"
	"strings"
	"time"
)

type RoomDescription struct {
	ID        string     `json:"id"`
	Kind      rules.Kind `json:"kind"`
	Players   int        `json:"players"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Registry maps room ids to rooms. It holds no lock: one hub goroutine owns
// each registry.
type Registry struct {
	table rules.Table
	rooms map[string]*Room
	now   func() time.Time
}

func NewRegistry(table rules.Table, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		table: table,
		rooms: map[string]*Room{},
		now:   now,
	}
}

// GetOrCreate returns the room with the given id, creating it with the
// kind's initial state when it does not exist yet.
func (reg *Registry) GetOrCreate(roomID string, kind rules.Kind) *Room {
	if room, ok := reg.rooms[roomID]; ok {
		return room
	}

	room := &Room{
		ID:        roomID,
		Kind:      kind,
		Players:   []Player{},
		CreatedAt: reg.now(),
	}
	if e, ok := reg.table.Lookup(kind); ok {
		room.evaluator = e
		room.State = e.InitialState()
	}
	reg.rooms[roomID] = room
	return room
}

func (reg *Registry) Find(roomID string) (*Room, bool) {
	room, ok := reg.rooms[roomID]
	return room, ok
}

func (reg *Registry) Remove(roomID string) {
	delete(reg.rooms, roomID)
}

func (reg *Registry) Len() int {
	return len(reg.rooms)
}

// NewRoomID derives an id from the current time, suffixed when a room with
// that id is still live.
func (reg *Registry) NewRoomID() string {
	base := "room-" + strconv.FormatInt(reg.now().UnixMilli(), 36)
	id := base
	for n := 2; ; n++ {
		if _, taken := reg.rooms[id]; !taken {
			return id
		}
		id = base + "-" + strconv.Itoa(n)
	}
}

// Describe lists rooms oldest first.
func (reg *Registry) Describe() []RoomDescription {
	out := make([]RoomDescription, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		out = append(out, RoomDescription{
			ID:        room.ID,
			Kind:      room.Kind,
			Players:   len(room.Players),
			CreatedAt: room.CreatedAt,
		})
	}
	slices.SortFunc(out, func(a, b RoomDescription) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return out
}

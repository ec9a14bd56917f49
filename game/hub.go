package game

import (
	"context"
	"encoding/json"
	"fmt"
	"partyrelay/rules"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Hub serves one namespace. A single goroutine (Run) owns the registry and
// every client's session state, so events are applied one at a time. All hub
// channels are unbuffered: calls made by one goroutine are handled in order.
type Hub struct {
	kind          rules.Kind
	evaluator     rules.Evaluator
	registry      *Registry
	clients       map[string]*Client
	rejectInvalid bool
	now           func() time.Time
	logger        zerolog.Logger

	register chan *Client
	inbox    chan packet
	leave    chan *Client
	statsReq chan chan Stats
	done     chan struct{}
}

type HubOption func(*Hub)

// WithRejectInvalidMoves makes the hub answer dropped events with
// moveRejected instead of staying silent.
func WithRejectInvalidMoves(reject bool) HubOption {
	return func(h *Hub) { h.rejectInvalid = reject }
}

func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

func NewHub(kind rules.Kind, table rules.Table, logger zerolog.Logger, opts ...HubOption) (*Hub, error) {
	evaluator, ok := table.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", rules.ErrUnknownKind, kind)
	}

	h := &Hub{
		kind:      kind,
		evaluator: evaluator,
		clients:   map[string]*Client{},
		now:       time.Now,
		logger:    logger.With().Str("namespace", string(kind)).Logger(),
		register:  make(chan *Client),
		inbox:     make(chan packet),
		leave:     make(chan *Client),
		statsReq:  make(chan chan Stats),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.registry = NewRegistry(table, h.now)
	return h, nil
}

func (h *Hub) Kind() rules.Kind {
	return h.kind
}

func (h *Hub) Register(ctx context.Context, c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch hands an inbound event to the hub. It reports false once the hub
// has stopped.
func (h *Hub) Dispatch(c *Client, env Envelope) bool {
	select {
	case h.inbox <- packet{from: c, envelope: env}:
		return true
	case <-h.done:
		return false
	}
}

// Leave blocks until the hub has taken c off its books, or the hub is
// stopped.
func (h *Hub) Leave(c *Client) {
	select {
	case h.leave <- c:
	case <-h.done:
	}
}

func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	respChan := make(chan Stats, 1)
	select {
	case h.statsReq <- respChan:
	case <-h.done:
		return Stats{}, ErrHubClosed
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case stats := <-respChan:
		return stats, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// Run processes events until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info().Msg("hub started")
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c.id] = c
			h.logger.Debug().Str("client", c.id).Msg("client connected")
		case p := <-h.inbox:
			h.handlePacket(p)
		case c := <-h.leave:
			h.handleLeave(c)
		case resp := <-h.statsReq:
			resp <- Stats{
				Kind:        h.kind,
				Connections: len(h.clients),
				Rooms:       h.registry.Describe(),
			}
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	for id, c := range h.clients {
		delete(h.clients, id)
		c.state = Disconnected
		close(c.outbox)
	}
	h.logger.Info().Msg("hub stopped")
}

func (h *Hub) handlePacket(p packet) {
	c := p.from
	if h.clients[c.id] != c {
		return
	}

	event := p.envelope.Event
	var err error
	switch event {
	case EventJoinGame:
		err = h.handleJoin(c, p.envelope.Data)
	case EventChatMessage:
		err = h.handleChat(c, p.envelope.Data)
	default:
		err = h.handleMove(c, event, p.envelope.Data)
	}

	if err != nil {
		h.reject(c, event, err)
	}
}

func (h *Hub) handleJoin(c *Client, data json.RawMessage) error {
	if c.state == Joined {
		return ErrAlreadyJoined
	}

	var req joinRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("%w: %w", rules.ErrMalformedMove, err)
		}
	}
	user := parseUser(req.User)
	if user.Username == "" {
		user.Username = c.loginName
	}
	if user.Username == "" {
		return ErrMissingUsername
	}

	roomID := strings.TrimSpace(req.RoomID)
	if roomID == "" {
		roomID = h.registry.NewRoomID()
	}
	room := h.registry.GetOrCreate(roomID, h.kind)

	player := Player{
		ID:       c.id,
		Username: user.Username,
		Avatar:   user.Avatar,
		JoinedAt: h.now(),
	}
	h.broadcast(room, encode(EventPlayerJoined, player), "")
	room.AddPlayer(player)

	c.state = Joined
	c.username = user.Username
	c.roomID = room.ID

	c.Send(encode(EventJoinedRoom, joinedRoom{RoomID: room.ID}))
	c.Send(encode(EventGameState, room.State))
	c.Send(encode(EventPlayerList, room.PlayerList()))

	h.logger.Debug().Str("client", c.id).Str("room", room.ID).Str("username", user.Username).Msg("player joined")
	return nil
}

// parseUser accepts either a bare username string or a {username, avatar}
// object.
func parseUser(raw json.RawMessage) userInfo {
	var user userInfo
	if len(raw) == 0 {
		return user
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		user.Username = name
	} else if err := json.Unmarshal(raw, &user); err != nil {
		return userInfo{}
	}
	user.Username = strings.TrimSpace(user.Username)
	return user
}

func (h *Hub) handleChat(c *Client, data json.RawMessage) error {
	room, err := h.joinedRoom(c)
	if err != nil {
		return err
	}

	var req chatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("%w: %w", rules.ErrMalformedMove, err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyMessage
	}

	h.broadcast(room, encode(EventChatMessage, chatMessage{
		Username:  c.username,
		Text:      req.Text,
		Timestamp: h.now().UnixMilli(),
	}), "")
	return nil
}

func (h *Hub) handleMove(c *Client, event string, data json.RawMessage) error {
	room, err := h.joinedRoom(c)
	if err != nil {
		return err
	}

	if event == EventPlay {
		h.broadcast(room, encodeRaw(event, data), c.id)
		return nil
	}

	if !rules.Handles(h.evaluator, event) {
		return fmt.Errorf("%w: %s", rules.ErrUnknownEvent, event)
	}
	if err := room.Apply(event, data, c.id); err != nil {
		return err
	}

	if relayedToOthers[event] {
		h.broadcast(room, encodeRaw(event, data), c.id)
		return nil
	}
	h.broadcast(room, encode(EventGameState, room.State), "")
	return nil
}

func (h *Hub) joinedRoom(c *Client) (*Room, error) {
	if c.state != Joined {
		return nil, ErrNotJoined
	}
	room, ok := h.registry.Find(c.roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (h *Hub) handleLeave(c *Client) {
	if h.clients[c.id] != c {
		return
	}
	delete(h.clients, c.id)

	if c.state == Joined {
		if room, ok := h.registry.Find(c.roomID); ok {
			room.RemovePlayer(c.id)
			if room.IsEmpty() {
				h.registry.Remove(room.ID)
				h.logger.Debug().Str("room", room.ID).Msg("room evicted")
			} else {
				h.broadcast(room, encode(EventPlayerLeft, c.id), "")
				h.broadcast(room, encode(EventPlayerList, room.PlayerList()), "")
				if _, ok := h.evaluator.(rules.Roster); ok {
					h.broadcast(room, encode(EventGameState, room.State), "")
				}
			}
		}
	}

	c.state = Disconnected
	c.roomID = ""
	close(c.outbox)
	h.logger.Debug().Str("client", c.id).Msg("client disconnected")
}

func (h *Hub) reject(c *Client, event string, err error) {
	h.logger.Debug().Err(err).Str("client", c.id).Str("event", event).Msg("event dropped")
	if !h.rejectInvalid {
		return
	}
	c.Send(encode(EventMoveRejected, moveRejected{Event: event, Reason: reasonFor(err)}))
}

// broadcast sends data to every member of room except the client with id
// except.
func (h *Hub) broadcast(room *Room, data []byte, except string) {
	if data == nil {
		return
	}
	for _, p := range room.Players {
		if p.ID == except {
			continue
		}
		if member, ok := h.clients[p.ID]; ok {
			member.Send(data)
		}
	}
}

func encode(event string, v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return encodeRaw(event, data)
}

func encodeRaw(event string, data json.RawMessage) []byte {
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil
	}
	return frame
}

package game

import (
	"encoding/json"
	"errors"
	"partyrelay/rules"
	"time"
)

type WebsocketConnection interface {
	Close(reason string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// TokenVerifier resolves a login token to its username.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Envelope is the wire frame in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Session events. Move events are listed in package rules.
const (
	EventJoinGame     = "joinGame"
	EventChatMessage  = "chatMessage"
	EventPlay         = "play"
	EventGameState    = "gameState"
	EventPlayerJoined = "playerJoined"
	EventPlayerLeft   = "playerLeft"
	EventPlayerList   = "playerList"
	EventJoinedRoom   = "joinedRoom"
	EventMoveRejected = "moveRejected"
)

// relayedToOthers are forwarded as-is to every member but the sender,
// instead of broadcasting the new state.
var relayedToOthers = map[string]bool{
	rules.EventDraw:        true,
	rules.EventClearCanvas: true,
}

type SessionState int

const (
	Connected SessionState = iota
	Joined
	Disconnected
)

func (s SessionState) String() string {
	switch s {
	case Connected:
		return "connected"
	case Joined:
		return "joined"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

type packet struct {
	from     *Client
	envelope Envelope
}

type joinRequest struct {
	User   json.RawMessage `json:"user"`
	RoomID string          `json:"roomId"`
}

type userInfo struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type chatRequest struct {
	Text string `json:"text"`
}

type chatMessage struct {
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type joinedRoom struct {
	RoomID string `json:"roomId"`
}

type moveRejected struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

type Stats struct {
	Kind        rules.Kind        `json:"kind"`
	Connections int               `json:"connections"`
	Rooms       []RoomDescription `json:"rooms"`
}

// knownReasons are matched in order to give a rejected move a short reason.
var knownReasons = []error{
	rules.ErrGameOver,
	rules.ErrOutOfRange,
	rules.ErrCellOccupied,
	rules.ErrAlreadyAnswered,
	rules.ErrStaleQuestion,
	rules.ErrIncorrectGuess,
	rules.ErrMalformedMove,
	rules.ErrUnknownEvent,
	rules.ErrWrongState,
	rules.ErrUnknownKind,
	ErrNotJoined,
	ErrAlreadyJoined,
	ErrMissingUsername,
	ErrRoomNotFound,
	ErrEmptyMessage,
}

func reasonFor(err error) string {
	for _, known := range knownReasons {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "invalid-event"
}

const (
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	outboxSize     = 256
)

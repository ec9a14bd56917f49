package game

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client is one live websocket session. Its session fields are only read
// and written by the hub goroutine.
type Client struct {
	id        string
	loginName string
	socket    WebsocketConnection
	limiter   *rate.Limiter
	outbox    chan []byte
	stopped   chan struct{}
	ping      time.Duration
	logger    zerolog.Logger

	state    SessionState
	username string
	roomID   string
}

// NewClient builds a client. loginName is the username carried by the login
// cookie, possibly empty. A nil limiter lets every event through.
func NewClient(id, loginName string, socket WebsocketConnection, limiter *rate.Limiter, logger zerolog.Logger) *Client {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Client{
		id:        id,
		loginName: loginName,
		socket:    socket,
		limiter:   limiter,
		outbox:    make(chan []byte, outboxSize),
		stopped:   make(chan struct{}),
		ping:      pingInterval,
		logger:    logger.With().Str("client", id).Logger(),
		state:     Connected,
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send queues data without blocking. A full outbox drops the message, and
// so does a client whose write pump has stopped.
func (c *Client) Send(data []byte) bool {
	if data == nil {
		return false
	}
	select {
	case <-c.stopped:
		return false
	default:
	}
	select {
	case c.outbox <- data:
		return true
	default:
		c.logger.Warn().Msg("outbox full, dropping message")
		return false
	}
}

// ReadPump forwards inbound frames to the hub until the socket fails, then
// tells the hub the client is gone.
func (c *Client) ReadPump(h *Hub) {
	defer h.Leave(c)

	for {
		data, err := c.socket.Read()
		if err != nil {
			c.logger.Debug().Err(err).Msg("read loop ended")
			return
		}

		if !c.limiter.Allow() {
			c.logger.Debug().Msg("rate limited, dropping event")
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			c.logger.Debug().Err(err).Msg("unreadable frame")
			continue
		}

		if !h.Dispatch(c, env) {
			return
		}
	}
}

// WritePump drains the outbox and keeps the connection alive with pings. It
// closes the socket once the hub closes the outbox.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.ping)
	defer ticker.Stop()
	defer close(c.stopped)

	for {
		select {
		case data, ok := <-c.outbox:
			if !ok {
				c.socket.Close("bye")
				return
			}
			if err := c.socket.Write(data); err != nil {
				c.logger.Debug().Err(err).Msg("write failed")
				c.socket.Close("write-failed")
				return
			}
		case <-ticker.C:
			if err := c.socket.Ping(); err != nil {
				c.logger.Debug().Err(err).Msg("ping failed")
				c.socket.Close("ping-failed")
				return
			}
		}
	}
}

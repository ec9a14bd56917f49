package game

import (
	"net/http"
	"partyrelay/rules"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const TokenCookie = "token"

type Handler struct {
	hubs      map[rules.Kind]*Hub
	tokens    TokenVerifier
	upgrader  websocket.Upgrader
	rateLimit rate.Limit
	burst     int
	logger    zerolog.Logger
}

type HandlerOption func(*Handler)

// WithOriginCheck replaces the upgrader's same-origin check.
func WithOriginCheck(check func(origin string) bool) HandlerOption {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return check(r.Header.Get("Origin"))
		}
	}
}

// WithRateLimit caps inbound events per connection. A non-positive rate
// disables the limit.
func WithRateLimit(perSecond float64, burst int) HandlerOption {
	return func(h *Handler) {
		if perSecond <= 0 {
			h.rateLimit = rate.Inf
			return
		}
		h.rateLimit = rate.Limit(perSecond)
		h.burst = burst
	}
}

// NewHandler serves the given hubs. tokens may be nil, in which case the
// login cookie is ignored.
func NewHandler(hubs []*Hub, tokens TokenVerifier, logger zerolog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		hubs:   make(map[rules.Kind]*Hub, len(hubs)),
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		rateLimit: rate.Inf,
		logger:    logger,
	}
	for _, hub := range hubs {
		h.hubs[hub.Kind()] = hub
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts one websocket route per hub at /<kind>.
func (h *Handler) Register(r gin.IRoutes) {
	for _, kind := range rules.Kinds() {
		if _, ok := h.hubs[kind]; ok {
			r.GET("/"+string(kind), h.ServeNamespace(kind))
		}
	}
}

func (h *Handler) ServeNamespace(kind rules.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		hub, ok := h.hubs[kind]
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown-namespace"})
			return
		}

		loginName := h.loginName(ctx)

		conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			h.logger.Warn().Err(err).
				Str("ip", ctx.ClientIP()).
				Str("user_agent", ctx.Request.UserAgent()).
				Msg("websocket upgrade failed")
			return
		}

		socket := NewWebsocketConnection(conn)
		client := NewClient(uuid.NewString(), loginName, socket, h.newLimiter(), h.logger)

		if err := hub.Register(ctx.Request.Context(), client); err != nil {
			h.logger.Warn().Err(err).Str("namespace", string(kind)).Msg("client rejected")
			socket.Close(err.Error())
			return
		}

		go client.WritePump()
		go client.ReadPump(hub)
	}
}

func (h *Handler) loginName(ctx *gin.Context) string {
	if h.tokens == nil {
		return ""
	}
	token, err := ctx.Cookie(TokenCookie)
	if err != nil || token == "" {
		return ""
	}
	username, err := h.tokens.Verify(token)
	if err != nil {
		h.logger.Debug().Err(err).Msg("ignoring login cookie")
		return ""
	}
	return username
}

func (h *Handler) newLimiter() *rate.Limiter {
	if h.rateLimit == rate.Inf {
		return nil
	}
	return rate.NewLimiter(h.rateLimit, h.burst)
}

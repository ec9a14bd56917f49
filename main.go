package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"partyrelay/auth"
	"partyrelay/config"
	"partyrelay/crypto"
	"partyrelay/game"
	"partyrelay/logger"
	"partyrelay/migrations"
	"partyrelay/rules"
	"partyrelay/storage"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	allowed := func(origin string) bool {
		return slices.Contains(allowedOrigins, config.AnyOrigin) || slices.Contains(allowedOrigins, origin)
	}

	r := gin.New()
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		if allowed(ctx.Request.Header.Get("Origin")) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  allowed,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func buildTable(cfg config.Config, words rules.WordSource) rules.Table {
	return rules.NewTable(
		rules.NewTicTacToe(),
		rules.NewTrivia(cfg.Questions()),
		rules.NewDrawing(),
		rules.NewDice(cfg.DiceTarget, rules.RollDie),
		rules.NewWordGuess(words),
		rules.NewRockPaperScissors(),
	)
}

// newServer wires every route. The returned hubs must be run by the caller.
func newServer(cfg config.Config, l zerolog.Logger, words rules.WordSource) (*gin.Engine, []*game.Hub, error) {
	table := buildTable(cfg, words)

	hubs := make([]*game.Hub, 0, len(table))
	for _, kind := range table.Kinds() {
		hub, err := game.NewHub(kind, table, l, game.WithRejectInvalidMoves(cfg.RejectInvalidMoves))
		if err != nil {
			return nil, nil, err
		}
		hubs = append(hubs, hub)
	}

	tokenManager := crypto.NewJWTManager(cfg.JWTKey, cfg.TokenAge)
	authService := auth.NewService(auth.NewMemoryUserStore(), tokenManager)
	authHandler := auth.NewAuthHandler(authService, cfg.TokenAge, l)
	gameHandler := game.NewHandler(hubs, tokenManager, l,
		game.WithOriginCheck(cfg.AllowsOrigin),
		game.WithRateLimit(cfg.EventsPerSecond, cfg.EventsBurst),
	)

	r := CreateServer(cfg.AllowedOrigins)
	r.Use(logger.Middleware(l), gin.Recovery())

	r.GET("/", indexHandler(table.Kinds()))
	r.GET("/stats", statsHandler(hubs))
	authHandler.Register(r)
	gameHandler.Register(r)
	if cfg.StaticDir != "" {
		r.Static("/static", cfg.StaticDir)
	}
	r.NoRoute(notFoundHandler(r))

	return r, hubs, nil
}

func indexHandler(kinds []rules.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"name": "partyrelay", "games": kinds})
	}
}

func statsHandler(hubs []*game.Hub) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		namespaces := make([]game.Stats, 0, len(hubs))
		for _, hub := range hubs {
			stats, err := hub.Stats(reqCtx)
			if err != nil {
				ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			namespaces = append(namespaces, stats)
		}
		ctx.JSON(http.StatusOK, gin.H{"namespaces": namespaces})
	}
}

func notFoundHandler(r *gin.Engine) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		routes := []string{}
		for _, route := range r.Routes() {
			routes = append(routes, route.Method+" "+route.Path)
		}
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not-found", "routes": routes})
	}
}

const wordPoolSize = 64

// wordSource prefers the words table and falls back to the configured list.
// Words from the table are prefetched so room creation never waits on it.
func wordSource(ctx context.Context, cfg config.Config, l zerolog.Logger) (rules.WordSource, func()) {
	list := slices.Clone(cfg.Words)
	if cfg.WordsFile != "" {
		fromFile, err := storage.LoadWordsFile(cfg.WordsFile)
		if err != nil {
			l.Error().Err(err).Msg("ignoring words file")
		}
		list = append(list, fromFile...)
	}
	configured := list
	if len(list) == 0 {
		list = storage.DefaultWords
	}
	fallback := storage.NewStaticWords(list)

	if cfg.PostgresURL == "" {
		return fallback, func() {}
	}

	if err := migrations.Migrate(cfg.PostgresURL); err != nil {
		l.Error().Err(err).Msg("migrations failed, using built-in words")
		return fallback, func() {}
	}

	repo, err := storage.NewPostgresRepo(ctx, cfg.PostgresURL)
	if err != nil {
		l.Error().Err(err).Msg("postgres unavailable, using built-in words")
		return fallback, func() {}
	}

	if len(configured) > 0 {
		if n, err := repo.AddWords(ctx, configured...); err != nil {
			l.Warn().Err(err).Msg("could not store configured words")
		} else {
			l.Info().Int64("inserted", n).Msg("configured words stored")
		}
	}

	pool := storage.NewWordPool(repo, fallback, wordPoolSize, l.With().Str("component", "words").Logger())
	go pool.Run(ctx)
	return pool, repo.Close
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	l := logger.New(cfg.Debug, os.Stdout)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.GeneratedJWTKey {
		l.Warn().Msg("JWT_KEY not set, login tokens will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	words, closeWords := wordSource(ctx, cfg, l)
	defer closeWords()

	r, hubs, err := newServer(cfg, l, words)
	if err != nil {
		l.Fatal().Err(err).Msg("server setup failed")
	}

	wg := sync.WaitGroup{}
	for _, hub := range hubs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Run(ctx)
		}()
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("server stopped")
		}
	}()
	l.Info().Str("addr", cfg.Addr).Strs("origins", cfg.AllowedOrigins).Msg("server started")

	<-ctx.Done()
	l.Info().Msg("SIGTERM or SIGINT received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("graceful shutdown failed")
	}
	wg.Wait()
	l.Info().Msg("bye")
}

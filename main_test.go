package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"partyrelay/config"
	"partyrelay/game"
	"partyrelay/storage"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFProtection(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	r := CreateServer([]string{"http://localhost:3000", "https://oussama.com"})

	r.GET("/testroute", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "success")
	})

	type testCase struct {
		name           string
		method         string
		path           string
		origin         string
		expectedStatus int
		expectedBody   string
	}

	tests := []testCase{
		{
			name:           "Health check should be public",
			method:         http.MethodGet,
			path:           "/health",
			origin:         "",
			expectedStatus: http.StatusOK,
			expectedBody:   "healthy",
		},
		{
			name:           "Allowed origin should pass",
			method:         http.MethodGet,
			path:           "/testroute",
			origin:         "https://oussama.com",
			expectedStatus: http.StatusOK,
			expectedBody:   "success",
		},
		{
			name:           "Disallowed origin should be forbidden",
			method:         http.MethodGet,
			path:           "/testroute",
			origin:         "http://evil.com",
			expectedStatus: http.StatusForbidden,
			expectedBody:   "forbidden origin",
		},
		{
			name:           "Missing origin should be forbidden",
			method:         http.MethodGet,
			path:           "/testroute",
			expectedStatus: http.StatusForbidden,
			expectedBody:   "forbidden origin",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.origin != "" {
				req.Header.Add("Origin", tc.origin)
			}
			res := httptest.NewRecorder()

			r.ServeHTTP(res, req)

			assert.Equal(t, tc.expectedStatus, res.Code)
			assert.Equal(t, tc.expectedBody, res.Body.String())
		})
	}
}

func TestWildcardOrigin(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	r := CreateServer([]string{"*"})
	r.GET("/open", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	for _, origin := range []string{"", "http://anything.example"} {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		res := httptest.NewRecorder()
		r.ServeHTTP(res, req)
		assert.Equal(t, http.StatusOK, res.Code, "origin %q", origin)
	}
}

func TestCORSHeaders(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	allowedOrigins := []string{"http://localhost:3000", "https://prod.example.com"}

	tests := []struct {
		name        string
		method      string
		reqHeaders  map[string]string
		wantCode    int
		wantHeaders map[string]string
	}{
		{
			name:   "preflight request from allowed origin",
			method: http.MethodOptions,
			reqHeaders: map[string]string{
				"Origin":                        "http://localhost:3000",
				"Access-Control-Request-Method": "POST",
			},
			wantCode: http.StatusNoContent,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin":      "http://localhost:3000",
				"Access-Control-Allow-Methods":     "GET,POST,PUT,DELETE,OPTIONS",
				"Access-Control-Allow-Credentials": "true",
			},
		},
		{
			name:   "preflight from forbidden origin",
			method: http.MethodOptions,
			reqHeaders: map[string]string{
				"Origin":                        "http://evil.com",
				"Access-Control-Request-Method": "POST",
			},
			wantCode: http.StatusForbidden,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin": "",
			},
		},
		{
			name:   "actual POST request with allowed origin",
			method: http.MethodPost,
			reqHeaders: map[string]string{
				"Origin": "https://prod.example.com",
			},
			wantCode: http.StatusOK,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin":      "https://prod.example.com",
				"Access-Control-Allow-Credentials": "true",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := CreateServer(allowedOrigins)
			r.POST("/test", func(c *gin.Context) { c.Status(200) })

			req := httptest.NewRequest(tc.method, "/test", nil)
			for k, v := range tc.reqHeaders {
				req.Header.Set(k, v)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			for k, v := range tc.wantHeaders {
				assert.Equal(t, v, w.Header().Get(k), "Header %s mismatch", k)
			}
		})
	}
}

const testOrigin = "http://localhost:3000"

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.AllowedOrigins = []string{testOrigin}
	cfg.JWTKey = "test-key"
	cfg.StaticDir = t.TempDir()
	return cfg
}

// startServer runs the fully wired router and its hubs until the test ends.
func startServer(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r, hubs, err := newServer(cfg, zerolog.Nop(), storage.NewStaticWords([]string{"gopher"}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	for _, hub := range hubs {
		go hub.Run(ctx)
	}
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	return res
}

func TestRoutes(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticDir, "hello.txt"), []byte("hi there"), 0o600))
	r := startServer(t, cfg)

	t.Run("index", func(t *testing.T) {
		res := do(r, http.MethodGet, "/", "")
		assert.Equal(t, http.StatusOK, res.Code)
		assert.JSONEq(t, `{"name":"partyrelay","games":["tic-tac-toe","trivia","drawing","dice","word-guess","rock-paper-scissors"]}`, res.Body.String())
	})

	t.Run("login", func(t *testing.T) {
		res := do(r, http.MethodPost, "/login", `{"username":"naruto"}`)
		assert.Equal(t, http.StatusOK, res.Code)
		assert.JSONEq(t, `{"success":true,"username":"naruto"}`, res.Body.String())
		require.NotEmpty(t, res.Result().Cookies())

		res = do(r, http.MethodPost, "/login", `{}`)
		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.JSONEq(t, `{"error":"Username is required"}`, res.Body.String())
	})

	t.Run("stats", func(t *testing.T) {
		res := do(r, http.MethodGet, "/stats", "")
		assert.Equal(t, http.StatusOK, res.Code)
		var body struct {
			Namespaces []game.Stats `json:"namespaces"`
		}
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
		assert.Len(t, body.Namespaces, 6)
	})

	t.Run("static", func(t *testing.T) {
		res := do(r, http.MethodGet, "/static/hello.txt", "")
		assert.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "hi there", res.Body.String())
	})

	t.Run("not found lists routes", func(t *testing.T) {
		res := do(r, http.MethodGet, "/nope", "")
		assert.Equal(t, http.StatusNotFound, res.Code)
		var body struct {
			Error  string   `json:"error"`
			Routes []string `json:"routes"`
		}
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
		assert.Equal(t, "not-found", body.Error)
		assert.Contains(t, body.Routes, "POST /login")
		assert.Contains(t, body.Routes, "GET /tic-tac-toe")
		assert.Contains(t, body.Routes, "GET /health")
	})
}

func TestWebsocketEndToEnd(t *testing.T) {
	t.Parallel()
	r := startServer(t, testConfig(t))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	login := do(r, http.MethodPost, "/login", `{"username":"sakura"}`)
	require.Equal(t, http.StatusOK, login.Code)
	var token string
	for _, c := range login.Result().Cookies() {
		if c.Name == "token" {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	header := http.Header{}
	header.Set("Origin", testOrigin)
	header.Set("Cookie", "token="+token)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/word-guess"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(game.Envelope{Event: "joinGame", Data: json.RawMessage(`{"roomId":"w1"}`)}))
	require.NoError(t, conn.WriteJSON(game.Envelope{Event: "submitGuess", Data: json.RawMessage(`{"guess":"GOPHER"}`)}))

	var events []game.Envelope
	for range 4 {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var env game.Envelope
		require.NoError(t, conn.ReadJSON(&env))
		events = append(events, env)
	}

	assert.Equal(t, "joinedRoom", events[0].Event)
	assert.Equal(t, "gameState", events[1].Event)
	assert.Equal(t, "playerList", events[2].Event)
	assert.Contains(t, string(events[2].Data), `"username":"sakura"`)
	assert.Equal(t, "gameState", events[3].Event)
	assert.Contains(t, string(events[3].Data), `"gameOver":true`)

	header.Set("Origin", "http://evil.com")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWordSourceWithoutPostgres(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("comet\n"), 0o600))

	cfg := testConfig(t)
	cfg.Words = []string{"nebula"}
	cfg.WordsFile = path

	words, closeWords := wordSource(context.Background(), cfg, zerolog.Nop())
	defer closeWords()
	assert.ElementsMatch(t, []string{"nebula", "comet"}, words.Generate(5))

	cfg.Words = nil
	cfg.WordsFile = ""
	words, _ = wordSource(context.Background(), cfg, zerolog.Nop())
	assert.Len(t, words.Generate(3), 3)
}

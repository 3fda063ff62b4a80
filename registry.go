package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

// Admission failures, mapped onto the wire error codes by the HTTP layer.
var (
	errGameNotFound    = errors.New("game not found")
	errDuplicatePlayer = errors.New("player already in the game")
	errGameFull        = errors.New("game is full")
	errGameInProgress  = errors.New("game already in progress")
)

// Registry owns the live room table. Rooms idle longer than idleTimeout are
// destroyed by the reaper; there is no other destruction path.
type Registry struct {
	mu          sync.Mutex
	games       map[string]*Game
	idleTimeout time.Duration
}

func newRegistry(idleTimeout time.Duration) *Registry {
	reg := &Registry{
		games:       make(map[string]*Game),
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go reg.reaperLoop()
	}
	return reg
}

// createGame seats the host at seat 0 of a fresh room and returns its code.
func (reg *Registry) createGame(cfg *Config, hostID, hostName string) string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for {
		code = newGameCode()
		if _, exists := reg.games[code]; !exists {
			break
		}
	}

	game := newGame(code, hostID, hostName)
	reg.games[code] = game
	go game.run(cfg)

	return code
}

// joinGame seats a player in an existing room, returning their seat index.
func (reg *Registry) joinGame(code, playerID, playerName string) (int, error) {
	game := reg.lookup(code)
	if game == nil {
		return 0, errGameNotFound
	}
	return game.addPlayer(playerID, playerName)
}

func (reg *Registry) lookup(code string) *Game {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return reg.games[code]
}

// reaperLoop periodically destroys rooms that have been idle longer than
// idleTimeout, disconnecting any remaining clients.
func (reg *Registry) reaperLoop() {
	ticker := time.NewTicker(reg.idleTimeout / 2)
	for range ticker.C {
		reg.reap(time.Now().Add(-reg.idleTimeout))
	}
}

func (reg *Registry) reap(cutoff time.Time) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for code, game := range reg.games {
		game.mu.RLock()
		last := game.lastActive
		game.mu.RUnlock()

		if last.Before(cutoff) {
			delete(reg.games, code)
			close(game.done)
			go game.closeAll()
		}
	}
}

type createGameRequest struct {
	HostID   string `json:"hostId"`
	HostName string `json:"hostName"`
}

type createGameResponse struct {
	GameCode string `json:"gameCode"`
	Message  string `json:"message"`
}

type joinGameRequest struct {
	GameCode   string `json:"gameCode"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type joinGameResponse struct {
	GameCode    string `json:"gameCode"`
	PlayerIndex int    `json:"playerIndex"`
	Message     string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code ErrorCode) {
	writeJSON(w, status, errorMessage(code))
}

// serveCreateGame handles POST /create-game. Creation always succeeds; a
// missing host ID is filled in server-side.
func serveCreateGame(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req createGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}

		if req.HostID == "" {
			req.HostID = uuid.NewString()
		}

		code := reg.createGame(cfg, req.HostID, req.HostName)
		logf(cfg, "GAMES: Created game %s for host %q from %s", code, req.HostName, realIP(r))

		writeJSON(w, http.StatusCreated, createGameResponse{
			GameCode: code,
			Message:  "Game " + code + " created",
		})
	}
}

// serveJoinGame handles POST /join-game.
func serveJoinGame(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req joinGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}

		if req.PlayerID == "" {
			req.PlayerID = uuid.NewString()
		}

		seat, err := reg.joinGame(req.GameCode, req.PlayerID, req.PlayerName)
		switch {
		case errors.Is(err, errGameNotFound):
			writeJSONError(w, http.StatusNotFound, ErrCodeGameNotFound)
			return
		case errors.Is(err, errDuplicatePlayer):
			writeJSONError(w, http.StatusConflict, ErrCodeDuplicatePlayer)
			return
		case errors.Is(err, errGameFull):
			writeJSONError(w, http.StatusConflict, ErrCodeGameFull)
			return
		case errors.Is(err, errGameInProgress):
			writeJSONError(w, http.StatusConflict, ErrCodeGameInProgress)
			return
		}

		logf(cfg, "GAMES: Player %q joined %s (seat %d)", req.PlayerName, req.GameCode, seat)

		writeJSON(w, http.StatusOK, joinGameResponse{
			GameCode:    req.GameCode,
			PlayerIndex: seat,
			Message:     "Player " + req.PlayerName + " joined the game",
		})
	}
}

// registerGameRoutes sets up the admission and per-room endpoints:
//   - POST /create-game       → new room, host seated
//   - POST /join-game         → seat a player in an existing room
//   - GET  /game/:code/ws     → per-room websocket (?player=<id>)
//   - GET  /game/:code/qr     → PNG QR code linking to the room
func registerGameRoutes(cfg *Config, mux *httprouter.Router, reg *Registry) {
	mux.POST(cfg.prefix+"/create-game", serveCreateGame(cfg, reg))
	mux.POST(cfg.prefix+"/join-game", serveJoinGame(cfg, reg))
	mux.GET(cfg.prefix+"/game/:code/ws", serveGameSocket(cfg, reg))
	mux.GET(cfg.prefix+"/game/:code/qr", serveGameQR(reg))
}

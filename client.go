package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one live socket bound to a seated player. A player keeps their
// seat while disconnected; only the binding comes and goes.
type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

func (c *Client) readPump(g *Game) {
	defer func() {
		select {
		case g.unreg <- c:
		case <-g.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg PlayerMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case g.actions <- actionRequest{client: c, msg: msg}:
		case <-g.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// serveGameSocket upgrades GET /game/:code/ws?player=<id>. The handshake
// fails closed: an unknown room or player gets a policy-violation close and
// never sees any game traffic.
func serveGameSocket(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")
		playerID := r.URL.Query().Get("player")

		game := reg.lookup(code)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "GAMES: Upgrade error from %s: %v", realIP(r), err)
			return
		}

		if game == nil || playerID == "" || !game.hasPlayer(playerID) {
			logf(cfg, "GAMES: Rejected connection to %q for %q from %s", code, playerID, realIP(r))
			deadline := time.Now().Add(timeout)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown game or player"),
				deadline)
			_ = conn.Close()
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
		}

		select {
		case game.register <- client:
		case <-game.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(game)
	}
}

// serveGameQR renders a PNG QR code for a room's join URL, so the host can
// put the room on a second screen.
func serveGameQR(reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")
		if reg.lookup(code) == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + "/game/" + code

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

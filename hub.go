/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/Seednode/battlejong/games/battlejong"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

type Client struct {
	conn     *websocket.Conn
	send     chan string
	playerID string // empty for spectators
}

type inboundMessage struct {
	client *Client
	raw    string
}

// Hub owns every socket and the current session. All session mutation
// happens on the goroutine running run, one event at a time.
type Hub struct {
	clients    map[*Client]bool
	session    *battlejong.Session
	newSession func() *battlejong.Session

	register chan *Client
	unreg    chan *Client
	inbound  chan inboundMessage
	done     <-chan struct{}
}

func newHub(done <-chan struct{}, newSession func() *battlejong.Session) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		newSession: newSession,
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		inbound:    make(chan inboundMessage),
		done:       done,
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.handleRegister(cfg, c)

		case c := <-h.unreg:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			logf(cfg, "GAMES: Socket for %q closed (%d connected)", c.playerID, len(h.clients))

		case m := <-h.inbound:
			h.handleMessage(cfg, m)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// handleRegister seats a new socket in the current session, starting a fresh
// session when the previous one has finished.
func (h *Hub) handleRegister(cfg *Config, c *Client) {
	h.clients[c] = true

	if h.session == nil || h.session.State() == battlejong.Complete {
		h.session = h.newSession()
		logf(cfg, "GAMES: New session waiting for players")
	}

	id, layout, err := h.session.Join()
	switch {
	case errors.Is(err, battlejong.ErrSessionFull):
		logf(cfg, "GAMES: Session full, socket joins as spectator (%d connected)", len(h.clients))
		return
	case err != nil:
		warnf("Unable to seat player: %v", err)
		return
	}

	c.playerID = id
	logf(cfg, "GAMES: Player %q joined (%d connected)", id, len(h.clients))

	h.sendTo(c, battlejong.Connected(id))

	if layout == nil {
		return
	}

	start, err := battlejong.Start(*layout)
	if err != nil {
		warnf("Unable to encode layout: %v", err)
		return
	}

	logf(cfg, "GAMES: Session ready, %d tiles dealt", layout.Tiles())
	h.broadcast(start)
}

// handleMessage is the boundary for client input: every failure is logged
// and dropped, and the socket stays open.
func (h *Hub) handleMessage(cfg *Config, m inboundMessage) {
	msg, err := battlejong.ParseInbound(m.raw)
	if err != nil {
		warnf("Ignoring message from %q: %v", m.client.playerID, err)
		return
	}

	if h.session == nil {
		warnf("Ignoring message from %q: %v", m.client.playerID, battlejong.ErrUnknownPlayer)
		return
	}

	out, err := h.session.Apply(msg)
	if err != nil {
		warnf("Rejected %q from %q: %v", m.raw, m.client.playerID, err)
		return
	}

	logf(cfg, "GAMES: Applied %q from %q", m.raw, m.client.playerID)

	if out == "" {
		return
	}

	if _, over := msg.(battlejong.Done); over {
		logf(cfg, "GAMES: Game over, winner %q", h.session.Winner())
	}

	h.broadcast(out)
}

func (h *Hub) sendTo(c *Client, msg string) {
	select {
	case c.send <- msg:
	default:
		warnf("Dropping socket for %q: send buffer full", c.playerID)
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast sends to every connected socket, seated or not. A stuck socket
// is dropped without affecting delivery to the rest.
func (h *Hub) broadcast(msg string) {
	for c := range h.clients {
		h.sendTo(c, msg)
	}
}

func (h *Hub) closeAll() {
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			warnf("Upgrade failed for %s: %v", realIP(r), err)
			return
		}

		logf(cfg, "SERVE: Game connection from %s", realIP(r))

		client := &Client{
			conn: conn,
			send: make(chan string, sendBuffer),
		}

		select {
		case h.register <- client:
		case <-h.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(h)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				warnf("Socket read failed: %v", err)
			}
			return
		}

		select {
		case h.inbound <- inboundMessage{client: c, raw: string(data)}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

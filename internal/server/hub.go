package server

import (
	"context"

	"doko3000/internal/protocol"

	log "github.com/sirupsen/logrus"
)

const (
	sendBuffer    = 256
	deliverBuffer = 1024
)

// Locator tells which table a player currently sits at.
type Locator interface {
	TableOf(playerID string) string
}

// Hub owns the websocket connections of this instance and delivers events to them.
// Rooms are resolved at delivery time, so a client follows its player from table to table.
type Hub struct {
	clients  map[*Client]bool
	sessions map[string]map[*Client]bool // player id -> connections

	locator    Locator
	register   chan *Client
	unregister chan *Client
	deliver    chan protocol.Event
	direct     chan directFrame
	done       chan struct{}
}

// directFrame answers a single connection.
type directFrame struct {
	client *Client
	frame  []byte
}

func NewHub(locator Locator) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		sessions:   make(map[string]map[*Client]bool),
		locator:    locator,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan protocol.Event, deliverBuffer),
		direct:     make(chan directFrame, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is done and closes all connections.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			if h.sessions[client.PlayerID] == nil {
				h.sessions[client.PlayerID] = make(map[*Client]bool)
			}
			h.sessions[client.PlayerID][client] = true
			log.Infof("Client %s (%s) connected", client.PlayerID, client.conn.RemoteAddr())

		case client := <-h.unregister:
			h.remove(client)

		case ev := <-h.deliver:
			h.dispatch(ev)

		case d := <-h.direct:
			if h.clients[d.client] {
				h.send(d.client, d.frame)
			}

		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			log.Info("Hub stopped.")
			return
		}
	}
}

// Publish queues an event for delivery. It implements service.Publisher.
func (h *Hub) Publish(ev protocol.Event) error {
	select {
	case h.deliver <- ev:
		return nil
	case <-h.done:
		return context.Canceled
	}
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) reply(client *Client, frame []byte) {
	select {
	case h.direct <- directFrame{client: client, frame: frame}:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	if s := h.sessions[client.PlayerID]; s != nil {
		delete(s, client)
		if len(s) == 0 {
			delete(h.sessions, client.PlayerID)
		}
	}
	close(client.send)
	log.Infof("Client %s disconnected", client.PlayerID)
}

func (h *Hub) dispatch(ev protocol.Event) {
	frame, err := ev.Frame()
	if err != nil {
		log.Errorf("Error creating %s message: %v", ev.Name, err)
		return
	}
	switch {
	case ev.Session != "":
		for client := range h.sessions[ev.Session] {
			h.send(client, frame)
		}
	case ev.Room != "":
		for playerID, clients := range h.sessions {
			if h.locator.TableOf(playerID) != ev.Room {
				continue
			}
			for client := range clients {
				h.send(client, frame)
			}
		}
	default:
		for client := range h.clients {
			h.send(client, frame)
		}
	}
}

// send drops clients that can't keep up.
func (h *Hub) send(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
		log.Warnf("Failed to send message to client %s (channel full), dropping it", client.PlayerID)
		h.remove(client)
	}
}

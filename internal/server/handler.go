package server

import (
	"context"
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

func newUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin) {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// ServeWs upgrades an authenticated request and starts the pumps of the new client.
// ctx bounds the lifetime of commands the client sends.
func ServeWs(ctx context.Context, hub *Hub, d Dispatcher, upgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request, playerID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		PlayerID: playerID,
	}
	if !hub.join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(ctx, d)
}

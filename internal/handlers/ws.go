package handlers

import (
	"log"
	"net/http"
	"sync"

	"github.com/easeplatform/buddy-chat/backend/internal/realtime"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// subscribeCommand is a client frame on the change-feed socket. Filters are
// single-column equalities; clients needing both roles of a table hold one
// subscription per column.
type subscribeCommand struct {
	Action string          `json:"action"` // "subscribe" or "unsubscribe"
	Filter realtime.Filter `json:"filter"`
}

// WSHandler serves the realtime change feed over websocket
type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// RegisterWSRoutes registers the websocket endpoint
func (h *WSHandler) RegisterWSRoutes(g *echo.Group) {
	g.GET("/ws", h.Serve)
}

// Serve upgrades the connection and relays hub events for the filters the
// client subscribes. Every subscription slot is released when the client
// unsubscribes or the connection closes.
func (h *WSHandler) Serve(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	out := make(chan realtime.Event, 64)
	done := make(chan struct{})
	var writeWG sync.WaitGroup

	writeWG.Add(1)
	go func() {
		defer writeWG.Done()
		for {
			select {
			case event := <-out:
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	subs := make(map[realtime.Filter]*realtime.Subscription)
	defer func() {
		close(done)
		for _, sub := range subs {
			h.hub.Unsubscribe(sub)
		}
		writeWG.Wait()
	}()

	for {
		var cmd subscribeCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: connection error for user %s: %v", userID, err)
			}
			return nil
		}

		switch cmd.Action {
		case "subscribe":
			if cmd.Filter.Value != userID {
				// Clients may only watch rows scoped to themselves.
				continue
			}
			if _, exists := subs[cmd.Filter]; exists {
				continue
			}
			sub := h.hub.Subscribe(cmd.Filter, 16)
			subs[cmd.Filter] = sub
			go relay(sub, out)
		case "unsubscribe":
			if sub, exists := subs[cmd.Filter]; exists {
				h.hub.Unsubscribe(sub)
				delete(subs, cmd.Filter)
			}
		}
	}
}

// relay copies one subscription's events onto the shared outbound channel
// until the subscription is closed.
func relay(sub *realtime.Subscription, out chan<- realtime.Event) {
	for event := range sub.C {
		select {
		case out <- event:
		default:
			log.Printf("ws: dropping event for slow connection (%s/%s)", sub.Filter.Table, sub.Filter.Column)
		}
	}
}

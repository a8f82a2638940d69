package events

import (
	"context"
	"sync"

	"crowdfunding-ledger-backend/internal/common/logger"
	"crowdfunding-ledger-backend/internal/features/events/models"

	"github.com/gorilla/websocket"
)

// Client is one websocket subscriber. A nil CampaignID subscribes to all
// campaigns.
type Client struct {
	Conn       *websocket.Conn
	CampaignID *uint64
	send       chan models.Event
}

// Hub broadcasts events to connected websocket clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan models.Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.Event, 256),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
	}
}

// Name implements Sink.
func (h *Hub) Name() string { return "websocket" }

// Send implements Sink. Events are dropped when the hub is stopped.
func (h *Hub) Send(ctx context.Context, event models.Event) error {
	select {
	case h.broadcast <- event:
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Register adds conn as a subscriber and starts its writer.
func (h *Hub) Register(conn *websocket.Conn, campaignID *uint64) *Client {
	c := &Client{Conn: conn, CampaignID: campaignID, send: make(chan models.Event, 64)}
	select {
	case h.register <- c:
		go h.writePump(c)
	case <-h.done:
		conn.Close()
	}
	return c
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer h.stop()
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			logger.Debug().Int("connection_count", len(h.clients)).Msg("WebSocket client registered")

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				logger.Debug().Int("connection_count", len(h.clients)).Msg("WebSocket client unregistered")
			}

		case event := <-h.broadcast:
			for c := range h.clients {
				if !c.wants(event) {
					continue
				}
				select {
				case c.send <- event:
				default:
					logger.Warn().Str("event_id", event.ID).Msg("WebSocket client too slow, disconnecting")
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) writePump(c *Client) {
	defer c.Conn.Close()
	for event := range c.send {
		if err := c.Conn.WriteJSON(event); err != nil {
			logger.Debug().Err(err).Msg("WebSocket write failed")
			h.Unregister(c)
			// Drain until the hub closes the channel.
			for range c.send {
			}
			return
		}
	}
}

func (c *Client) wants(event models.Event) bool {
	if c.CampaignID == nil {
		return true
	}
	return event.CampaignID != nil && *event.CampaignID == *c.CampaignID
}

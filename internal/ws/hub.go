// Package ws pushes stored messages to connected clients over
// websockets. The hub implements the workspace's Notifier contract and
// scopes fan-out to channel members through a membership check it does
// not own.
package ws

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/huddle-chat/huddle/internal/models"
)

// Membership answers "is this user in this channel" for fan-out scoping.
// Implemented by the workspace.
type Membership interface {
	IsMember(channelID, userID int64) bool
}

// Event is the wire envelope pushed to clients.
type Event struct {
	Type      string         `json:"type"`
	ChannelID int64          `json:"channel_id"`
	Message   models.Message `json:"message"`
}

type broadcast struct {
	channelID int64
	payload   []byte
}

type Hub struct {
	clients    map[*Client]bool
	broadcasts chan broadcast
	register   chan *Client
	unregister chan *Client

	membership Membership
	log        *zap.Logger
}

func NewHub(membership Membership, log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcasts: make(chan broadcast, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		membership: membership,
		log:        log,
	}
}

// Run owns the client set. Start it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case b := <-h.broadcasts:
			for client := range h.clients {
				if !h.membership.IsMember(b.channelID, client.userID) {
					continue
				}
				select {
				case client.send <- b.payload:
				default:
					// Slow consumer; drop the connection rather than
					// block the hub.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// MessageSent implements workspace.Notifier. Non-blocking: when the hub
// is saturated the event is dropped, since the store already holds the
// message and clients can page it in.
func (h *Hub) MessageSent(channelID int64, msg models.Message) {
	payload, err := json.Marshal(Event{Type: "message", ChannelID: channelID, Message: msg})
	if err != nil {
		h.log.Error("marshal ws event", zap.Error(err))
		return
	}
	select {
	case h.broadcasts <- broadcast{channelID: channelID, payload: payload}:
	default:
		h.log.Warn("ws broadcast queue full, dropping event", zap.Int64("channel_id", channelID))
	}
}

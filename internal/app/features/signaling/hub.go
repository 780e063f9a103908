// internal/app/features/signaling/hub.go
package signaling

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const defaultSendQueueSize = 64

// client is one WebSocket connection known to the hub. Outbound events are
// queued on send and drained by the connection's write pump so a slow reader
// never blocks relay dispatch.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Hub relays room-scoped signaling events between connections. It owns the
// Room Registry exclusively; nothing else mutates room membership. The hub
// never interprets offer/answer/candidate payloads — they pass through
// verbatim. Chat text and display names are user-authored, so those are
// sanitized on the way in like all user content on the platform.
type Hub struct {
	mu        sync.Mutex
	clients   map[string]*client
	registry  *Registry
	sanitizer *bluemonday.Policy
	queueSize int
	log       *zap.Logger
}

// NewHub creates a Hub with its own empty registry. sendQueueSize bounds the
// per-connection outbound queue; zero or negative selects the default.
func NewHub(sendQueueSize int, log *zap.Logger) *Hub {
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	return &Hub{
		clients:   make(map[string]*client),
		registry:  NewRegistry(),
		sanitizer: bluemonday.StrictPolicy(),
		queueSize: sendQueueSize,
		log:       log,
	}
}

// Register adds a freshly upgraded connection and returns its client handle.
func (h *Hub) Register(conn *websocket.Conn) *client {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.queueSize),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.log.Info("connection registered", zap.String("conn_id", c.id))
	return c
}

// Disconnect removes the connection from the hub and, if it had joined a
// room, announces the departure to the remaining members. Safe to call for
// connections that never joined a room.
func (h *Hub) Disconnect(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()

	roomID, userID, ok := h.registry.Remove(c.id)
	if !ok {
		return
	}
	h.log.Info("connection left room",
		zap.String("conn_id", c.id),
		zap.String("room_id", roomID),
		zap.String("user_id", userID))
	h.toAllInRoom(roomID, outboundMessage{Event: evUserDisconnected, UserID: userID})
}

// HandleMessage processes one inbound frame from the connection. Malformed
// messages are logged and dropped; signaling is best-effort and the channel
// has no request/response correlation to report errors on.
func (h *Hub) HandleMessage(c *client, data []byte) {
	msg, err := parseInbound(data)
	if err != nil {
		h.log.Warn("dropping malformed signaling message",
			zap.String("conn_id", c.id),
			zap.Error(err))
		return
	}

	switch msg.Event {
	case evJoinRoom:
		h.handleJoin(c, msg)

	case evOffer:
		h.toOthersInRoom(msg.RoomID, c.id, outboundMessage{
			Event:    evOffer,
			Offer:    msg.Offer,
			From:     msg.UserID,
			UserName: msg.UserName,
		})

	case evAnswer:
		h.toOthersInRoom(msg.RoomID, c.id, outboundMessage{
			Event:    evAnswer,
			Answer:   msg.Answer,
			From:     msg.UserID,
			UserName: msg.UserName,
		})

	case evICECandidate:
		h.toOthersInRoom(msg.RoomID, c.id, outboundMessage{
			Event:     evICECandidate,
			Candidate: msg.Candidate,
			From:      msg.UserID,
		})

	case evChatMessage:
		h.toAllInRoom(msg.RoomID, outboundMessage{
			Event:     evChatMessage,
			Message:   h.sanitizer.Sanitize(msg.Message),
			UserName:  h.sanitizer.Sanitize(msg.UserName),
			UserID:    msg.UserID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})

	case evEndSession:
		h.toAllInRoom(msg.RoomID, outboundMessage{Event: evSessionEnded, AdminID: msg.AdminID})

	case evLeaveRoom:
		roomID, userID, ok := h.registry.Remove(c.id)
		if !ok {
			return
		}
		h.toAllInRoom(roomID, outboundMessage{Event: evUserDisconnected, UserID: userID})
	}
}

// handleJoin registers the connection in the room, tells the new arrival
// about everyone already present, then tells everyone else about the new
// arrival. Registration returns the prior members under the registry's lock,
// so concurrent joins to the same room serialize: every pair learns about
// each other exactly once in each direction, which is what lets the clients
// build a full mesh.
func (h *Hub) handleJoin(c *client, msg inboundMessage) {
	userName := h.sanitizer.Sanitize(msg.UserName)

	existing := h.registry.RegisterJoin(c.id, msg.RoomID, msg.UserID, userName)

	h.log.Info("connection joined room",
		zap.String("conn_id", c.id),
		zap.String("room_id", msg.RoomID),
		zap.String("user_id", msg.UserID))

	for _, m := range existing {
		if m.ConnID == c.id {
			continue
		}
		h.sendTo(m.ConnID, outboundMessage{
			Event:    evUserConnected,
			UserID:   msg.UserID,
			UserName: userName,
		})
		h.sendTo(c.id, outboundMessage{
			Event:    evUserConnected,
			UserID:   m.UserID,
			UserName: m.UserName,
		})
	}
}

// BroadcastSessionEnded pushes an authoritative session-ended event to every
// connection in the room. Used by the lifecycle handlers when a session is
// ended over HTTP rather than through the socket.
func (h *Hub) BroadcastSessionEnded(roomID, endedBy string) {
	h.toAllInRoom(roomID, outboundMessage{Event: evSessionEnded, AdminID: endedBy})
}

// Stats reports the number of open connections and occupied rooms.
func (h *Hub) Stats() (connections, rooms int) {
	h.mu.Lock()
	connections = len(h.clients)
	h.mu.Unlock()
	return connections, h.registry.RoomCount()
}

// Presence returns the room's current members in join order.
func (h *Hub) Presence(roomID string) []Member {
	return h.registry.MembersOf(roomID)
}

// toAllInRoom delivers the event to every member of the room, sender
// included. Chat and session-ended use this so the originator's client runs
// the same code path as everyone else's.
func (h *Hub) toAllInRoom(roomID string, msg outboundMessage) {
	h.broadcast(roomID, "", msg)
}

// toOthersInRoom delivers the event to every member of the room except the
// sending connection. Offer/answer/candidate use this: a peer must never
// receive its own media description back.
func (h *Hub) toOthersInRoom(roomID, exceptConnID string, msg outboundMessage) {
	h.broadcast(roomID, exceptConnID, msg)
}

func (h *Hub) broadcast(roomID, exceptConnID string, msg outboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal outbound event failed", zap.Error(err))
		return
	}
	for _, m := range h.registry.MembersOf(roomID) {
		if m.ConnID == exceptConnID {
			continue
		}
		h.sendRaw(m.ConnID, msg.Event, data)
	}
}

func (h *Hub) sendTo(connID string, msg outboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal outbound event failed", zap.Error(err))
		return
	}
	h.sendRaw(connID, msg.Event, data)
}

// sendRaw enqueues without blocking. The lock is held across the lookup and
// the send so Disconnect cannot close the channel in between.
func (h *Hub) sendRaw(connID, event string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Warn("send queue full, dropping event",
			zap.String("conn_id", connID),
			zap.String("event", event))
	}
}

// internal/app/features/signaling/messages.go
package signaling

import (
	"encoding/json"
	"fmt"
)

// Inbound event names. These strings are the compatibility surface shared
// with the browser clients; renaming one breaks deployed apps.
const (
	evJoinRoom     = "join-room"
	evOffer        = "offer"
	evAnswer       = "answer"
	evICECandidate = "ice-candidate"
	evLeaveRoom    = "leave-room"
	evChatMessage  = "chat-message"
	evEndSession   = "end-session"
)

// Outbound event names.
const (
	evUserConnected    = "user-connected"
	evUserDisconnected = "user-disconnected"
	evSessionEnded     = "session-ended"
)

// inboundMessage is the single envelope for every client→relay event. Which
// fields are required depends on the event; validate() enforces that. The
// offer/answer/candidate payloads are opaque to the relay and forwarded
// verbatim.
type inboundMessage struct {
	Event    string `json:"event"`
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId,omitempty"`
	UserName string `json:"userName,omitempty"`
	To       string `json:"to,omitempty"`
	AdminID  string `json:"adminId,omitempty"`
	Message  string `json:"message,omitempty"`

	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// outboundMessage is the single envelope for every relay→client event.
type outboundMessage struct {
	Event    string `json:"event"`
	UserID   string `json:"userId,omitempty"`
	UserName string `json:"userName,omitempty"`
	From     string `json:"from,omitempty"`
	AdminID  string `json:"adminId,omitempty"`
	Message  string `json:"message,omitempty"`
	// Timestamp is stamped by the relay on chat messages (RFC 3339, UTC).
	Timestamp string `json:"timestamp,omitempty"`

	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

func parseInbound(data []byte) (inboundMessage, error) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return inboundMessage{}, err
	}
	if err := msg.validate(); err != nil {
		return inboundMessage{}, err
	}
	return msg, nil
}

func (m inboundMessage) validate() error {
	if m.RoomID == "" {
		return fmt.Errorf("%s message missing roomId", m.Event)
	}
	switch m.Event {
	case evJoinRoom:
		if m.UserID == "" {
			return fmt.Errorf("join-room message missing userId")
		}
	case evOffer:
		if len(m.Offer) == 0 {
			return fmt.Errorf("offer message missing offer payload")
		}
	case evAnswer:
		if len(m.Answer) == 0 {
			return fmt.Errorf("answer message missing answer payload")
		}
	case evICECandidate:
		if len(m.Candidate) == 0 {
			return fmt.Errorf("ice-candidate message missing candidate payload")
		}
	case evLeaveRoom:
		if m.UserID == "" {
			return fmt.Errorf("leave-room message missing userId")
		}
	case evChatMessage:
		if m.Message == "" {
			return fmt.Errorf("chat-message message missing message")
		}
		if m.UserID == "" {
			return fmt.Errorf("chat-message message missing userId")
		}
	case evEndSession:
		if m.AdminID == "" {
			return fmt.Errorf("end-session message missing adminId")
		}
	default:
		return fmt.Errorf("unsupported event %q", m.Event)
	}
	return nil
}

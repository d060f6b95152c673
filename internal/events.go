package internal

import "encoding/json"

// Event names exchanged with clients. Inbound and outbound events share one
// envelope shape so the transport never needs to know which is which.
const (
	EventCreateRoom  = "createRoom"
	EventJoinRoom    = "joinRoom"
	EventSendMessage = "sendMessage"
	EventLeaveRoom   = "leaveRoom"

	EventRoomCreated = "roomCreated"
	EventRoomJoined  = "roomJoined"
	EventUserJoined  = "userJoined"
	EventUserLeft    = "userLeft"
	EventNewMessage  = "newMessage"
	EventError       = "error"
)

// Envelope is the json frame carried on the wire: a named event plus its
// payload. The payload stays raw until the handler knows which struct to
// decode it into.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Message is one chat line in a room's history. Immutable once created; the
// id is unique and ordered by creation, the time field is preformatted for
// display.
type Message struct {
	ID   int64  `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
	Time string `json:"time"`
}

type CreateRoomRequest struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type SendMessageRequest struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type LeaveRoomRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type RoomCreatedEvent struct {
	RoomID string `json:"roomId"`
}

// RoomJoined carries the full history snapshot and the member list handed to
// a client the moment it enters a room.
type RoomJoinedEvent struct {
	Messages []Message `json:"messages"`
	Users    []string  `json:"users"`
}

type UserEvent struct {
	Username string `json:"username"`
}

// NewEnvelope builds an envelope for an outbound event. Marshal errors are
// not possible for the payload types used here, so they are swallowed.
func NewEnvelope(event string, data any) Envelope {
	raw, _ := json.Marshal(data)
	return Envelope{Event: event, Data: raw}
}

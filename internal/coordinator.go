package internal

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
)

// Conn is the transport-side handle for one client connection: a stable
// identity plus a fire-and-forget outbound event queue. The transport
// guarantees events from one connection arrive in order and never overlap;
// Send must not block.
type Conn interface {
	ID() string
	Send(env Envelope)
}

// User-facing error strings, kept verbatim from the original protocol.
const (
	errRoomExistsMsg  = "Room already exists"
	errInvalidAuthMsg = "Invalid room or password"
	errCreateRoomMsg  = "Error creating room"
)

// Coordinator applies client events to the room registry and session
// directory and fans the resulting events back out to connections.
//
// Membership transitions (join, leave, disconnect) serialize on one mutex so
// a room switch is atomic as far as any other request can observe: no third
// party ever sees a connection in both rooms, and the vacated room's userLeft
// always precedes the new room's userJoined. Message sends never take that
// mutex; they only contend on the target room's own lock, so traffic in
// different rooms fans out fully in parallel.
type Coordinator struct {
	registry *Registry
	sessions *Directory
	metrics  *Metrics

	mu sync.Mutex
}

func NewCoordinator(registry *Registry, sessions *Directory, metrics *Metrics) *Coordinator {
	return &Coordinator{registry: registry, sessions: sessions, metrics: metrics}
}

// HandleEvent dispatches one inbound envelope from a connection. Unknown
// events and undecodable payloads are dropped; nothing a client sends can
// take the server down.
func (c *Coordinator) HandleEvent(conn Conn, env Envelope) {
	switch env.Event {
	case EventCreateRoom:
		var req CreateRoomRequest
		if decodeEvent(env, &req) {
			c.createRoom(conn, req)
		}
	case EventJoinRoom:
		var req JoinRoomRequest
		if decodeEvent(env, &req) {
			c.joinRoom(conn, req)
		}
	case EventSendMessage:
		var req SendMessageRequest
		if decodeEvent(env, &req) {
			c.sendMessage(conn, req)
		}
	case EventLeaveRoom:
		var req LeaveRoomRequest
		if decodeEvent(env, &req) {
			c.leaveRoom(conn)
		}
	default:
		log.Printf("dropping unknown event %q from %s", env.Event, conn.ID())
	}
}

// HandleDisconnect is invoked by the transport when a connection's channel
// closes. Cleanup is best effort and never surfaces an error to anyone.
func (c *Coordinator) HandleDisconnect(conn Conn) {
	c.mu.Lock()
	sess, watchers, ok := c.vacate(conn.ID())
	c.mu.Unlock()
	if !ok {
		return
	}
	broadcast(watchers, NewEnvelope(EventUserLeft, UserEvent{Username: sess.Username}))
}

func (c *Coordinator) createRoom(conn Conn, req CreateRoomRequest) {
	if err := c.registry.Create(req.RoomID, req.Password); err != nil {
		if errors.Is(err, ErrRoomExists) {
			conn.Send(NewEnvelope(EventError, errRoomExistsMsg))
		} else {
			conn.Send(NewEnvelope(EventError, errCreateRoomMsg))
		}
		return
	}
	c.metrics.IncRoomCreated()
	conn.Send(NewEnvelope(EventRoomCreated, RoomCreatedEvent{RoomID: req.RoomID}))
	log.Printf("room created: %s", req.RoomID)
}

func (c *Coordinator) joinRoom(conn Conn, req JoinRoomRequest) {
	room, ok := c.registry.Get(req.RoomID)
	if !ok || !room.Authenticate(req.Password) {
		conn.Send(NewEnvelope(EventError, errInvalidAuthMsg))
		return
	}

	c.mu.Lock()
	prev, vacated, switching := c.vacate(conn.ID())
	history, users := room.Join(req.Username, func() {
		c.sessions.Bind(conn, req.Username, req.RoomID)
	})
	joined := c.sessions.InRoom(req.RoomID)
	c.mu.Unlock()

	// The vacated room hears about the departure before anyone hears about
	// the arrival.
	if switching {
		broadcast(vacated, NewEnvelope(EventUserLeft, UserEvent{Username: prev.Username}))
	}
	conn.Send(NewEnvelope(EventRoomJoined, RoomJoinedEvent{Messages: history, Users: users}))
	broadcast(joined, NewEnvelope(EventUserJoined, UserEvent{Username: req.Username}))
	log.Printf("%s joined room: %s", req.Username, req.RoomID)
}

// sendMessage appends to the history of the sender's bound room and fans the
// stored message out to every connection in it. Sends from connections with
// no session, or into rooms that vanished, are dropped without an error
// event. The message always goes to the session's room: a caller-supplied
// room id that disagrees with the binding is ignored rather than trusted.
func (c *Coordinator) sendMessage(conn Conn, req SendMessageRequest) {
	sess, ok := c.sessions.Lookup(conn.ID())
	if !ok {
		return
	}
	room, ok := c.registry.Get(sess.RoomID)
	if !ok {
		return
	}
	if req.RoomID != "" && req.RoomID != sess.RoomID {
		log.Printf("ignoring room %q on sendMessage from %s bound to %q", req.RoomID, conn.ID(), sess.RoomID)
	}
	if strings.TrimSpace(req.Message) == "" {
		return
	}
	room.Append(sess.Username, req.Message, func(msg Message) {
		broadcast(c.sessions.InRoom(sess.RoomID), NewEnvelope(EventNewMessage, msg))
	})
	c.metrics.IncMessage()
}

func (c *Coordinator) leaveRoom(conn Conn) {
	c.mu.Lock()
	sess, watchers, ok := c.vacate(conn.ID())
	c.mu.Unlock()
	if !ok {
		return
	}
	broadcast(watchers, NewEnvelope(EventUserLeft, UserEvent{Username: sess.Username}))
}

// vacate removes a connection's current membership and session binding and
// returns the remaining audience of the room it left. Caller must hold c.mu.
func (c *Coordinator) vacate(connID string) (Session, []Conn, bool) {
	sess, ok := c.sessions.Lookup(connID)
	if !ok {
		return Session{}, nil, false
	}
	if room, exists := c.registry.Get(sess.RoomID); exists {
		room.Leave(sess.Username, func() {
			c.sessions.Unbind(connID)
		})
	} else {
		c.sessions.Unbind(connID)
	}
	return sess, c.sessions.InRoom(sess.RoomID), true
}

func broadcast(conns []Conn, env Envelope) {
	for _, conn := range conns {
		conn.Send(env)
	}
}

func decodeEvent(env Envelope, out any) bool {
	if err := json.Unmarshal(env.Data, out); err != nil {
		log.Printf("dropping malformed %s payload: %v", env.Event, err)
		return false
	}
	return true
}

package internal

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 8192

	sendQueueSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// all origins are allowed; the browser frontend is served from a
		// different port in development.
		return true
	},
}

// Server ties the chat core to its HTTP/WebSocket surface.
type Server struct {
	registry    *Registry
	sessions    *Directory
	coordinator *Coordinator
	metrics     *Metrics
}

func NewServer() *Server {
	registry := NewRegistry()
	sessions := NewDirectory()
	metrics := NewMetrics()
	return &Server{
		registry:    registry,
		sessions:    sessions,
		coordinator: NewCoordinator(registry, sessions, metrics),
		metrics:     metrics,
	}
}

// Registry exposes the room registry for the HTTP side channel.
func (s *Server) Registry() *Registry { return s.registry }

// MetricsHandler returns the JSON counters endpoint.
func (s *Server) MetricsHandler() http.Handler { return s.metrics }

// wsConn wraps a single websocket connection behind the Conn interface: a
// uuid identity plus a buffered send queue drained by writePump.
type wsConn struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func (c *wsConn) ID() string { return c.id }

// Send enqueues an outbound envelope without blocking. If the client has
// fallen so far behind that its queue is full, the event is dropped;
// broadcasts are fire-and-forget and a stalled reader must not stall a room.
func (c *wsConn) Send(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Printf("dropping %s event for slow connection %s", env.Event, c.id)
	}
}

// ServeWS upgrades the request and starts the per-connection pumps. Each
// connection gets one reader and one writer goroutine; the reader drives the
// coordinator strictly sequentially, which is what gives per-connection
// event ordering.
func (s *Server) ServeWS(writer http.ResponseWriter, request *http.Request) {
	websocketConn, err := upgrader.Upgrade(writer, request, nil)
	if err != nil {
		log.Printf("upgrade error: %v", err)
		return
	}

	client := &wsConn{
		id:   uuid.NewString(),
		conn: websocketConn,
		send: make(chan []byte, sendQueueSize),
	}
	s.metrics.IncConn()

	go client.writePump()
	go s.readPump(client)
}

func (s *Server) readPump(client *wsConn) {
	defer func() {
		s.coordinator.HandleDisconnect(client)
		// The send channel is never closed: a broadcast racing the
		// disconnect may still enqueue. Closing the socket makes writePump's
		// next write fail and exit instead.
		client.conn.Close()
		s.metrics.DecConn()
	}()
	client.conn.SetReadLimit(maxMsgSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			// normal close or read error; the deferred cleanup unwinds the
			// session and notifies the room.
			break
		}
		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			log.Printf("dropping non-envelope frame from %s: %v", client.id, err)
			continue
		}
		s.coordinator.HandleEvent(client, env)
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

package internal

import "sync"

// Session is the live binding between one connection and the room/username
// it currently occupies.
type Session struct {
	Conn     Conn
	Username string
	RoomID   string
}

// Directory tracks which connection is bound to which (room, username) pair.
// It is the single source of truth for broadcast fan-out: a room's audience
// is exactly the connections bound to it at the moment of broadcast.
type Directory struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewDirectory() *Directory {
	return &Directory{sessions: make(map[string]Session)}
}

// Bind records or overwrites the session for a connection.
func (d *Directory) Bind(conn Conn, username, roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[conn.ID()] = Session{Conn: conn, Username: username, RoomID: roomID}
}

// Lookup returns the session for a connection id, if any.
func (d *Directory) Lookup(connID string) (Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sess, ok := d.sessions[connID]
	return sess, ok
}

// Unbind removes and returns the prior session. Used on explicit leave and on
// transport disconnect.
func (d *Directory) Unbind(connID string) (Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sess, ok := d.sessions[connID]
	if ok {
		delete(d.sessions, connID)
	}
	return sess, ok
}

// InRoom snapshots the connections currently bound to a room.
func (d *Directory) InRoom(roomID string) []Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	var conns []Conn
	for _, sess := range d.sessions {
		if sess.RoomID == roomID {
			conns = append(conns, sess.Conn)
		}
	}
	return conns
}

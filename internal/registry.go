package internal

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrRoomExists is returned when creating a room whose id is already taken.
var ErrRoomExists = errors.New("room already exists")

// timeFormat matches the display timestamps the original frontend expects.
const timeFormat = "3:04:05 PM"

// messageClock hands out message ids that are unique for the process and
// ordered by creation. Ids are derived from wall-clock milliseconds but never
// repeat or go backwards, even when two messages land in the same millisecond.
type messageClock struct {
	mu   sync.Mutex
	last int64
}

func (c *messageClock) next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := time.Now().UnixMilli()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id
}

// Room holds one channel's state: the password digest fixed at creation, the
// current member set, and the append-only message history. All fields are
// guarded by the room's own mutex, so operations on different rooms never
// contend.
type Room struct {
	id     string
	digest []byte

	mu      sync.Mutex
	members map[string]struct{}
	history []Message

	clock *messageClock
}

// ID returns the room's key.
func (r *Room) ID() string { return r.id }

// Authenticate checks a supplied password against the digest stored at
// creation time.
func (r *Room) Authenticate(password string) bool {
	return VerifyPassword(r.digest, password)
}

func (r *Room) AddMember(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[username] = struct{}{}
}

func (r *Room) RemoveMember(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, username)
}

// Members returns a snapshot of the current member set, sorted for stable
// output. The set carries no ordering semantics of its own.
func (r *Room) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.members))
	for name := range r.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// History returns a copy of the message log, oldest first.
func (r *Room) History() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.history))
	copy(out, r.history)
	return out
}

// Size reports how many members the room currently has.
func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Append stamps a new message with the next id and timestamp, appends it to
// the history, and invokes deliver with the stored copy before the room lock
// is released. Delivery under the lock is what pins broadcast order to
// history order: two racing appends cannot fan out in the opposite order of
// their history positions. deliver must not block; the transport's send
// queues are non-blocking.
func (r *Room) Append(author, text string, deliver func(Message)) Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := Message{
		ID:   r.clock.next(),
		User: author,
		Text: text,
		Time: time.Now().Format(timeFormat),
	}
	r.history = append(r.history, msg)
	if deliver != nil {
		deliver(msg)
	}
	return msg
}

// Join adds a member and snapshots the history and member list in one lock
// hold. bind runs under the same hold so the session binding becomes visible
// atomically with the membership: relative to a concurrent Append, a message
// is either in the returned snapshot or delivered live to the new member,
// never both and never neither.
func (r *Room) Join(username string, bind func()) ([]Message, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[username] = struct{}{}
	if bind != nil {
		bind()
	}
	history := make([]Message, len(r.history))
	copy(history, r.history)
	users := make([]string, 0, len(r.members))
	for name := range r.members {
		users = append(users, name)
	}
	sort.Strings(users)
	return history, users
}

// Leave removes a member, running unbind under the same lock hold so the
// member set and the session directory cannot disagree mid-broadcast. An
// empty room is retained: rooms live for the rest of the process.
func (r *Room) Leave(username string, unbind func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, username)
	if unbind != nil {
		unbind()
	}
}

// Registry owns the set of rooms. The registry lock only protects the room
// map itself; intra-room state is guarded per room. Rooms live for the rest
// of the process: they are never deleted, even once empty.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	clock messageClock
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Create registers a new room with the digest of the given password and
// empty members/history. ErrRoomExists is returned when the id is taken,
// regardless of the password supplied.
func (reg *Registry) Create(id, password string) error {
	digest, err := HashPassword(password)
	if err != nil {
		return err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.rooms[id]; exists {
		return ErrRoomExists
	}
	reg.rooms[id] = &Room{
		id:      id,
		digest:  digest,
		members: make(map[string]struct{}),
		clock:   &reg.clock,
	}
	return nil
}

// Get looks up a room by id.
func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[id]
	return room, ok
}

// Exists reports whether a room id is currently registered.
func (reg *Registry) Exists(id string) bool {
	_, ok := reg.Get(id)
	return ok
}

// RoomIDs returns a snapshot of all known room ids, sorted. This backs the
// unauthenticated discovery endpoint, so it exposes ids only.
func (reg *Registry) RoomIDs() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	ids := make([]string, 0, len(reg.rooms))
	for id := range reg.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

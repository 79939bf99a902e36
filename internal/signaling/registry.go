package signaling

import "sync"

// Registry is the process-wide map of room id to live member connections.
// Rooms exist exactly as long as they have members: the first join creates a
// room, removal of the last member deletes it.
//
// All methods are safe for concurrent use. Broadcast iterates membership
// under the same lock that guards join/leave, so a broadcast observes a
// consistent snapshot and a join/leave can never interleave mid-loop.
type Registry struct {
	mu    sync.Mutex
	rooms map[RoomID]map[*Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[RoomID]map[*Conn]struct{}),
	}
}

// Join adds c to roomID, creating the room if absent. Rejoining is a
// membership no-op; the return value reports whether c was already a member.
func (r *Registry) Join(roomID RoomID, c *Conn) (already bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[*Conn]struct{})
		r.rooms[roomID] = members
	}
	if _, already = members[c]; already {
		return true
	}
	members[c] = struct{}{}
	return false
}

// Leave removes c from roomID, deleting the room when it empties. Leaving a
// room c is not in, or an unknown room, is a no-op.
func (r *Registry) Leave(roomID RoomID, c *Conn) (removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := members[c]; !ok {
		return false
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
	return true
}

// Broadcast enqueues msg to every member of roomID except the originating
// connection. Members whose send queue is full or closing are skipped rather
// than failing the whole broadcast. Unknown rooms are a no-op.
//
// Returns the number of members the message was enqueued to.
func (r *Registry) Broadcast(roomID RoomID, msg []byte, except *Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for member := range r.rooms[roomID] {
		if member == except {
			continue
		}
		if member.enqueue(msg) {
			delivered++
		}
	}
	return delivered
}

// MemberCount reports the current membership of roomID (0 for unknown rooms).
func (r *Registry) MemberCount(roomID RoomID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomID])
}

// Rooms returns the ids of all rooms that currently have members.
func (r *Registry) Rooms() []RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]RoomID, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	return ids
}

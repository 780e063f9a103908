// internal/app/features/signaling/registry.go
package signaling

import "sync"

// Member describes one connection registered in a room.
type Member struct {
	ConnID   string
	UserID   string
	UserName string
}

type connInfo struct {
	userID   string
	userName string
	roomID   string
}

// Registry maps rooms to their member connections and connections to their
// attached identity. It is owned by the Hub, constructed alongside it, and
// holds no durable state: a process restart starts from empty and clients
// re-register on reconnect.
//
// A connection belongs to at most one room; re-joining a different room
// replaces the prior membership.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*connInfo
	rooms map[string][]string // roomID -> connIDs in join order
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connInfo),
		rooms: make(map[string][]string),
	}
}

// RoomCount reports how many rooms currently have at least one member.
func (reg *Registry) RoomCount() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// RegisterJoin records that connID joined roomID with the given identity and
// returns the members that were already in the room, in join order. The read
// and the write share one critical section: of two connections joining the
// same room concurrently, whichever acquires the lock second is guaranteed to
// see the first in its prior-member list, so no pair of joins can miss each
// other.
//
// If the connection was registered to a different room it is removed from
// that room first. Re-joining the same room is idempotent (the identity is
// refreshed, the join position kept); the prior members then include the
// connection itself.
func (reg *Registry) RegisterJoin(connID, roomID, userID, userName string) []Member {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	prior := reg.members(roomID)

	if info, ok := reg.conns[connID]; ok {
		if info.roomID == roomID {
			info.userID = userID
			info.userName = userName
			return prior
		}
		reg.removeFromRoom(info.roomID, connID)
	}

	reg.conns[connID] = &connInfo{userID: userID, userName: userName, roomID: roomID}
	reg.rooms[roomID] = append(reg.rooms[roomID], connID)
	return prior
}

// MembersOf returns the room's members in join order. Unknown rooms yield an
// empty slice.
func (reg *Registry) MembersOf(roomID string) []Member {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.members(roomID)
}

// members must be called with reg.mu held.
func (reg *Registry) members(roomID string) []Member {
	connIDs := reg.rooms[roomID]
	members := make([]Member, 0, len(connIDs))
	for _, id := range connIDs {
		info := reg.conns[id]
		members = append(members, Member{ConnID: id, UserID: info.userID, UserName: info.userName})
	}
	return members
}

// Remove clears the connection's registration and reports the room and user
// it was removed from. ok is false when the connection was never registered,
// in which case no departure should be broadcast.
func (reg *Registry) Remove(connID string) (roomID, userID string, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	info, found := reg.conns[connID]
	if !found {
		return "", "", false
	}
	reg.removeFromRoom(info.roomID, connID)
	delete(reg.conns, connID)
	return info.roomID, info.userID, true
}

// removeFromRoom must be called with reg.mu held.
func (reg *Registry) removeFromRoom(roomID, connID string) {
	conns := reg.rooms[roomID]
	for i, id := range conns {
		if id == connID {
			reg.rooms[roomID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(reg.rooms[roomID]) == 0 {
		delete(reg.rooms, roomID)
	}
}

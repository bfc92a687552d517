package signaling

import (
	"sync"

	"github.com/collabhq/voicerelay/pkg/network"
)

// Peer is one live connection from the registry's point of view:
// something with an identity that messages can be pushed into.
// Send must not be blocking beyond its own transport deadline and
// must return an error instead of panicking on a dead connection.
type Peer interface {
	Id() network.Uid
	Send(data []byte) error
}

// Registry tracks which peers belong to which room plus the
// participant identity each peer announced with its join message.
// A room exists only while it has at least one peer; the last leave
// removes the room entry itself.
//
// One mutex guards the whole structure. Every operation is a quick
// in-memory mutation or copy, never network I/O, so contention stays
// negligible for the expected room sizes (voice calls).
type Registry struct {
	mu    sync.Mutex
	rooms map[string]map[Peer]string // room id -> peer -> participant id
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[Peer]string, 10)}
}

// Join adds the peer to the room, creating the room if absent.
func (r *Registry) Join(p Peer, roomId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := r.rooms[roomId]
	if room == nil {
		room = make(map[Peer]string, 4)
		r.rooms[roomId] = room
	}
	room[p] = ""
}

// RegisterIdentity records the participant identity for a peer already
// joined to the room. The identity is meant to be set once; the
// registry doesn't police overwrites, that's a client protocol error.
func (r *Registry) RegisterIdentity(p Peer, roomId string, userId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[roomId]; ok {
		if _, ok := room[p]; ok {
			room[p] = userId
		}
	}
}

// Leave removes the peer from the room and garbage-collects the room
// when it becomes empty. Calling it for a peer that is not registered
// is a no-op: disconnect paths may race with cleanup done elsewhere.
func (r *Registry) Leave(p Peer, roomId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomId]
	if !ok {
		return
	}
	delete(room, p)
	if len(room) == 0 {
		delete(r.rooms, roomId)
	}
}

// PeerCount returns the number of peers in the room besides the given
// one. Diagnostics only.
func (r *Registry) PeerCount(roomId string, except Peer) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := r.rooms[roomId]
	n := len(room)
	if _, ok := room[except]; ok {
		n--
	}
	return n
}

// Snapshot returns a copy of the room's current peers, minus the
// excluded one. Callers iterate the copy without holding the lock,
// so sends never stall other registry operations.
func (r *Registry) Snapshot(roomId string, except Peer) []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := r.rooms[roomId]
	if len(room) == 0 {
		return nil
	}
	peers := make([]Peer, 0, len(room))
	for p := range room {
		if p == except {
			continue
		}
		peers = append(peers, p)
	}
	return peers
}

// ForEachPeer runs fn for every registered connection over all rooms.
// The callback is invoked outside the lock.
func (r *Registry) ForEachPeer(fn func(p Peer)) {
	r.mu.Lock()
	var peers []Peer
	for _, room := range r.rooms {
		for p := range room {
			peers = append(peers, p)
		}
	}
	r.mu.Unlock()
	for _, p := range peers {
		fn(p)
	}
}

// RoomCount reports the number of active rooms.
func (r *Registry) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// ConnCount reports the number of registered connections over all rooms.
func (r *Registry) ConnCount() (n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		n += len(room)
	}
	return
}

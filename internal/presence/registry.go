package presence

import (
	"log/slog"
	"sort"
	"sync"
)

// Mirror replicates presence transitions to an external store so that
// other server instances can see who occupies which room. Calls are
// best-effort: failures are logged and never surfaced to clients.
type Mirror interface {
	Add(roomID, userID string) error
	Remove(roomID, userID string) error
}

// Registry tracks which rooms each user occupies and who is typing in
// each room. It is constructed once at server start and injected into the
// hub; there is no package-level state.
//
// Occupancy is reference-counted per (user, room) pair so that a user
// connected from two devices stays present until the last connection
// leaves. Empty entries are deleted, never left dangling.
type Registry struct {
	mu sync.RWMutex

	// userID -> roomID -> connection count
	rooms map[string]map[string]int

	// roomID -> set of userIDs currently typing
	typing map[string]map[string]struct{}

	mirror Mirror
}

func NewRegistry(mirror Mirror) *Registry {
	return &Registry{
		rooms:  make(map[string]map[string]int),
		typing: make(map[string]map[string]struct{}),
		mirror: mirror,
	}
}

// Join records one more connection of userID in roomID.
func (r *Registry) Join(userID, roomID string) {
	r.mu.Lock()
	if r.rooms[userID] == nil {
		r.rooms[userID] = make(map[string]int)
	}
	r.rooms[userID][roomID]++
	first := r.rooms[userID][roomID] == 1
	r.mu.Unlock()

	if first && r.mirror != nil {
		if err := r.mirror.Add(roomID, userID); err != nil {
			slog.Warn("presence mirror add failed", "room_id", roomID, "user_id", userID, "error", err)
		}
	}
}

// Leave records that one connection of userID left roomID. The user
// disappears from the room only when their last connection leaves.
func (r *Registry) Leave(userID, roomID string) {
	r.mu.Lock()
	last := r.leaveLocked(userID, roomID)
	r.mu.Unlock()

	if last && r.mirror != nil {
		if err := r.mirror.Remove(roomID, userID); err != nil {
			slog.Warn("presence mirror remove failed", "room_id", roomID, "user_id", userID, "error", err)
		}
	}
}

func (r *Registry) leaveLocked(userID, roomID string) bool {
	rooms, ok := r.rooms[userID]
	if !ok {
		return false
	}
	if _, ok := rooms[roomID]; !ok {
		return false
	}

	rooms[roomID]--
	if rooms[roomID] > 0 {
		return false
	}

	delete(rooms, roomID)
	if len(rooms) == 0 {
		delete(r.rooms, userID)
	}
	return true
}

// ClearUser is the disconnect path: drops one occupancy of userID in
// roomID and, when that was the user's last connection there, also clears
// their typing flag. A ghost "X is typing" from a dead connection has no
// way to ever go away otherwise.
func (r *Registry) ClearUser(userID, roomID string) {
	r.mu.Lock()
	last := r.leaveLocked(userID, roomID)
	if last {
		r.setTypingLocked(roomID, userID, false)
	}
	r.mu.Unlock()

	if last && r.mirror != nil {
		if err := r.mirror.Remove(roomID, userID); err != nil {
			slog.Warn("presence mirror remove failed", "room_id", roomID, "user_id", userID, "error", err)
		}
	}
}

// ActiveUsers returns the distinct users currently present in roomID,
// sorted for deterministic snapshots. A user on two devices counts once.
func (r *Registry) ActiveUsers(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0)
	for userID, rooms := range r.rooms {
		if _, ok := rooms[roomID]; ok {
			users = append(users, userID)
		}
	}
	sort.Strings(users)
	return users
}

// SetTyping flips the typing flag of userID in roomID.
func (r *Registry) SetTyping(roomID, userID string, isTyping bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setTypingLocked(roomID, userID, isTyping)
}

func (r *Registry) setTypingLocked(roomID, userID string, isTyping bool) {
	if isTyping {
		if r.typing[roomID] == nil {
			r.typing[roomID] = make(map[string]struct{})
		}
		r.typing[roomID][userID] = struct{}{}
		return
	}

	if users, ok := r.typing[roomID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(r.typing, roomID)
		}
	}
}

// TypingUsers returns the users currently typing in roomID, sorted.
func (r *Registry) TypingUsers(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.typing[roomID]))
	for userID := range r.typing[roomID] {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

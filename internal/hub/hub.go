package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pmchat/internal/content"
	"pmchat/internal/models"
	"pmchat/internal/presence"
	"pmchat/internal/store"
)

var ErrEmptyMessage = errors.New("message is empty")

const (
	DefaultHistoryLimit = 100
	DefaultCallTimeout  = 5 * time.Second
)

type Config struct {
	Store        store.Store
	Registry     *presence.Registry
	HistoryLimit int
	CallTimeout  time.Duration
}

// Hub routes protocol events between sessions, the presence registry and
// the persistence collaborator. It owns the transport groups: which
// sessions receive a broadcast for a given room.
type Hub struct {
	store        store.Store
	registry     *presence.Registry
	historyLimit int
	callTimeout  time.Duration

	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}
}

func New(config Config) *Hub {
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = DefaultHistoryLimit
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultCallTimeout
	}
	return &Hub{
		store:        config.Store,
		registry:     config.Registry,
		historyLimit: config.HistoryLimit,
		callTimeout:  config.CallTimeout,
		rooms:        make(map[string]map[*Session]struct{}),
	}
}

// Connect creates a session for an authenticated principal. The session
// is in no room until its first successful JoinRoom.
func (h *Hub) Connect(principal models.Principal) *Session {
	return NewSession(principal)
}

// JoinRoom moves the session into roomID. The access check runs first, so
// a denied join leaves every bit of state untouched. Once access is
// granted, the leave-old/join-new transition runs with no suspension
// point in between, so it cannot be observed half-done. A history fetch
// failure after the transition leaves the join committed; the caller gets
// the error and the member stays in the room.
func (h *Hub) JoinRoom(ctx context.Context, s *Session, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("%w: no room id", models.ErrAccessDenied)
	}

	ctx, cancel := context.WithTimeout(ctx, h.callTimeout)
	defer cancel()

	userID := s.principal.UserID
	if _, err := h.store.RoomAccess(ctx, roomID, s.principal.CompanyID, userID); err != nil {
		return err
	}

	oldRoom := s.currentRoom
	if oldRoom != "" {
		h.removeFromRoom(oldRoom, s)
		h.registry.ClearUser(userID, oldRoom)
	}
	h.addToRoom(roomID, s)
	h.registry.Join(userID, roomID)
	s.currentRoom = roomID

	if oldRoom != "" && oldRoom != roomID {
		h.broadcastRoomStatus(oldRoom)
	}
	h.broadcastRoomStatus(roomID)

	history, err := h.store.MessageHistory(ctx, roomID, h.historyLimit)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	// The store returns newest-first; clients want oldest-first replay.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	if history == nil {
		history = []models.ChatMessage{}
	}
	s.Send(models.ServerEvent{Event: models.ServerEventMessageHistory, Data: history})

	return nil
}

// SendMessage persists the message, enriches it with the sender's profile
// and fans it out to everyone in the session's current room, sender
// included. The activity log write afterwards is best-effort.
func (h *Hub) SendMessage(ctx context.Context, s *Session, rawContent string, isBot bool) error {
	roomID := s.currentRoom
	if roomID == "" {
		return models.ErrNotInRoom
	}

	text := content.SanitizeMessage(rawContent)
	if text == "" {
		return ErrEmptyMessage
	}

	ctx, cancel := context.WithTimeout(ctx, h.callTimeout)
	defer cancel()

	userID := s.principal.UserID
	msg, err := h.store.SaveMessage(ctx, roomID, userID, text, isBot)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}

	out := models.ChatMessage{
		MessageID:      msg.MessageID,
		UserID:         msg.UserID,
		Message:        msg.Content,
		IsBot:          msg.IsBot,
		RoomID:         msg.RoomID,
		ConversationID: msg.RoomID,
		CreatedAt:      msg.CreatedAt,
		SenderName:     "Unknown User",
		SenderID:       userID,
	}
	if profile, err := h.store.SenderProfile(ctx, userID); err == nil {
		out.SenderName = profile.Name
		out.SenderAvatar = profile.Avatar
	}

	h.broadcast(roomID, models.ServerEvent{Event: models.ServerEventNewMessage, Data: out})

	if err := h.store.LogActivity(ctx, userID, roomID); err != nil {
		slog.Error("failed to log message activity", "user_id", userID, "room_id", roomID, "error", err)
	}

	return nil
}

// Typing broadcasts the delta for this one user, not a full snapshot.
// No-op when the session is not in a room.
func (h *Hub) Typing(s *Session, isTyping bool) {
	roomID := s.currentRoom
	if roomID == "" {
		return
	}

	userID := s.principal.UserID
	h.registry.SetTyping(roomID, userID, isTyping)
	h.broadcast(roomID, models.ServerEvent{
		Event: models.ServerEventTypingStatus,
		Data:  models.TypingStatus{UserID: userID, IsTyping: isTyping},
	})
}

// Disconnect tears the session down for any reason the transport reports.
// The remaining room members get a fresh status snapshot; the departed
// socket receives nothing further.
func (h *Hub) Disconnect(s *Session) {
	roomID := s.currentRoom
	s.currentRoom = ""

	if roomID != "" {
		h.removeFromRoom(roomID, s)
	}
	s.Close()

	if roomID != "" {
		h.registry.ClearUser(s.principal.UserID, roomID)
		h.broadcastRoomStatus(roomID)
	}
}

// RoomStatus computes the current snapshot for a room.
func (h *Hub) RoomStatus(roomID string) models.RoomStatus {
	return models.RoomStatus{
		ActiveUsers: h.registry.ActiveUsers(roomID),
		TypingUsers: h.registry.TypingUsers(roomID),
	}
}

func (h *Hub) addToRoom(roomID string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Session]struct{})
	}
	h.rooms[roomID][s] = struct{}{}
}

func (h *Hub) removeFromRoom(roomID string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[roomID]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) broadcastRoomStatus(roomID string) {
	h.broadcast(roomID, models.ServerEvent{Event: models.ServerEventRoomStatus, Data: h.RoomStatus(roomID)})
}

func (h *Hub) broadcast(roomID string, ev models.ServerEvent) {
	h.mu.RLock()
	members := make([]*Session, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	for _, s := range members {
		if !s.Send(ev) {
			slog.Warn("dropped event for slow session", "user_id", s.principal.UserID, "room_id", roomID, "event", ev.Event)
		}
	}
}

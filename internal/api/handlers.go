package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"pmchat/internal/auth"
	"pmchat/internal/models"
)

// Directory is the read side of the store the REST endpoints need.
type Directory interface {
	ListRooms(ctx context.Context, companyID, userID string) ([]models.Room, error)
	MessageHistory(ctx context.Context, roomID string, limit int) ([]models.ChatMessage, error)
	RoomAccess(ctx context.Context, roomID, companyID, userID string) (models.Room, error)
}

type statusProvider interface {
	RoomStatus(roomID string) models.RoomStatus
}

type API struct {
	verifier     *auth.Verifier
	hub          statusProvider
	directory    Directory
	historyLimit int
}

func New(verifier *auth.Verifier, hub statusProvider, directory Directory, historyLimit int) *API {
	return &API{
		verifier:     verifier,
		hub:          hub,
		directory:    directory,
		historyLimit: historyLimit,
	}
}

type principalKey struct{}

// RequireAuth verifies the bearer token and stashes the principal in the
// request context.
func (a *API) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		principal, err := a.verifier.Verify(token)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, principal)))
	}
}

func principalFrom(r *http.Request) models.Principal {
	p, _ := r.Context().Value(principalKey{}).(models.Principal)
	return p
}

// RoomsHandler lists the rooms the caller can see.
func (a *API) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)

	rooms, err := a.directory.ListRooms(r.Context(), p.CompanyID, p.UserID)
	if err != nil {
		slog.Error("failed to list rooms", "user_id", p.UserID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Failed to fetch chat rooms"})
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "rooms": rooms})
}

// RoomMessagesHandler returns room history over REST, oldest-first, with
// the same access rules as a websocket join.
func (a *API) RoomMessagesHandler(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	roomID := r.PathValue("id")

	if _, err := a.directory.RoomAccess(r.Context(), roomID, p.CompanyID, p.UserID); err != nil {
		if errors.Is(err, models.ErrAccessDenied) {
			writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "message": "Unauthorized room access"})
			return
		}
		slog.Error("room access check failed", "room_id", roomID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Failed to fetch messages"})
		return
	}

	messages, err := a.directory.MessageHistory(r.Context(), roomID, a.historyLimit)
	if err != nil {
		slog.Error("failed to fetch history", "room_id", roomID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Failed to fetch messages"})
		return
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messages": messages})
}

// RoomUsersHandler returns the live presence snapshot for a room.
func (a *API) RoomUsersHandler(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r)
	roomID := r.PathValue("id")

	if _, err := a.directory.RoomAccess(r.Context(), roomID, p.CompanyID, p.UserID); err != nil {
		if errors.Is(err, models.ErrAccessDenied) {
			writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "message": "Unauthorized room access"})
			return
		}
		slog.Error("room access check failed", "room_id", roomID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Failed to fetch presence"})
		return
	}

	writeJSON(w, http.StatusOK, a.hub.RoomStatus(roomID))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

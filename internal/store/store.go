package store

import (
	"context"

	"pmchat/internal/models"
)

// Store is the persistence collaborator the chat core depends on. Every
// call may block on I/O; callers pass a bounded context and treat failures
// per the error taxonomy (access denial vs. infrastructure failure).
type Store interface {
	// RoomAccess returns the room if it exists, belongs to companyID and,
	// when private, lists userID as a member. Otherwise it returns
	// models.ErrAccessDenied without revealing whether the room exists.
	RoomAccess(ctx context.Context, roomID, companyID, userID string) (models.Room, error)

	// MessageHistory returns up to limit most recent messages for the
	// room, newest-first, enriched with sender display information.
	MessageHistory(ctx context.Context, roomID string, limit int) ([]models.ChatMessage, error)

	// SaveMessage durably appends a message and returns the stored record
	// with its generated id and timestamp.
	SaveMessage(ctx context.Context, roomID, userID, content string, isBot bool) (models.Message, error)

	// SenderProfile returns display information for a user.
	SenderProfile(ctx context.Context, userID string) (models.SenderProfile, error)

	// LogActivity records that userID sent a message in the project the
	// room belongs to. No-op for rooms without a project. Callers treat
	// failures as best-effort.
	LogActivity(ctx context.Context, userID, roomID string) error
}

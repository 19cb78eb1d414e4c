package models

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("unauthorized room access")
	ErrNotInRoom    = errors.New("not in a room")
)

// Principal is the authenticated identity bound to a connection.
// It is created once at handshake time and never changes afterwards.
type Principal struct {
	UserID    string `json:"userId"`
	CompanyID string `json:"companyId"`
}

// Room is a company-scoped channel. Rooms are provisioned out of band;
// the chat core only looks them up to decide access.
type Room struct {
	RoomID    string `json:"roomId"`
	CompanyID string `json:"companyId"`
	ProjectID string `json:"projectId,omitempty"`
	Name      string `json:"name"`
	IsPrivate bool   `json:"isPrivate"`
}

// Message is the durable record of a chat message. UserID is empty for
// system/bot senders.
type Message struct {
	MessageID string    `json:"messageId"`
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	IsBot     bool      `json:"isBot"`
	CreatedAt time.Time `json:"createdAt"`
}

// SenderProfile is the display information attached to outgoing messages.
type SenderProfile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// ChatMessage is the enriched wire representation of a message, used both
// for live newMessage broadcasts and messageHistory replay. ConversationID
// mirrors RoomID for compatibility with older clients.
type ChatMessage struct {
	MessageID      string    `json:"messageId"`
	UserID         string    `json:"userId"`
	Message        string    `json:"message"`
	IsBot          bool      `json:"isBot"`
	RoomID         string    `json:"roomId"`
	ConversationID string    `json:"conversationId"`
	CreatedAt      time.Time `json:"createdAt"`
	SenderName     string    `json:"senderName"`
	SenderAvatar   string    `json:"senderAvatar,omitempty"`
	SenderID       string    `json:"senderId"`
}

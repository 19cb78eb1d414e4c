package models

import (
	"encoding/json"
	"fmt"
)

type ClientEventType string

const (
	ClientEventJoinRoom    ClientEventType = "joinRoom"
	ClientEventSendMessage ClientEventType = "sendMessage"
	ClientEventTyping      ClientEventType = "typing"
)

// ClientEvent is the envelope for everything a client can send. The set of
// event types is closed; anything else is rejected at the decode boundary.
type ClientEvent struct {
	Event ClientEventType `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinRoomPayload accepts both a bare room id string and the wrapped
// {"roomId": ...} object clients historically sent.
type JoinRoomPayload struct {
	RoomID string
}

func (p *JoinRoomPayload) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.RoomID = s
		return nil
	}
	var obj struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid joinRoom payload: %w", err)
	}
	p.RoomID = obj.RoomID
	return nil
}

// SendMessagePayload accepts content under either the "message" or the
// "content" key; "message" wins when both are present.
type SendMessagePayload struct {
	Content string
	IsBot   bool
}

func (p *SendMessagePayload) UnmarshalJSON(data []byte) error {
	var obj struct {
		Message string `json:"message"`
		Content string `json:"content"`
		IsBot   bool   `json:"is_bot"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid sendMessage payload: %w", err)
	}
	p.Content = obj.Message
	if p.Content == "" {
		p.Content = obj.Content
	}
	p.IsBot = obj.IsBot
	return nil
}

// TypingPayload accepts a bare boolean or {"isTyping": bool}.
type TypingPayload struct {
	IsTyping bool
}

func (p *TypingPayload) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		p.IsTyping = b
		return nil
	}
	var obj struct {
		IsTyping bool `json:"isTyping"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid typing payload: %w", err)
	}
	p.IsTyping = obj.IsTyping
	return nil
}

type ServerEventType string

const (
	ServerEventRoomStatus     ServerEventType = "roomStatus"
	ServerEventMessageHistory ServerEventType = "messageHistory"
	ServerEventNewMessage     ServerEventType = "newMessage"
	ServerEventTypingStatus   ServerEventType = "typingStatus"
	ServerEventError          ServerEventType = "error"
)

// ServerEvent is the envelope for everything the server emits.
type ServerEvent struct {
	Event ServerEventType `json:"event"`
	Data  any             `json:"data"`
}

// RoomStatus is the full presence snapshot broadcast on join and disconnect.
type RoomStatus struct {
	ActiveUsers []string `json:"activeUsers"`
	TypingUsers []string `json:"typingUsers"`
}

// TypingStatus is the per-user delta broadcast on typing changes.
type TypingStatus struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

func ErrorEvent(msg string) ServerEvent {
	return ServerEvent{Event: ServerEventError, Data: msg}
}
